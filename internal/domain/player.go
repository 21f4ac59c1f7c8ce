package domain

// Игрок внутри партии
type Player struct {
	ID         int64       `db:"id" json:"id"`
	GameID     int64       `db:"game_id" json:"game_id"`
	Name       string      `db:"name" json:"name"`
	State      PlayerState `db:"state" json:"state"`
	FinalScore int         `db:"final_score" json:"final_score"`
	Position   int         `db:"position" json:"position"`     // место за столом, с нуля, не меняется
	LastRound  int         `db:"last_round" json:"last_round"` // раунд последнего сыгранного фрейма
}

// Состояние игрока
type PlayerState string

const (
	PlayerStateWaiting  PlayerState = "waiting"
	PlayerStatePlaying  PlayerState = "playing"
	PlayerStateFinished PlayerState = "finished"
)
