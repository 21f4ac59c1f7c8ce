package domain

import "time"

// Партия в боулинг. Игроки упорядочены по Position
type Game struct {
	ID        int64     `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Reference string    `db:"reference" json:"reference"` // публичный токен партии
	State     GameState `db:"state" json:"state"`
	WinnerID  *int64    `db:"winner_player_id" json:"winner_player_id,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Состояние партии
type GameState string

const (
	GameStateNew             GameState = "new"
	GameStatePlaying         GameState = "playing"
	GameStatePlayersFinished GameState = "players_finished"
	GameStateFinished        GameState = "finished"
)

// Правила игры
const (
	PinsPerFrame  = 10
	FramesPerGame = 10
	// раунд для бонусного броска после страйка в последнем фрейме
	BonusRound = FramesPerGame + 1
)
