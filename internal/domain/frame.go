package domain

// Фрейм одного игрока в одном раунде
type Frame struct {
	ID        int64      `db:"id" json:"id"`
	PlayerID  int64      `db:"player_id" json:"player_id"`
	Round     int        `db:"round" json:"round"`
	State     FrameState `db:"state" json:"state"`
	ScoreWait int        `db:"score_wait" json:"score_wait"` // сколько будущих бросков еще должны бонус
	Roll1     int        `db:"roll_1" json:"roll_1"`
	Roll2     int        `db:"roll_2" json:"roll_2"`
	Roll3     int        `db:"roll_3" json:"roll_3"`
	Score     int        `db:"score" json:"score"`
}

// Состояние фрейма
type FrameState string

const (
	FrameStateNew        FrameState = "new"
	FrameStateRollFirst  FrameState = "roll_first"  // первый шар брошен, ждем второй
	FrameStateRollSecond FrameState = "roll_second" // последний фрейм: разрешен дополнительный шар
	FrameStateWaitScore  FrameState = "wait_score"
	FrameStateDone       FrameState = "done"
)

// Open сообщает, можно ли еще бросать шар в этот фрейм
func (f Frame) Open() bool {
	switch f.State {
	case FrameStateNew, FrameStateRollFirst, FrameStateRollSecond:
		return true
	}
	return false
}

// IsStrike - все кегли первым шаром
func (f Frame) IsStrike() bool {
	return f.State != FrameStateNew && f.Roll1 == PinsPerFrame
}
