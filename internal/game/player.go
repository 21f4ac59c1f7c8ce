package game

import (
	"fmt"

	"bowling_engine/internal/domain"
)

type playerEvent string

const (
	evStartFrame playerEvent = "start_frame"
	evEndFrame   playerEvent = "end_frame"
	evBonusFrame playerEvent = "bonus_frame"
	evEndGame    playerEvent = "end_game"
)

var playerTransitions = transitions[domain.PlayerState, playerEvent]{
	domain.PlayerStateWaiting: {
		evStartFrame: domain.PlayerStatePlaying,
	},
	domain.PlayerStatePlaying: {
		evEndFrame:   domain.PlayerStateWaiting,
		evBonusFrame: domain.PlayerStatePlaying,
		evEndGame:    domain.PlayerStateFinished,
	},
}

// PlayerOutcome - результат перехода игрока
type PlayerOutcome struct {
	Player   domain.Player
	NewFrame *domain.Frame // фрейм, который нужно создать, или nil
	Commands []domain.Command
}

func requireRunning(g domain.Game) error {
	if g.State != domain.GameStatePlaying {
		return &domain.PreconditionError{Reason: "cannot transition a player while game is not running"}
	}
	return nil
}

// StartTurn переводит ожидающего игрока в игру. Первый фрейм создается,
// если у игрока их еще нет
func StartTurn(g domain.Game, p domain.Player, frameCount int) (PlayerOutcome, error) {
	if err := requireRunning(g); err != nil {
		return PlayerOutcome{Player: p}, err
	}
	next, ok := playerTransitions.next(p.State, evStartFrame)
	if !ok {
		return PlayerOutcome{Player: p}, &domain.StateViolationError{Entity: "player", ID: p.ID, State: string(p.State), Action: "start turn"}
	}

	out := PlayerOutcome{Player: p}
	out.Player.State = next
	if frameCount == 0 {
		out.NewFrame = &domain.Frame{PlayerID: p.ID, Round: 1, State: domain.FrameStateNew}
	}
	return out, nil
}

// EndTurn обрабатывает сигнал конца фрейма. nextRound == 0 - раундов больше нет,
// BonusRound - игрок остается у дорожки ради дополнительного шара
func EndTurn(g domain.Game, p domain.Player, frames []domain.Frame, nextRound int) (PlayerOutcome, error) {
	if err := requireRunning(g); err != nil {
		return PlayerOutcome{Player: p}, err
	}

	var ev playerEvent
	switch {
	case nextRound == 0:
		ev = evEndGame
	case nextRound == domain.BonusRound:
		ev = evBonusFrame
	case nextRound > 1 && nextRound <= domain.FramesPerGame:
		ev = evEndFrame
	default:
		return PlayerOutcome{Player: p}, &domain.StateViolationError{Entity: "player", ID: p.ID, State: string(p.State), Action: fmt.Sprintf("advance to round %d", nextRound)}
	}

	next, ok := playerTransitions.next(p.State, ev)
	if !ok {
		return PlayerOutcome{Player: p}, &domain.StateViolationError{Entity: "player", ID: p.ID, State: string(p.State), Action: "end turn"}
	}

	score, last := 0, 0
	for _, f := range frames {
		score += f.Score
		if f.Round > last {
			last = f.Round
		}
	}
	// следующий раунд строго за последним созданным, иначе это повтор сигнала
	if nextRound != 0 && nextRound != last+1 {
		return PlayerOutcome{Player: p}, &domain.StateViolationError{Entity: "player", ID: p.ID, State: string(p.State), Action: fmt.Sprintf("advance from round %d to round %d", last, nextRound)}
	}

	out := PlayerOutcome{Player: p}
	out.Player.FinalScore = score
	out.Player.LastRound = last
	out.Player.State = next

	if nextRound != 0 {
		out.NewFrame = &domain.Frame{PlayerID: p.ID, Round: nextRound, State: domain.FrameStateNew}
	}
	if ev != evBonusFrame {
		out.Commands = append(out.Commands, domain.GameElection(p.GameID))
	}
	return out, nil
}
