package game

import (
	"bowling_engine/internal/domain"
)

type frameEvent string

const (
	evStrike     frameEvent = "strike"
	evStrikeLast frameEvent = "strike_last"
	evFirstBall  frameEvent = "first_ball"
	evBonusBall  frameEvent = "bonus_ball"
	evSpare      frameEvent = "spare"
	evSpareLast  frameEvent = "spare_last"
	evClose      frameEvent = "close"
	evFill       frameEvent = "fill"
	evCredit     frameEvent = "credit"
	evSettle     frameEvent = "settle"
)

var frameTransitions = transitions[domain.FrameState, frameEvent]{
	domain.FrameStateNew: {
		evStrike:     domain.FrameStateWaitScore,
		evStrikeLast: domain.FrameStateRollSecond,
		evFirstBall:  domain.FrameStateRollFirst,
		evBonusBall:  domain.FrameStateDone,
	},
	domain.FrameStateRollFirst: {
		evSpare:     domain.FrameStateWaitScore,
		evSpareLast: domain.FrameStateRollSecond,
		evClose:     domain.FrameStateDone,
	},
	domain.FrameStateRollSecond: {
		evFill: domain.FrameStateDone,
	},
	domain.FrameStateWaitScore: {
		evCredit: domain.FrameStateWaitScore,
		evSettle: domain.FrameStateDone,
	},
}

// RemainingPins возвращает, сколько кегель можно сбить следующим шаром
func RemainingPins(f domain.Frame) int {
	switch f.State {
	case domain.FrameStateNew, domain.FrameStateRollSecond:
		return domain.PinsPerFrame
	case domain.FrameStateRollFirst:
		return domain.PinsPerFrame - f.Roll1
	}
	return 0
}

// ApplyRoll записывает бросок во фрейм и возвращает обновленный фрейм вместе
// с командами для шины. Propagation всегда идет первой, PlayerTurn - после нее.
// При ошибке фрейм возвращается без изменений
func ApplyRoll(f domain.Frame, pins int) (domain.Frame, []domain.Command, error) {
	if pins < 0 || pins > domain.PinsPerFrame {
		return f, nil, &domain.InvalidRollError{Pins: pins, Remaining: RemainingPins(f)}
	}

	ev, err := rollEvent(f, pins)
	if err != nil {
		return f, nil, err
	}

	next, ok := frameTransitions.next(f.State, ev)
	if !ok {
		return f, nil, &domain.StateViolationError{Entity: "frame", ID: f.ID, State: string(f.State), Action: "roll"}
	}

	out := f
	switch f.State {
	case domain.FrameStateNew:
		out.Roll1 = pins
	case domain.FrameStateRollFirst:
		out.Roll2 = pins
	case domain.FrameStateRollSecond:
		out.Roll3 = pins
	}
	out.Score += pins
	out.State = next

	cmds := []domain.Command{domain.Propagation(f.ID, pins)}

	switch ev {
	case evStrike:
		out.ScoreWait = 2
		cmds = append(cmds, domain.PlayerTurn(f.PlayerID, f.Round+1))
	case evSpare:
		out.ScoreWait = 1
		cmds = append(cmds, domain.PlayerTurn(f.PlayerID, f.Round+1))
	case evClose:
		if f.Round >= domain.FramesPerGame {
			cmds = append(cmds, domain.PlayerTurn(f.PlayerID, 0))
		} else {
			cmds = append(cmds, domain.PlayerTurn(f.PlayerID, f.Round+1))
		}
	case evFill:
		// после страйка в последнем фрейме положен еще один шар - он живет в бонусном раунде
		if out.Roll1 == domain.PinsPerFrame {
			cmds = append(cmds, domain.PlayerTurn(f.PlayerID, domain.BonusRound))
		} else {
			cmds = append(cmds, domain.PlayerTurn(f.PlayerID, 0))
		}
	case evBonusBall:
		cmds = append(cmds, domain.PlayerTurn(f.PlayerID, 0))
	}

	return out, cmds, nil
}

func rollEvent(f domain.Frame, pins int) (frameEvent, error) {
	switch f.State {
	case domain.FrameStateNew:
		switch {
		case f.Round == domain.BonusRound:
			return evBonusBall, nil
		case pins == domain.PinsPerFrame && f.Round == domain.FramesPerGame:
			return evStrikeLast, nil
		case pins == domain.PinsPerFrame:
			return evStrike, nil
		}
		return evFirstBall, nil
	case domain.FrameStateRollFirst:
		if f.Roll1+pins > domain.PinsPerFrame {
			return "", &domain.InvalidRollError{Pins: pins, Remaining: RemainingPins(f)}
		}
		if f.Roll1+pins < domain.PinsPerFrame {
			return evClose, nil
		}
		if f.Round == domain.FramesPerGame {
			return evSpareLast, nil
		}
		return evSpare, nil
	case domain.FrameStateRollSecond:
		return evFill, nil
	}
	// wait_score и done бросков не принимают, таблица отклонит
	return "", nil
}

// ApplyPropagatedScore начисляет фрейму бонус за чужой бросок
func ApplyPropagatedScore(f domain.Frame, pins int) (domain.Frame, error) {
	if pins < 0 || pins > domain.PinsPerFrame {
		return f, &domain.InvalidRollError{Pins: pins, Remaining: domain.PinsPerFrame}
	}
	if f.ScoreWait <= 0 {
		return f, &domain.StateViolationError{Entity: "frame", ID: f.ID, State: string(f.State), Action: "receive bonus credit"}
	}

	ev := evCredit
	if f.ScoreWait == 1 {
		ev = evSettle
	}
	next, ok := frameTransitions.next(f.State, ev)
	if !ok {
		return f, &domain.StateViolationError{Entity: "frame", ID: f.ID, State: string(f.State), Action: "receive bonus credit"}
	}

	out := f
	out.Score += pins
	out.ScoreWait--
	out.State = next
	return out, nil
}
