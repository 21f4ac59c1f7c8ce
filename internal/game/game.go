package game

import (
	"sort"

	"bowling_engine/internal/domain"
)

type gameEvent string

const (
	evStart  gameEvent = "start"
	evElect  gameEvent = "elect"
	evEnd    gameEvent = "end"
	evFinish gameEvent = "finish"
)

var gameTransitions = transitions[domain.GameState, gameEvent]{
	domain.GameStateNew: {
		evStart: domain.GameStatePlaying,
	},
	domain.GameStatePlaying: {
		evElect: domain.GameStatePlaying,
		evEnd:   domain.GameStatePlayersFinished,
	},
	domain.GameStatePlayersFinished: {
		evFinish: domain.GameStateFinished,
	},
}

// GameOutcome - результат перехода партии
type GameOutcome struct {
	Game     domain.Game
	Commands []domain.Command
}

func gameViolation(g domain.Game, action string) error {
	return &domain.StateViolationError{Entity: "game", ID: g.ID, State: string(g.State), Action: action}
}

// Start запускает партию и сразу просит выбрать первого игрока
func Start(g domain.Game, players []domain.Player) (GameOutcome, error) {
	next, ok := gameTransitions.next(g.State, evStart)
	if !ok {
		return GameOutcome{Game: g}, gameViolation(g, "start")
	}
	if len(players) == 0 {
		return GameOutcome{Game: g}, &domain.PreconditionError{Reason: "game must have at least one player to be started"}
	}

	out := GameOutcome{Game: g}
	out.Game.State = next
	out.Commands = []domain.Command{domain.GameElection(g.ID)}
	return out, nil
}

// ReElect выбирает следующего ожидающего игрока с наименьшим (last_round, position).
// Пока кто-то еще у дорожки, выборы ничего не делают. Когда не осталось ни
// ожидающих, ни играющих, партия переходит в players_finished
func ReElect(g domain.Game, players []domain.Player) (GameOutcome, error) {
	if _, ok := gameTransitions.next(g.State, evElect); !ok {
		return GameOutcome{Game: g}, gameViolation(g, "elect a player")
	}

	out := GameOutcome{Game: g}

	var waiting []domain.Player
	for _, p := range players {
		switch p.State {
		case domain.PlayerStatePlaying:
			// одновременно играет только один
			return out, nil
		case domain.PlayerStateWaiting:
			waiting = append(waiting, p)
		}
	}

	if len(waiting) > 0 {
		next := NextPlayer(waiting)
		out.Commands = []domain.Command{domain.PlayerSelect(next.ID)}
		return out, nil
	}

	next, _ := gameTransitions.next(g.State, evEnd)
	out.Game.State = next
	out.Commands = []domain.Command{domain.GameElection(g.ID)}
	return out, nil
}

// NextPlayer возвращает игрока с наименьшим last_round, при равенстве - с меньшей позицией.
// waiting не должен быть пустым
func NextPlayer(waiting []domain.Player) domain.Player {
	sorted := append([]domain.Player(nil), waiting...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].LastRound != sorted[j].LastRound {
			return sorted[i].LastRound < sorted[j].LastRound
		}
		return sorted[i].Position < sorted[j].Position
	})
	return sorted[0]
}

// FinishPlayers определяет победителя и завершает партию
func FinishPlayers(g domain.Game, players []domain.Player) (GameOutcome, error) {
	next, ok := gameTransitions.next(g.State, evFinish)
	if !ok {
		return GameOutcome{Game: g}, gameViolation(g, "pick a winner")
	}

	out := GameOutcome{Game: g}
	out.Game.State = next
	if w, ok := Winner(players); ok {
		id := w.ID
		out.Game.WinnerID = &id
	}
	return out, nil
}

// Winner - игрок со строго наибольшим счетом, при равенстве побеждает сидящий раньше.
// Партия без единой сбитой кегли победителя не имеет
func Winner(players []domain.Player) (domain.Player, bool) {
	sorted := append([]domain.Player(nil), players...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Position < sorted[j].Position
	})

	var winner domain.Player
	found := false
	for _, p := range sorted {
		if p.FinalScore > winner.FinalScore {
			winner = p
			found = true
		}
	}
	return winner, found
}
