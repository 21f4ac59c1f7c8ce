package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bowling_engine/internal/bus"
	"bowling_engine/internal/domain"
	"bowling_engine/internal/game"
	"bowling_engine/internal/logger"
	"bowling_engine/internal/metrics"
	"bowling_engine/internal/repository"
)

// CommandRouter принимает команды шины, загружает целевую сущность и
// применяет к ней переход. Все изменения, порожденные команды и запись
// журнала сохраняются одной транзакцией, публикация идет после коммита
type CommandRouter struct {
	store     repository.Store
	publisher bus.Publisher
	dedup     bus.Deduper
}

func NewCommandRouter(store repository.Store, publisher bus.Publisher, dedup bus.Deduper) *CommandRouter {
	return &CommandRouter{store: store, publisher: publisher, dedup: dedup}
}

// результат одного перехода
type handled struct {
	gameID   int64
	emitted  []domain.Command
	details  map[string]interface{}
	finished *domain.Game
}

func (r *CommandRouter) Handle(ctx context.Context, cmd domain.Command) error {
	started := time.Now()
	if cmd.ID == "" {
		cmd.ID = domain.NewCommandID()
	}
	ctx = logger.ContextWith(ctx, "message_id", cmd.ID, "kind", cmd.Kind, "target_id", cmd.TargetID)
	log := logger.WithContext(ctx)

	fresh, err := r.dedup.Claim(ctx, cmd.ID)
	if err != nil {
		log.Error("dedup claim failed", "error", err)
		metrics.ObserveCommand(string(cmd.Kind), "error", started)
		return err
	}
	if !fresh {
		metrics.DuplicateMessage()
		err := &domain.StateViolationError{Entity: "message", State: "processed", Action: "process " + cmd.ID + " again"}
		r.reject(ctx, cmd, err, started)
		return err
	}

	var res handled
	err = r.store.InTx(ctx, func(tx repository.Tx) error {
		var err error
		res, err = r.dispatch(ctx, tx, cmd)
		if err != nil {
			return err
		}

		for i := range res.emitted {
			res.emitted[i].ID = domain.NewCommandID()
			res.emitted[i].GameID = res.gameID
		}
		if err := tx.Emit(ctx, res.emitted...); err != nil {
			return err
		}

		if res.details == nil {
			res.details = make(map[string]interface{})
		}
		res.details["emitted"] = len(res.emitted)
		return tx.Audit(ctx, &domain.AuditLog{
			GameID:    res.gameID,
			MessageID: cmd.ID,
			Action:    cmd.Kind,
			Category:  domain.AuditCategory(cmd.Kind),
			TargetID:  cmd.TargetID,
			Outcome:   domain.AuditOutcomeApplied,
			Details:   res.details,
		})
	})
	if err != nil {
		if domain.IsRejection(err) {
			r.reject(ctx, cmd, err, started)
			return err
		}
		// сбой инфраструктуры: отпускаем id, чтобы повторная доставка прошла
		if relErr := r.dedup.Release(ctx, cmd.ID); relErr != nil {
			log.Error("dedup release failed", "error", relErr)
		}
		log.Error("command failed", "error", err)
		metrics.ObserveCommand(string(cmd.Kind), "error", started)
		return err
	}

	publish(ctx, r.store, r.publisher, res.emitted)

	if res.finished != nil {
		metrics.GameFinished()
		log.Info("game finished", "game_id", res.finished.ID, "winner_id", res.finished.WinnerID)
	}
	log.Debug("command applied", "emitted", len(res.emitted))
	metrics.ObserveCommand(string(cmd.Kind), domain.AuditOutcomeApplied, started)
	return nil
}

// reject пишет отказ в журнал отдельной транзакцией: основная уже откатилась
func (r *CommandRouter) reject(ctx context.Context, cmd domain.Command, cause error, started time.Time) {
	log := logger.WithContext(ctx)
	log.Warn("command rejected", "error", cause)
	metrics.ObserveCommand(string(cmd.Kind), domain.AuditOutcomeRejected, started)

	err := r.store.InTx(ctx, func(tx repository.Tx) error {
		return tx.Audit(ctx, &domain.AuditLog{
			GameID:    cmd.GameID,
			MessageID: cmd.ID,
			Action:    cmd.Kind,
			Category:  domain.AuditCategory(cmd.Kind),
			TargetID:  cmd.TargetID,
			Outcome:   domain.AuditOutcomeRejected,
			Details:   map[string]interface{}{"error": cause.Error()},
		})
	})
	if err != nil {
		log.Error("failed to journal rejected command", "error", err)
	}
}

func (r *CommandRouter) dispatch(ctx context.Context, tx repository.Tx, cmd domain.Command) (handled, error) {
	switch cmd.Kind {
	case domain.CommandRoll:
		return r.roll(ctx, tx, cmd)
	case domain.CommandPropagation:
		return r.propagate(ctx, tx, cmd)
	case domain.CommandPlayerSelect:
		return r.selectPlayer(ctx, tx, cmd)
	case domain.CommandPlayerTurn:
		return r.endTurn(ctx, tx, cmd)
	case domain.CommandGameElection:
		return r.elect(ctx, tx, cmd)
	}
	return handled{}, &domain.StateViolationError{Entity: "router", State: "any", Action: fmt.Sprintf("handle command kind %q", cmd.Kind)}
}

func (r *CommandRouter) roll(ctx context.Context, tx repository.Tx, cmd domain.Command) (handled, error) {
	f, err := tx.LoadFrame(ctx, cmd.TargetID)
	if err != nil {
		return handled{}, err
	}
	p, err := tx.LoadPlayer(ctx, f.PlayerID)
	if err != nil {
		return handled{}, err
	}
	g, err := tx.LoadGame(ctx, p.GameID)
	if err != nil {
		return handled{}, err
	}
	if g.State != domain.GameStatePlaying {
		return handled{}, &domain.PreconditionError{Reason: "cannot roll while game is not running"}
	}
	if p.State != domain.PlayerStatePlaying {
		return handled{}, &domain.PreconditionError{Reason: "cannot roll for a player who is not at the lane"}
	}

	next, cmds, err := game.ApplyRoll(f, cmd.Pins)
	if err != nil {
		return handled{}, err
	}
	if err := tx.SaveFrame(ctx, &next); err != nil {
		return handled{}, err
	}
	return handled{
		gameID:  g.ID,
		emitted: cmds,
		details: map[string]interface{}{"pins": cmd.Pins, "round": next.Round, "state": next.State, "score": next.Score},
	}, nil
}

func (r *CommandRouter) propagate(ctx context.Context, tx repository.Tx, cmd domain.Command) (handled, error) {
	source, err := tx.LoadFrame(ctx, cmd.TargetID)
	if err != nil {
		return handled{}, err
	}
	p, err := tx.LoadPlayer(ctx, source.PlayerID)
	if err != nil {
		return handled{}, err
	}
	pending, err := tx.PendingBonusFrames(ctx, p.ID, source.Round)
	if err != nil {
		return handled{}, err
	}

	updated, err := game.Propagate(source, cmd.Pins, pending)
	if err != nil {
		return handled{}, err
	}
	credited := make([]int64, 0, len(updated))
	for i := range updated {
		if err := tx.SaveFrame(ctx, &updated[i]); err != nil {
			return handled{}, err
		}
		credited = append(credited, updated[i].ID)
	}
	return handled{
		gameID:  p.GameID,
		details: map[string]interface{}{"pins": cmd.Pins, "credited": credited},
	}, nil
}

func (r *CommandRouter) selectPlayer(ctx context.Context, tx repository.Tx, cmd domain.Command) (handled, error) {
	p, err := tx.LoadPlayer(ctx, cmd.TargetID)
	if err != nil {
		return handled{}, err
	}
	g, err := tx.LoadGame(ctx, p.GameID)
	if err != nil {
		return handled{}, err
	}
	frames, err := tx.Frames(ctx, p.ID)
	if err != nil {
		return handled{}, err
	}

	out, err := game.StartTurn(g, p, len(frames))
	if err != nil {
		return handled{}, err
	}
	return r.savePlayer(ctx, tx, out)
}

func (r *CommandRouter) endTurn(ctx context.Context, tx repository.Tx, cmd domain.Command) (handled, error) {
	p, err := tx.LoadPlayer(ctx, cmd.TargetID)
	if err != nil {
		return handled{}, err
	}
	g, err := tx.LoadGame(ctx, p.GameID)
	if err != nil {
		return handled{}, err
	}
	frames, err := tx.Frames(ctx, p.ID)
	if err != nil {
		return handled{}, err
	}

	out, err := game.EndTurn(g, p, frames, cmd.NextRound)
	if err != nil {
		return handled{}, err
	}
	return r.savePlayer(ctx, tx, out)
}

func (r *CommandRouter) savePlayer(ctx context.Context, tx repository.Tx, out game.PlayerOutcome) (handled, error) {
	if err := tx.SavePlayer(ctx, &out.Player); err != nil {
		return handled{}, err
	}
	details := map[string]interface{}{"state": out.Player.State, "final_score": out.Player.FinalScore}
	if out.NewFrame != nil {
		if err := tx.SaveFrame(ctx, out.NewFrame); err != nil {
			return handled{}, err
		}
		details["new_round"] = out.NewFrame.Round
	}
	return handled{gameID: out.Player.GameID, emitted: out.Commands, details: details}, nil
}

func (r *CommandRouter) elect(ctx context.Context, tx repository.Tx, cmd domain.Command) (handled, error) {
	g, err := tx.LoadGame(ctx, cmd.TargetID)
	if err != nil {
		return handled{}, err
	}
	players, err := tx.Players(ctx, g.ID)
	if err != nil {
		return handled{}, err
	}

	var out game.GameOutcome
	switch g.State {
	case domain.GameStateNew:
		out, err = game.Start(g, players)
	case domain.GameStatePlaying:
		out, err = game.ReElect(g, players)
	default:
		out, err = game.FinishPlayers(g, players)
	}
	if err != nil {
		return handled{}, err
	}

	res := handled{
		gameID:  g.ID,
		emitted: out.Commands,
		details: map[string]interface{}{"from": g.State, "to": out.Game.State},
	}
	if out.Game.State != g.State || !sameWinner(out.Game.WinnerID, g.WinnerID) {
		if err := tx.SaveGame(ctx, &out.Game); err != nil {
			return handled{}, err
		}
	}
	if out.Game.State == domain.GameStateFinished {
		res.finished = &out.Game
		if out.Game.WinnerID != nil {
			res.details["winner_id"] = *out.Game.WinnerID
		}
	}
	return res, nil
}

func sameWinner(a, b *int64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// publish отправляет закоммиченные команды в шину и помечает их в outbox.
// При сбое команды остаются в outbox и их переотправит ретранслятор
func publish(ctx context.Context, store repository.Store, publisher bus.Publisher, cmds []domain.Command) {
	if len(cmds) == 0 {
		return
	}
	log := logger.WithContext(ctx)
	if err := publisher.Publish(ctx, cmds...); err != nil {
		if !errors.Is(err, context.Canceled) {
			log.Warn("publish failed, left in outbox", "error", err, "count", len(cmds))
		}
		return
	}

	ids := make([]string, len(cmds))
	for i, c := range cmds {
		ids[i] = c.ID
	}
	if err := store.MarkDispatched(ctx, ids); err != nil {
		log.Warn("failed to mark outbox dispatched", "error", err)
	}
}
