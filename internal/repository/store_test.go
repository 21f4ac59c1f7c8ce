package repository_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"bowling_engine/internal/domain"
	"bowling_engine/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testStore прогоняет одни и те же проверки для любой реализации Store
func testStore(t *testing.T, store repository.Store) {
	ctx := context.Background()

	var game domain.Game
	var alice, bob domain.Player

	t.Run("CreateGameWithPlayers", func(t *testing.T) {
		game = domain.Game{Name: "league night", Reference: uuid.NewString(), State: domain.GameStateNew}
		err := store.InTx(ctx, func(tx repository.Tx) error {
			if err := tx.SaveGame(ctx, &game); err != nil {
				return err
			}
			alice = domain.Player{GameID: game.ID, Name: "alice", State: domain.PlayerStateWaiting, Position: 0}
			bob = domain.Player{GameID: game.ID, Name: "bob", State: domain.PlayerStateWaiting, Position: 1}
			if err := tx.SavePlayer(ctx, &bob); err != nil {
				return err
			}
			return tx.SavePlayer(ctx, &alice)
		})
		require.NoError(t, err)
		assert.NotZero(t, game.ID)
		assert.NotZero(t, alice.ID)

		got, err := store.GetGameByReference(ctx, game.Reference)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, game.ID, got.ID)
		assert.Equal(t, domain.GameStateNew, got.State)
		assert.Nil(t, got.WinnerID)

		players, err := store.GetPlayers(ctx, game.ID)
		require.NoError(t, err)
		require.Len(t, players, 2)
		assert.Equal(t, "alice", players[0].Name)
		assert.Equal(t, "bob", players[1].Name)
	})

	t.Run("MissingReference", func(t *testing.T) {
		got, err := store.GetGameByReference(ctx, uuid.NewString())
		assert.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("DuplicateReference", func(t *testing.T) {
		err := store.InTx(ctx, func(tx repository.Tx) error {
			g := domain.Game{Name: "copy", Reference: game.Reference, State: domain.GameStateNew}
			return tx.SaveGame(ctx, &g)
		})
		var conflict *domain.ConflictError
		assert.ErrorAs(t, err, &conflict)
	})

	t.Run("DuplicatePosition", func(t *testing.T) {
		err := store.InTx(ctx, func(tx repository.Tx) error {
			p := domain.Player{GameID: game.ID, Name: "carol", State: domain.PlayerStateWaiting, Position: 1}
			return tx.SavePlayer(ctx, &p)
		})
		var conflict *domain.ConflictError
		assert.ErrorAs(t, err, &conflict)
	})

	t.Run("LoadMissing", func(t *testing.T) {
		err := store.InTx(ctx, func(tx repository.Tx) error {
			_, err := tx.LoadFrame(ctx, 987654321)
			return err
		})
		var nf *domain.NotFoundError
		require.ErrorAs(t, err, &nf)
		assert.Equal(t, "frame", nf.Kind)
	})

	t.Run("RollbackOnError", func(t *testing.T) {
		boom := errors.New("boom")
		err := store.InTx(ctx, func(tx repository.Tx) error {
			g, err := tx.LoadGame(ctx, game.ID)
			if err != nil {
				return err
			}
			g.State = domain.GameStatePlaying
			if err := tx.SaveGame(ctx, &g); err != nil {
				return err
			}
			if err := tx.Emit(ctx, domain.Command{ID: uuid.NewString(), Kind: domain.CommandGameElection, GameID: game.ID, TargetID: game.ID}); err != nil {
				return err
			}
			return boom
		})
		assert.ErrorIs(t, err, boom)

		got, err := store.GetGameByReference(ctx, game.Reference)
		require.NoError(t, err)
		assert.Equal(t, domain.GameStateNew, got.State)
	})

	t.Run("FramesAndPendingBonus", func(t *testing.T) {
		err := store.InTx(ctx, func(tx repository.Tx) error {
			frames := []domain.Frame{
				{PlayerID: alice.ID, Round: 3, State: domain.FrameStateNew},
				{PlayerID: alice.ID, Round: 1, State: domain.FrameStateWaitScore, ScoreWait: 1, Roll1: 10, Score: 10},
				{PlayerID: alice.ID, Round: 2, State: domain.FrameStateWaitScore, ScoreWait: 2, Roll1: 10, Score: 10},
				{PlayerID: bob.ID, Round: 1, State: domain.FrameStateWaitScore, ScoreWait: 2, Roll1: 10, Score: 10},
			}
			for i := range frames {
				if err := tx.SaveFrame(ctx, &frames[i]); err != nil {
					return err
				}
			}
			return nil
		})
		require.NoError(t, err)

		frames, err := store.GetFrames(ctx, alice.ID)
		require.NoError(t, err)
		require.Len(t, frames, 3)
		for i, f := range frames {
			assert.Equal(t, i+1, f.Round)
		}

		err = store.InTx(ctx, func(tx repository.Tx) error {
			pending, err := tx.PendingBonusFrames(ctx, alice.ID, 3)
			if err != nil {
				return err
			}
			assert.Len(t, pending, 2)

			pending, err = tx.PendingBonusFrames(ctx, alice.ID, 2)
			if err != nil {
				return err
			}
			require.Len(t, pending, 1)
			assert.Equal(t, 1, pending[0].Round)
			return nil
		})
		require.NoError(t, err)
	})

	t.Run("DuplicateRound", func(t *testing.T) {
		err := store.InTx(ctx, func(tx repository.Tx) error {
			f := domain.Frame{PlayerID: alice.ID, Round: 1, State: domain.FrameStateNew}
			return tx.SaveFrame(ctx, &f)
		})
		var conflict *domain.ConflictError
		assert.ErrorAs(t, err, &conflict)
	})

	t.Run("UpdateWithinTx", func(t *testing.T) {
		err := store.InTx(ctx, func(tx repository.Tx) error {
			p, err := tx.LoadPlayer(ctx, alice.ID)
			if err != nil {
				return err
			}
			p.State = domain.PlayerStatePlaying
			p.FinalScore = 30
			p.LastRound = 2
			if err := tx.SavePlayer(ctx, &p); err != nil {
				return err
			}

			// запись видна внутри той же транзакции
			players, err := tx.Players(ctx, game.ID)
			if err != nil {
				return err
			}
			assert.Equal(t, domain.PlayerStatePlaying, players[0].State)
			return nil
		})
		require.NoError(t, err)

		players, err := store.GetPlayers(ctx, game.ID)
		require.NoError(t, err)
		assert.Equal(t, 30, players[0].FinalScore)
		assert.Equal(t, 2, players[0].LastRound)
	})

	t.Run("Winner", func(t *testing.T) {
		err := store.InTx(ctx, func(tx repository.Tx) error {
			g, err := tx.LoadGame(ctx, game.ID)
			if err != nil {
				return err
			}
			g.WinnerID = &bob.ID
			g.State = domain.GameStateFinished
			return tx.SaveGame(ctx, &g)
		})
		require.NoError(t, err)

		got, err := store.GetGameByReference(ctx, game.Reference)
		require.NoError(t, err)
		require.NotNil(t, got.WinnerID)
		assert.Equal(t, bob.ID, *got.WinnerID)
	})

	t.Run("Outbox", func(t *testing.T) {
		first := domain.Command{ID: uuid.NewString(), Kind: domain.CommandRoll, GameID: game.ID, TargetID: 1, Pins: 7}
		second := domain.Command{ID: uuid.NewString(), Kind: domain.CommandPlayerTurn, GameID: game.ID, TargetID: alice.ID, NextRound: 2}
		err := store.InTx(ctx, func(tx repository.Tx) error {
			return tx.Emit(ctx, first, second)
		})
		require.NoError(t, err)

		pending, err := store.PendingOutbox(ctx, time.Now().Add(time.Minute), 100)
		require.NoError(t, err)
		assert.Contains(t, pending, first)
		assert.Contains(t, pending, second)

		older, err := store.PendingOutbox(ctx, time.Now().Add(-time.Hour), 100)
		require.NoError(t, err)
		assert.NotContains(t, older, first)

		require.NoError(t, store.MarkDispatched(ctx, []string{first.ID}))
		pending, err = store.PendingOutbox(ctx, time.Now().Add(time.Minute), 100)
		require.NoError(t, err)
		assert.NotContains(t, pending, first)
		assert.Contains(t, pending, second)

		require.NoError(t, store.MarkDispatched(ctx, []string{second.ID}))
	})

	t.Run("Audit", func(t *testing.T) {
		err := store.InTx(ctx, func(tx repository.Tx) error {
			for _, outcome := range []string{domain.AuditOutcomeApplied, domain.AuditOutcomeRejected} {
				log := &domain.AuditLog{
					GameID:    game.ID,
					MessageID: uuid.NewString(),
					Action:    domain.CommandRoll,
					Category:  domain.AuditCategoryFrame,
					TargetID:  1,
					Outcome:   outcome,
					Details:   map[string]interface{}{"pins": 4},
				}
				if err := tx.Audit(ctx, log); err != nil {
					return err
				}
				assert.NotZero(t, log.ID)
			}
			return nil
		})
		require.NoError(t, err)

		logs, err := store.GetAuditLogs(ctx, game.ID, 10)
		require.NoError(t, err)
		require.Len(t, logs, 2)
		assert.Equal(t, domain.AuditOutcomeRejected, logs[0].Outcome)
		assert.Equal(t, domain.AuditOutcomeApplied, logs[1].Outcome)
		assert.EqualValues(t, 4, logs[0].Details["pins"])

		logs, err = store.GetAuditLogs(ctx, game.ID, 1)
		require.NoError(t, err)
		assert.Len(t, logs, 1)
	})
}
