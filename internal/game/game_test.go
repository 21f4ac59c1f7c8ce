package game

import (
	"testing"

	"bowling_engine/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStart(t *testing.T) {
	g := domain.Game{ID: 5, State: domain.GameStateNew}
	players := []domain.Player{{ID: 1, State: domain.PlayerStateWaiting}}

	out, err := Start(g, players)
	require.NoError(t, err)
	assert.Equal(t, domain.GameStatePlaying, out.Game.State)
	assert.Equal(t, []domain.Command{domain.GameElection(5)}, out.Commands)

	_, err = Start(g, nil)
	var pre *domain.PreconditionError
	assert.ErrorAs(t, err, &pre)

	_, err = Start(out.Game, players)
	var violation *domain.StateViolationError
	assert.ErrorAs(t, err, &violation)
}

func TestReElect(t *testing.T) {
	g := domain.Game{ID: 5, State: domain.GameStatePlaying}

	t.Run("lowest last round first, then seat", func(t *testing.T) {
		players := []domain.Player{
			{ID: 1, Position: 0, LastRound: 2, State: domain.PlayerStateWaiting},
			{ID: 2, Position: 1, LastRound: 1, State: domain.PlayerStateWaiting},
			{ID: 3, Position: 2, LastRound: 1, State: domain.PlayerStateWaiting},
		}
		out, err := ReElect(g, players)
		require.NoError(t, err)
		assert.Equal(t, []domain.Command{domain.PlayerSelect(2)}, out.Commands)
		assert.Equal(t, domain.GameStatePlaying, out.Game.State)
	})

	t.Run("no-op while someone is playing", func(t *testing.T) {
		players := []domain.Player{
			{ID: 1, State: domain.PlayerStatePlaying},
			{ID: 2, State: domain.PlayerStateWaiting},
		}
		out, err := ReElect(g, players)
		require.NoError(t, err)
		assert.Empty(t, out.Commands)
		assert.Equal(t, g, out.Game)
	})

	t.Run("everyone finished", func(t *testing.T) {
		players := []domain.Player{
			{ID: 1, State: domain.PlayerStateFinished},
			{ID: 2, State: domain.PlayerStateFinished},
		}
		out, err := ReElect(g, players)
		require.NoError(t, err)
		assert.Equal(t, domain.GameStatePlayersFinished, out.Game.State)
		assert.Equal(t, []domain.Command{domain.GameElection(5)}, out.Commands)
	})

	t.Run("game not playing", func(t *testing.T) {
		_, err := ReElect(domain.Game{State: domain.GameStateFinished}, nil)
		var violation *domain.StateViolationError
		assert.ErrorAs(t, err, &violation)
	})
}

func TestFinishPlayers(t *testing.T) {
	g := domain.Game{ID: 5, State: domain.GameStatePlayersFinished}

	t.Run("highest score wins", func(t *testing.T) {
		players := []domain.Player{
			{ID: 1, Position: 0, FinalScore: 20},
			{ID: 2, Position: 1, FinalScore: 40},
		}
		out, err := FinishPlayers(g, players)
		require.NoError(t, err)
		assert.Equal(t, domain.GameStateFinished, out.Game.State)
		require.NotNil(t, out.Game.WinnerID)
		assert.Equal(t, int64(2), *out.Game.WinnerID)
	})

	t.Run("tie goes to the earlier seat", func(t *testing.T) {
		players := []domain.Player{
			{ID: 8, Position: 1, FinalScore: 90},
			{ID: 4, Position: 0, FinalScore: 90},
		}
		out, err := FinishPlayers(g, players)
		require.NoError(t, err)
		require.NotNil(t, out.Game.WinnerID)
		assert.Equal(t, int64(4), *out.Game.WinnerID)
	})

	t.Run("gutter game has no winner", func(t *testing.T) {
		out, err := FinishPlayers(g, []domain.Player{{ID: 1}, {ID: 2, Position: 1}})
		require.NoError(t, err)
		assert.Equal(t, domain.GameStateFinished, out.Game.State)
		assert.Nil(t, out.Game.WinnerID)
	})

	t.Run("only from players_finished", func(t *testing.T) {
		_, err := FinishPlayers(domain.Game{State: domain.GameStatePlaying}, nil)
		var violation *domain.StateViolationError
		assert.ErrorAs(t, err, &violation)
	})
}
