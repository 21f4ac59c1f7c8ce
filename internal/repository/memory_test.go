package repository_test

import (
	"context"
	"sync"
	"testing"

	"bowling_engine/internal/domain"
	"bowling_engine/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	testStore(t, repository.NewMemoryStore())
}

func TestMemoryStoreConcurrentTx(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()

	g := domain.Game{Name: "race", Reference: "race", State: domain.GameStatePlaying}
	p := domain.Player{Name: "p", State: domain.PlayerStatePlaying}
	require.NoError(t, store.InTx(ctx, func(tx repository.Tx) error {
		if err := tx.SaveGame(ctx, &g); err != nil {
			return err
		}
		p.GameID = g.ID
		return tx.SavePlayer(ctx, &p)
	}))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = store.InTx(ctx, func(tx repository.Tx) error {
				cur, err := tx.LoadPlayer(ctx, p.ID)
				if err != nil {
					return err
				}
				cur.FinalScore++
				return tx.SavePlayer(ctx, &cur)
			})
		}()
	}
	wg.Wait()

	players, err := store.GetPlayers(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, 50, players[0].FinalScore)
}

func TestMemoryStoreCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := repository.NewMemoryStore().InTx(ctx, func(tx repository.Tx) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
}
