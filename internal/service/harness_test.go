package service

import (
	"context"
	"testing"
	"time"

	"bowling_engine/internal/bus"
	"bowling_engine/internal/domain"
	"bowling_engine/internal/repository"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type harness struct {
	store   *repository.MemoryStore
	queue   *bus.MemoryQueue
	router  *CommandRouter
	service *BowlingService
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	store := repository.NewMemoryStore()
	queue := bus.NewMemoryQueue(4)
	return &harness{
		store:   store,
		queue:   queue,
		router:  NewCommandRouter(store, queue, bus.NewMemoryDeduper(time.Hour)),
		service: NewBowlingService(store, queue),
	}
}

// drain обрабатывает все, что накопилось в шине, и требует, чтобы отказов не было
func (h *harness) drain(t *testing.T) {
	t.Helper()
	errs := bus.Drain(context.Background(), h.queue, h.router)
	require.Empty(t, errs)
}

// newGame создает партию с игроками и запускает ее
func (h *harness) newGame(t *testing.T, names ...string) string {
	t.Helper()
	ctx := context.Background()

	g, err := h.service.CreateGame(ctx, "test game")
	require.NoError(t, err)
	for _, name := range names {
		_, err := h.service.AddPlayer(ctx, g.Reference, name)
		require.NoError(t, err)
	}
	_, err = h.service.StartGame(ctx, g.Reference)
	require.NoError(t, err)
	h.drain(t)
	return g.Reference
}

// rolls бросает по очереди, дожидаясь обработки каждого броска
func (h *harness) rolls(t *testing.T, reference string, pins ...int) {
	t.Helper()
	for i, p := range pins {
		_, err := h.service.Roll(context.Background(), reference, p)
		require.NoError(t, err, "roll %d (%d pins)", i, p)
		h.drain(t)
	}
}

func (h *harness) board(t *testing.T, reference string) *Scoreboard {
	t.Helper()
	b, err := h.service.Scoreboard(context.Background(), reference)
	require.NoError(t, err)
	return b
}

func repeat(pattern []int, n int) []int {
	var out []int
	for i := 0; i < n; i++ {
		out = append(out, pattern...)
	}
	return out
}

// MockPublisher - шина, которую можно заставить падать
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, cmds ...domain.Command) error {
	args := m.Called(ctx, cmds)
	return args.Error(0)
}
