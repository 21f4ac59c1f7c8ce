package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"bowling_engine/internal/domain"
)

type outboxEntry struct {
	cmd       domain.Command
	createdAt time.Time
}

// MemoryStore - хранилище в памяти процесса. Транзакции сериализуются одним
// мьютексом, изменения копятся в транзакции и применяются только при коммите
type MemoryStore struct {
	mu      sync.RWMutex
	seq     int64
	games   map[int64]domain.Game
	players map[int64]domain.Player
	frames  map[int64]domain.Frame
	outbox  []outboxEntry
	audit   []*domain.AuditLog
}

// создает пустое хранилище в памяти
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		games:   make(map[int64]domain.Game),
		players: make(map[int64]domain.Player),
		frames:  make(map[int64]domain.Frame),
	}
}

func (s *MemoryStore) InTx(ctx context.Context, fn func(tx Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &memoryTx{
		s:       s,
		games:   make(map[int64]domain.Game),
		players: make(map[int64]domain.Player),
		frames:  make(map[int64]domain.Frame),
	}
	if err := fn(tx); err != nil {
		return err
	}

	// коммит
	for id, g := range tx.games {
		s.games[id] = g
	}
	for id, p := range tx.players {
		s.players[id] = p
	}
	for id, f := range tx.frames {
		s.frames[id] = f
	}
	now := time.Now()
	for _, cmd := range tx.outbox {
		s.outbox = append(s.outbox, outboxEntry{cmd: cmd, createdAt: now})
	}
	s.audit = append(s.audit, tx.audit...)
	return nil
}

func (s *MemoryStore) PendingOutbox(ctx context.Context, before time.Time, limit int) ([]domain.Command, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.Command
	for _, e := range s.outbox {
		if !e.createdAt.Before(before) {
			continue
		}
		out = append(out, e.cmd)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *MemoryStore) MarkDispatched(ctx context.Context, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	// отправленные записи больше не нужны
	kept := s.outbox[:0]
	for _, e := range s.outbox {
		if _, ok := set[e.cmd.ID]; ok {
			continue
		}
		kept = append(kept, e)
	}
	s.outbox = kept
	return nil
}

func (s *MemoryStore) GetGameByReference(ctx context.Context, reference string) (*domain.Game, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, g := range s.games {
		if g.Reference == reference {
			g := cloneGame(g)
			return &g, nil
		}
	}
	return nil, nil
}

func (s *MemoryStore) GetPlayers(ctx context.Context, gameID int64) ([]domain.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return collectPlayers(s.players, nil, gameID), nil
}

func (s *MemoryStore) GetFrames(ctx context.Context, playerID int64) ([]domain.Frame, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return collectFrames(s.frames, nil, playerID), nil
}

func (s *MemoryStore) GetAuditLogs(ctx context.Context, gameID int64, limit int) ([]*domain.AuditLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.AuditLog
	for i := len(s.audit) - 1; i >= 0; i-- {
		if s.audit[i].GameID != gameID {
			continue
		}
		l := *s.audit[i]
		out = append(out, &l)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

type memoryTx struct {
	s       *MemoryStore
	games   map[int64]domain.Game
	players map[int64]domain.Player
	frames  map[int64]domain.Frame
	outbox  []domain.Command
	audit   []*domain.AuditLog
}

func (tx *memoryTx) nextID() int64 {
	tx.s.seq++
	return tx.s.seq
}

func (tx *memoryTx) LoadGame(ctx context.Context, id int64) (domain.Game, error) {
	if g, ok := tx.games[id]; ok {
		return cloneGame(g), nil
	}
	if g, ok := tx.s.games[id]; ok {
		return cloneGame(g), nil
	}
	return domain.Game{}, &domain.NotFoundError{Kind: "game", ID: id}
}

func (tx *memoryTx) LoadPlayer(ctx context.Context, id int64) (domain.Player, error) {
	if p, ok := tx.players[id]; ok {
		return p, nil
	}
	if p, ok := tx.s.players[id]; ok {
		return p, nil
	}
	return domain.Player{}, &domain.NotFoundError{Kind: "player", ID: id}
}

func (tx *memoryTx) LoadFrame(ctx context.Context, id int64) (domain.Frame, error) {
	if f, ok := tx.frames[id]; ok {
		return f, nil
	}
	if f, ok := tx.s.frames[id]; ok {
		return f, nil
	}
	return domain.Frame{}, &domain.NotFoundError{Kind: "frame", ID: id}
}

func (tx *memoryTx) Players(ctx context.Context, gameID int64) ([]domain.Player, error) {
	return collectPlayers(tx.s.players, tx.players, gameID), nil
}

func (tx *memoryTx) Frames(ctx context.Context, playerID int64) ([]domain.Frame, error) {
	return collectFrames(tx.s.frames, tx.frames, playerID), nil
}

func (tx *memoryTx) PendingBonusFrames(ctx context.Context, playerID int64, belowRound int) ([]domain.Frame, error) {
	var out []domain.Frame
	for _, f := range collectFrames(tx.s.frames, tx.frames, playerID) {
		if f.Round < belowRound && f.State == domain.FrameStateWaitScore && f.ScoreWait > 0 {
			out = append(out, f)
		}
	}
	return out, nil
}

func (tx *memoryTx) SaveGame(ctx context.Context, g *domain.Game) error {
	if g.ID == 0 {
		for _, other := range mergeGames(tx.s.games, tx.games) {
			if other.Reference == g.Reference {
				return &domain.ConflictError{Kind: "game", Detail: "reference " + g.Reference + " already exists"}
			}
		}
		g.ID = tx.nextID()
		g.CreatedAt = time.Now()
	} else if _, err := tx.LoadGame(ctx, g.ID); err != nil {
		return err
	}
	tx.games[g.ID] = cloneGame(*g)
	return nil
}

func (tx *memoryTx) SavePlayer(ctx context.Context, p *domain.Player) error {
	if p.ID == 0 {
		for _, other := range collectPlayers(tx.s.players, tx.players, p.GameID) {
			if other.Position == p.Position {
				return &domain.ConflictError{Kind: "player", Detail: fmt.Sprintf("position %d already taken in game %d", p.Position, p.GameID)}
			}
		}
		p.ID = tx.nextID()
	} else if _, err := tx.LoadPlayer(ctx, p.ID); err != nil {
		return err
	}
	tx.players[p.ID] = *p
	return nil
}

func (tx *memoryTx) SaveFrame(ctx context.Context, f *domain.Frame) error {
	if f.ID == 0 {
		for _, other := range collectFrames(tx.s.frames, tx.frames, f.PlayerID) {
			if other.Round == f.Round {
				return &domain.ConflictError{Kind: "frame", Detail: fmt.Sprintf("round %d already exists for player %d", f.Round, f.PlayerID)}
			}
		}
		f.ID = tx.nextID()
	} else if _, err := tx.LoadFrame(ctx, f.ID); err != nil {
		return err
	}
	tx.frames[f.ID] = *f
	return nil
}

func (tx *memoryTx) Emit(ctx context.Context, cmds ...domain.Command) error {
	tx.outbox = append(tx.outbox, cmds...)
	return nil
}

func (tx *memoryTx) Audit(ctx context.Context, log *domain.AuditLog) error {
	l := *log
	l.ID = tx.nextID()
	l.CreatedAt = time.Now()
	tx.audit = append(tx.audit, &l)
	log.ID = l.ID
	return nil
}

func cloneGame(g domain.Game) domain.Game {
	if g.WinnerID != nil {
		id := *g.WinnerID
		g.WinnerID = &id
	}
	return g
}

func mergeGames(base, staged map[int64]domain.Game) map[int64]domain.Game {
	out := make(map[int64]domain.Game, len(base)+len(staged))
	for id, g := range base {
		out[id] = g
	}
	for id, g := range staged {
		out[id] = g
	}
	return out
}

func collectPlayers(base, staged map[int64]domain.Player, gameID int64) []domain.Player {
	var out []domain.Player
	for id, p := range base {
		if _, ok := staged[id]; ok {
			continue
		}
		if p.GameID == gameID {
			out = append(out, p)
		}
	}
	for _, p := range staged {
		if p.GameID == gameID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out
}

func collectFrames(base, staged map[int64]domain.Frame, playerID int64) []domain.Frame {
	var out []domain.Frame
	for id, f := range base {
		if _, ok := staged[id]; ok {
			continue
		}
		if f.PlayerID == playerID {
			out = append(out, f)
		}
	}
	for _, f := range staged {
		if f.PlayerID == playerID {
			out = append(out, f)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Round < out[j].Round })
	return out
}
