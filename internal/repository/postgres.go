package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bowling_engine/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// общий интерфейс для пула и транзакции
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore - хранилище поверх postgres. Каждая транзакция берет
// блокировки строк через SELECT ... FOR UPDATE
type PostgresStore struct {
	db      *pgxpool.Pool
	games   *GameRepository
	players *PlayerRepository
	frames  *FrameRepository
	outbox  *OutboxRepository
	audit   *AuditRepository
}

// создает хранилище поверх пула
func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{
		db:      db,
		games:   NewGameRepository(db),
		players: NewPlayerRepository(db),
		frames:  NewFrameRepository(db),
		outbox:  NewOutboxRepository(db),
		audit:   NewAuditRepository(db),
	}
}

func (s *PostgresStore) InTx(ctx context.Context, fn func(tx Tx) error) error {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(&postgresTx{s: s, tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return mapError(err, "commit")
	}
	return nil
}

func (s *PostgresStore) PendingOutbox(ctx context.Context, before time.Time, limit int) ([]domain.Command, error) {
	return s.outbox.GetPending(ctx, before, limit)
}

func (s *PostgresStore) MarkDispatched(ctx context.Context, ids []string) error {
	return s.outbox.MarkDispatched(ctx, ids)
}

func (s *PostgresStore) GetGameByReference(ctx context.Context, reference string) (*domain.Game, error) {
	return s.games.GetByReference(ctx, reference)
}

func (s *PostgresStore) GetPlayers(ctx context.Context, gameID int64) ([]domain.Player, error) {
	return s.players.GetByGameID(ctx, s.db, gameID)
}

func (s *PostgresStore) GetFrames(ctx context.Context, playerID int64) ([]domain.Frame, error) {
	return s.frames.GetByPlayerID(ctx, s.db, playerID)
}

func (s *PostgresStore) GetAuditLogs(ctx context.Context, gameID int64, limit int) ([]*domain.AuditLog, error) {
	return s.audit.GetByGameID(ctx, gameID, limit)
}

type postgresTx struct {
	s  *PostgresStore
	tx pgx.Tx
}

func (t *postgresTx) LoadGame(ctx context.Context, id int64) (domain.Game, error) {
	return t.s.games.GetForUpdate(ctx, t.tx, id)
}

func (t *postgresTx) LoadPlayer(ctx context.Context, id int64) (domain.Player, error) {
	return t.s.players.GetForUpdate(ctx, t.tx, id)
}

func (t *postgresTx) LoadFrame(ctx context.Context, id int64) (domain.Frame, error) {
	return t.s.frames.GetForUpdate(ctx, t.tx, id)
}

func (t *postgresTx) Players(ctx context.Context, gameID int64) ([]domain.Player, error) {
	return t.s.players.GetByGameID(ctx, t.tx, gameID)
}

func (t *postgresTx) Frames(ctx context.Context, playerID int64) ([]domain.Frame, error) {
	return t.s.frames.GetByPlayerID(ctx, t.tx, playerID)
}

func (t *postgresTx) PendingBonusFrames(ctx context.Context, playerID int64, belowRound int) ([]domain.Frame, error) {
	return t.s.frames.GetPendingBonus(ctx, t.tx, playerID, belowRound)
}

func (t *postgresTx) SaveGame(ctx context.Context, g *domain.Game) error {
	if g.ID == 0 {
		return t.s.games.CreateWithTx(ctx, t.tx, g)
	}
	return t.s.games.UpdateWithTx(ctx, t.tx, g)
}

func (t *postgresTx) SavePlayer(ctx context.Context, p *domain.Player) error {
	if p.ID == 0 {
		return t.s.players.CreateWithTx(ctx, t.tx, p)
	}
	return t.s.players.UpdateWithTx(ctx, t.tx, p)
}

func (t *postgresTx) SaveFrame(ctx context.Context, f *domain.Frame) error {
	if f.ID == 0 {
		return t.s.frames.CreateWithTx(ctx, t.tx, f)
	}
	return t.s.frames.UpdateWithTx(ctx, t.tx, f)
}

func (t *postgresTx) Emit(ctx context.Context, cmds ...domain.Command) error {
	return t.s.outbox.CreateWithTx(ctx, t.tx, cmds)
}

func (t *postgresTx) Audit(ctx context.Context, log *domain.AuditLog) error {
	return t.s.audit.CreateWithTx(ctx, t.tx, log)
}

// mapError переводит ошибки postgres в доменные
func mapError(err error, kind string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return &domain.ConflictError{Kind: kind, Detail: pgErr.ConstraintName}
	}
	return err
}

func notFound(err error, kind string, id int64) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return &domain.NotFoundError{Kind: kind, ID: id}
	}
	return err
}
