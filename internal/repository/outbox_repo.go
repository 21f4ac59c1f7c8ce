package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"bowling_engine/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// отвечает за таблицу outbox - команды, ожидающие публикации в шину
type OutboxRepository struct {
	db *pgxpool.Pool
}

func NewOutboxRepository(db *pgxpool.Pool) *OutboxRepository {
	return &OutboxRepository{db: db}
}

// записывает команды внутри транзакции, в которой они порождены
func (r *OutboxRepository) CreateWithTx(ctx context.Context, tx pgx.Tx, cmds []domain.Command) error {
	if len(cmds) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, cmd := range cmds {
		payload, err := json.Marshal(cmd)
		if err != nil {
			return fmt.Errorf("marshal command %s: %w", cmd.ID, err)
		}
		batch.Queue(`
			INSERT INTO outbox (message_id, game_id, payload)
			VALUES ($1, $2, $3)
		`, cmd.ID, cmd.GameID, payload)
	}

	br := tx.SendBatch(ctx, batch)
	for range cmds {
		if _, err := br.Exec(); err != nil {
			_ = br.Close()
			return mapError(err, "outbox")
		}
	}
	return br.Close()
}

// возвращает неотправленные команды старше before в порядке записи.
// id растет вместе с порядком Emit, поэтому порядок внутри партии сохраняется
func (r *OutboxRepository) GetPending(ctx context.Context, before time.Time, limit int) ([]domain.Command, error) {
	rows, err := r.db.Query(ctx, `
		SELECT payload
		FROM outbox
		WHERE dispatched_at IS NULL AND created_at < $1
		ORDER BY id ASC
		LIMIT $2
	`, before, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cmds []domain.Command
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		var cmd domain.Command
		if err := json.Unmarshal(payload, &cmd); err != nil {
			return nil, fmt.Errorf("unmarshal outbox payload: %w", err)
		}
		cmds = append(cmds, cmd)
	}
	return cmds, rows.Err()
}

// помечает команды отправленными
func (r *OutboxRepository) MarkDispatched(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := r.db.Exec(ctx, `
		UPDATE outbox
		SET dispatched_at = now()
		WHERE message_id = ANY($1) AND dispatched_at IS NULL
	`, ids)
	return err
}
