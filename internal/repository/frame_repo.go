package repository

import (
	"context"

	"bowling_engine/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const frameColumns = `id, player_id, round, state, score_wait, roll_1, roll_2, roll_3, score`

type FrameRepository struct {
	db *pgxpool.Pool
}

func NewFrameRepository(db *pgxpool.Pool) *FrameRepository {
	return &FrameRepository{db: db}
}

// получает фрейм и блокирует строку до конца транзакции
func (r *FrameRepository) GetForUpdate(ctx context.Context, tx pgx.Tx, id int64) (domain.Frame, error) {
	f, err := scanFrame(tx.QueryRow(ctx, `
		SELECT `+frameColumns+`
		FROM frames
		WHERE id = $1
		FOR UPDATE
	`, id))
	if err != nil {
		return domain.Frame{}, notFound(err, "frame", id)
	}
	return f, nil
}

// возвращает фреймы игрока по возрастанию раунда
func (r *FrameRepository) GetByPlayerID(ctx context.Context, q querier, playerID int64) ([]domain.Frame, error) {
	rows, err := q.Query(ctx, `
		SELECT `+frameColumns+`
		FROM frames
		WHERE player_id = $1
		ORDER BY round ASC
	`, playerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanFrames(rows)
}

// фреймы ниже раунда, которые еще ждут бонус. Строки блокируются
func (r *FrameRepository) GetPendingBonus(ctx context.Context, tx pgx.Tx, playerID int64, belowRound int) ([]domain.Frame, error) {
	rows, err := tx.Query(ctx, `
		SELECT `+frameColumns+`
		FROM frames
		WHERE player_id = $1 AND round < $2 AND state = $3 AND score_wait > 0
		ORDER BY round ASC
		FOR UPDATE
	`, playerID, belowRound, domain.FrameStateWaitScore)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanFrames(rows)
}

// создает фрейм внутри транзакции
func (r *FrameRepository) CreateWithTx(ctx context.Context, tx pgx.Tx, f *domain.Frame) error {
	err := tx.QueryRow(ctx, `
		INSERT INTO frames (player_id, round, state, score_wait, roll_1, roll_2, roll_3, score)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`, f.PlayerID, f.Round, f.State, f.ScoreWait, f.Roll1, f.Roll2, f.Roll3, f.Score).Scan(&f.ID)
	return mapError(err, "frame")
}

// обновляет фрейм внутри транзакции
func (r *FrameRepository) UpdateWithTx(ctx context.Context, tx pgx.Tx, f *domain.Frame) error {
	tag, err := tx.Exec(ctx, `
		UPDATE frames
		SET state = $2, score_wait = $3, roll_1 = $4, roll_2 = $5, roll_3 = $6, score = $7
		WHERE id = $1
	`, f.ID, f.State, f.ScoreWait, f.Roll1, f.Roll2, f.Roll3, f.Score)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return &domain.NotFoundError{Kind: "frame", ID: f.ID}
	}
	return nil
}

func scanFrame(row pgx.Row) (domain.Frame, error) {
	var f domain.Frame
	err := row.Scan(&f.ID, &f.PlayerID, &f.Round, &f.State, &f.ScoreWait, &f.Roll1, &f.Roll2, &f.Roll3, &f.Score)
	return f, err
}

func scanFrames(rows pgx.Rows) ([]domain.Frame, error) {
	var frames []domain.Frame
	for rows.Next() {
		f, err := scanFrame(rows)
		if err != nil {
			return nil, err
		}
		frames = append(frames, f)
	}
	return frames, rows.Err()
}
