package repository

import (
	"context"
	"errors"

	"bowling_engine/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const gameColumns = `id, name, reference, state, winner_player_id, created_at`

// отвечает за операции с таблицей партий
type GameRepository struct {
	db *pgxpool.Pool
}

func NewGameRepository(db *pgxpool.Pool) *GameRepository {
	return &GameRepository{db: db}
}

// получает партию по публичному токену, nil если не найдена
func (r *GameRepository) GetByReference(ctx context.Context, reference string) (*domain.Game, error) {
	g, err := scanGame(r.db.QueryRow(ctx, `
		SELECT `+gameColumns+`
		FROM games
		WHERE reference = $1
	`, reference))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &g, nil
}

// получает партию и блокирует строку до конца транзакции
func (r *GameRepository) GetForUpdate(ctx context.Context, tx pgx.Tx, id int64) (domain.Game, error) {
	g, err := scanGame(tx.QueryRow(ctx, `
		SELECT `+gameColumns+`
		FROM games
		WHERE id = $1
		FOR UPDATE
	`, id))
	if err != nil {
		return domain.Game{}, notFound(err, "game", id)
	}
	return g, nil
}

// создает партию внутри транзакции
func (r *GameRepository) CreateWithTx(ctx context.Context, tx pgx.Tx, g *domain.Game) error {
	err := tx.QueryRow(ctx, `
		INSERT INTO games (name, reference, state)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`, g.Name, g.Reference, g.State).Scan(&g.ID, &g.CreatedAt)
	return mapError(err, "game")
}

// обновляет состояние и победителя
func (r *GameRepository) UpdateWithTx(ctx context.Context, tx pgx.Tx, g *domain.Game) error {
	tag, err := tx.Exec(ctx, `
		UPDATE games
		SET name = $2, state = $3, winner_player_id = $4
		WHERE id = $1
	`, g.ID, g.Name, g.State, g.WinnerID)
	if err != nil {
		return mapError(err, "game")
	}
	if tag.RowsAffected() == 0 {
		return &domain.NotFoundError{Kind: "game", ID: g.ID}
	}
	return nil
}

func scanGame(row pgx.Row) (domain.Game, error) {
	var g domain.Game
	err := row.Scan(&g.ID, &g.Name, &g.Reference, &g.State, &g.WinnerID, &g.CreatedAt)
	return g, err
}
