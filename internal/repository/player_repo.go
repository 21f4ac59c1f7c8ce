package repository

import (
	"context"

	"bowling_engine/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const playerColumns = `id, game_id, name, state, final_score, position, last_round`

type PlayerRepository struct {
	db *pgxpool.Pool
}

func NewPlayerRepository(db *pgxpool.Pool) *PlayerRepository {
	return &PlayerRepository{db: db}
}

// получает игрока и блокирует строку до конца транзакции
func (r *PlayerRepository) GetForUpdate(ctx context.Context, tx pgx.Tx, id int64) (domain.Player, error) {
	var p domain.Player
	err := tx.QueryRow(ctx, `
		SELECT `+playerColumns+`
		FROM players
		WHERE id = $1
		FOR UPDATE
	`, id).Scan(&p.ID, &p.GameID, &p.Name, &p.State, &p.FinalScore, &p.Position, &p.LastRound)
	if err != nil {
		return domain.Player{}, notFound(err, "player", id)
	}
	return p, nil
}

// возвращает игроков партии в порядке рассадки
func (r *PlayerRepository) GetByGameID(ctx context.Context, q querier, gameID int64) ([]domain.Player, error) {
	rows, err := q.Query(ctx, `
		SELECT `+playerColumns+`
		FROM players
		WHERE game_id = $1
		ORDER BY position ASC
	`, gameID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var players []domain.Player
	for rows.Next() {
		var p domain.Player
		if err := rows.Scan(&p.ID, &p.GameID, &p.Name, &p.State, &p.FinalScore, &p.Position, &p.LastRound); err != nil {
			return nil, err
		}
		players = append(players, p)
	}
	return players, rows.Err()
}

// добавляет игрока внутри транзакции
func (r *PlayerRepository) CreateWithTx(ctx context.Context, tx pgx.Tx, p *domain.Player) error {
	err := tx.QueryRow(ctx, `
		INSERT INTO players (game_id, name, state, final_score, position, last_round)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`, p.GameID, p.Name, p.State, p.FinalScore, p.Position, p.LastRound).Scan(&p.ID)
	return mapError(err, "player")
}

// обновляет изменяемые поля игрока. position не трогаем - он задается один раз
func (r *PlayerRepository) UpdateWithTx(ctx context.Context, tx pgx.Tx, p *domain.Player) error {
	tag, err := tx.Exec(ctx, `
		UPDATE players
		SET state = $2, final_score = $3, last_round = $4
		WHERE id = $1
	`, p.ID, p.State, p.FinalScore, p.LastRound)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return &domain.NotFoundError{Kind: "player", ID: p.ID}
	}
	return nil
}
