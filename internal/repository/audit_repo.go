package repository

import (
	"context"
	"encoding/json"

	"bowling_engine/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// отвечает за журнал обработанных команд
type AuditRepository struct {
	db *pgxpool.Pool
}

// создает новый репозиторий журнала
func NewAuditRepository(db *pgxpool.Pool) *AuditRepository {
	return &AuditRepository{db: db}
}

// добавляет запись в журнал внутри транзакции
func (r *AuditRepository) CreateWithTx(ctx context.Context, tx pgx.Tx, log *domain.AuditLog) error {
	detailsJSON, err := json.Marshal(log.Details)
	if err != nil || log.Details == nil {
		detailsJSON = []byte("{}")
	}

	return tx.QueryRow(ctx, `
		INSERT INTO audit_logs (game_id, message_id, action, category, target_id, outcome, details)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`, log.GameID, log.MessageID, log.Action, log.Category, log.TargetID, log.Outcome, detailsJSON).Scan(&log.ID, &log.CreatedAt)
}

// возвращает журнал партии, самые свежие записи первыми
func (r *AuditRepository) GetByGameID(ctx context.Context, gameID int64, limit int) ([]*domain.AuditLog, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, game_id, message_id, action, category, target_id, outcome, details, created_at
		FROM audit_logs
		WHERE game_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`, gameID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanAuditLogs(rows)
}

// преобразует строки из БД в структуры AuditLog
func scanAuditLogs(rows pgx.Rows) ([]*domain.AuditLog, error) {
	var logs []*domain.AuditLog
	for rows.Next() {
		var log domain.AuditLog
		var detailsJSON []byte
		if err := rows.Scan(&log.ID, &log.GameID, &log.MessageID, &log.Action, &log.Category, &log.TargetID, &log.Outcome, &detailsJSON, &log.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(detailsJSON, &log.Details); err != nil {
			log.Details = make(map[string]interface{})
		}
		logs = append(logs, &log)
	}
	return logs, rows.Err()
}
