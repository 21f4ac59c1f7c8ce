package domain

import "time"

// Журнал обработанных команд. Одна запись на каждую доставку
type AuditLog struct {
	ID        int64                  `db:"id" json:"id"`
	GameID    int64                  `db:"game_id" json:"game_id"`
	MessageID string                 `db:"message_id" json:"message_id"`
	Action    CommandKind            `db:"action" json:"action"`
	Category  string                 `db:"category" json:"category"`
	TargetID  int64                  `db:"target_id" json:"target_id"`
	Outcome   string                 `db:"outcome" json:"outcome"`
	Details   map[string]interface{} `db:"details" json:"details"`
	CreatedAt time.Time              `db:"created_at" json:"created_at"`
}

// Категории - к какой сущности относится команда
const (
	AuditCategoryFrame  = "frame"
	AuditCategoryPlayer = "player"
	AuditCategoryGame   = "game"
)

// Результат обработки
const (
	AuditOutcomeApplied  = "applied"
	AuditOutcomeRejected = "rejected"
)

// AuditCategory возвращает категорию для типа команды
func AuditCategory(kind CommandKind) string {
	switch kind {
	case CommandRoll, CommandPropagation:
		return AuditCategoryFrame
	case CommandPlayerSelect, CommandPlayerTurn:
		return AuditCategoryPlayer
	default:
		return AuditCategoryGame
	}
}
