package repository

import (
	"context"
	"time"

	"bowling_engine/internal/domain"
)

// Store - хранилище снимков партий, игроков и фреймов.
// Все изменения делаются внутри InTx: либо коммитятся целиком, либо не видны никому
type Store interface {
	InTx(ctx context.Context, fn func(tx Tx) error) error

	// PendingOutbox возвращает неотправленные команды outbox, записанные раньше before
	PendingOutbox(ctx context.Context, before time.Time, limit int) ([]domain.Command, error)
	// MarkDispatched помечает команды outbox как отправленные
	MarkDispatched(ctx context.Context, ids []string) error

	// GetGameByReference и остальные методы чтения работают вне транзакции
	GetGameByReference(ctx context.Context, reference string) (*domain.Game, error)
	GetPlayers(ctx context.Context, gameID int64) ([]domain.Player, error)
	GetFrames(ctx context.Context, playerID int64) ([]domain.Frame, error)
	GetAuditLogs(ctx context.Context, gameID int64, limit int) ([]*domain.AuditLog, error)
}

// Tx - единица работы над хранилищем. Load* блокирует строку до конца транзакции
type Tx interface {
	LoadGame(ctx context.Context, id int64) (domain.Game, error)
	LoadPlayer(ctx context.Context, id int64) (domain.Player, error)
	LoadFrame(ctx context.Context, id int64) (domain.Frame, error)

	// Players возвращает игроков партии по возрастанию позиции
	Players(ctx context.Context, gameID int64) ([]domain.Player, error)
	// Frames возвращает фреймы игрока по возрастанию раунда
	Frames(ctx context.Context, playerID int64) ([]domain.Frame, error)
	// PendingBonusFrames - фреймы игрока ниже раунда belowRound, ожидающие бонус
	PendingBonusFrames(ctx context.Context, playerID int64, belowRound int) ([]domain.Frame, error)

	// Save* вставляет сущность с нулевым ID и проставляет ей ID, иначе обновляет
	SaveGame(ctx context.Context, g *domain.Game) error
	SavePlayer(ctx context.Context, p *domain.Player) error
	SaveFrame(ctx context.Context, f *domain.Frame) error

	// Emit записывает команды в outbox в той же транзакции
	Emit(ctx context.Context, cmds ...domain.Command) error
	// Audit добавляет запись в журнал команд
	Audit(ctx context.Context, log *domain.AuditLog) error
}
