// Package bus доставляет команды движка: партиционированная очередь,
// дедупликация по id сообщения, воркеры и ретранслятор outbox.
package bus

import (
	"context"
	"errors"

	"bowling_engine/internal/domain"
)

// ErrClosed возвращается из Consume после закрытия очереди
var ErrClosed = errors.New("bus: queue closed")

// Publisher кладет команды в шину
type Publisher interface {
	Publish(ctx context.Context, cmds ...domain.Command) error
}

// Queue - шина с партициями. Команды одной партии всегда попадают
// в одну партицию и читаются из нее по порядку
type Queue interface {
	Publisher
	// Consume блокируется до следующей команды партиции или отмены ctx
	Consume(ctx context.Context, partition int) (domain.Command, error)
	Partitions() int
}

// Handler обрабатывает одну команду
type Handler interface {
	Handle(ctx context.Context, cmd domain.Command) error
}

// Deduper помнит уже принятые id сообщений
type Deduper interface {
	// Claim возвращает false, если сообщение с таким id уже принималось
	Claim(ctx context.Context, id string) (bool, error)
	// Release забывает id, чтобы повторная доставка снова прошла
	Release(ctx context.Context, id string) error
}

// Partition выбирает партицию по id партии
func Partition(gameID int64, partitions int) int {
	if partitions <= 1 {
		return 0
	}
	p := gameID % int64(partitions)
	if p < 0 {
		p = -p
	}
	return int(p)
}
