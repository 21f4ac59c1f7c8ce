package bus

import (
	"context"
	"errors"
	"time"

	"bowling_engine/internal/domain"
	"bowling_engine/internal/logger"

	"golang.org/x/sync/errgroup"
)

// Runner держит по одному воркеру на партицию. Внутри партиции команды
// обрабатываются строго последовательно
type Runner struct {
	queue   Queue
	handler Handler
}

func NewRunner(queue Queue, handler Handler) *Runner {
	return &Runner{queue: queue, handler: handler}
}

// Run блокируется до отмены ctx или закрытия очереди
func (r *Runner) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for p := 0; p < r.queue.Partitions(); p++ {
		partition := p
		g.Go(func() error {
			return r.work(ctx, partition)
		})
	}
	err := g.Wait()
	if errors.Is(err, context.Canceled) || errors.Is(err, ErrClosed) {
		return nil
	}
	return err
}

func (r *Runner) work(ctx context.Context, partition int) error {
	log := logger.With("partition", partition)
	log.Debug("worker started")

	for {
		cmd, err := r.queue.Consume(ctx, partition)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, ErrClosed) {
				log.Debug("worker stopped")
				return err
			}
			// битое сообщение или сбой брокера - не роняем воркер
			log.Error("consume failed", "error", err)
			if !sleep(ctx, time.Second) {
				return ctx.Err()
			}
			continue
		}

		// ошибка обработки уже залогирована и записана в журнал роутером
		_ = r.handler.Handle(ctx, cmd)
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// OutboxSource - то, откуда ретранслятор берет неотправленные команды
type OutboxSource interface {
	PendingOutbox(ctx context.Context, before time.Time, limit int) ([]domain.Command, error)
	MarkDispatched(ctx context.Context, ids []string) error
}

// OutboxRelay переотправляет команды, которые застряли в outbox:
// транзакция закоммитилась, а публикация после нее не прошла
type OutboxRelay struct {
	source    OutboxSource
	publisher Publisher
	interval  time.Duration
	batch     int
}

func NewOutboxRelay(source OutboxSource, publisher Publisher, interval time.Duration) *OutboxRelay {
	return &OutboxRelay{source: source, publisher: publisher, interval: interval, batch: 500}
}

func (r *OutboxRelay) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := r.RelayOnce(ctx, time.Now().Add(-r.interval)); err != nil && ctx.Err() == nil {
				logger.Error("outbox relay failed", "error", err)
			}
		}
	}
}

// RelayOnce публикует команды, записанные раньше before, и возвращает их число
func (r *OutboxRelay) RelayOnce(ctx context.Context, before time.Time) (int, error) {
	cmds, err := r.source.PendingOutbox(ctx, before, r.batch)
	if err != nil {
		return 0, err
	}
	if len(cmds) == 0 {
		return 0, nil
	}

	if err := r.publisher.Publish(ctx, cmds...); err != nil {
		return 0, err
	}

	ids := make([]string, len(cmds))
	for i, cmd := range cmds {
		ids[i] = cmd.ID
	}
	if err := r.source.MarkDispatched(ctx, ids); err != nil {
		return 0, err
	}

	logger.Info("outbox relayed", "count", len(cmds))
	return len(cmds), nil
}
