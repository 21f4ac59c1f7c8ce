package bus

import (
	"context"
	"sync"
	"time"

	"bowling_engine/internal/domain"
)

// MemoryQueue - очередь в памяти процесса, по слайсу на партицию
type MemoryQueue struct {
	mu     sync.Mutex
	parts  [][]domain.Command
	notify []chan struct{}
	closed bool
}

func NewMemoryQueue(partitions int) *MemoryQueue {
	if partitions < 1 {
		partitions = 1
	}
	q := &MemoryQueue{
		parts:  make([][]domain.Command, partitions),
		notify: make([]chan struct{}, partitions),
	}
	for i := range q.notify {
		q.notify[i] = make(chan struct{}, 1)
	}
	return q
}

func (q *MemoryQueue) Partitions() int {
	return len(q.parts)
}

func (q *MemoryQueue) Publish(ctx context.Context, cmds ...domain.Command) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return ErrClosed
	}
	for _, cmd := range cmds {
		p := Partition(cmd.GameID, len(q.parts))
		q.parts[p] = append(q.parts[p], cmd)
		select {
		case q.notify[p] <- struct{}{}:
		default:
		}
	}
	return nil
}

func (q *MemoryQueue) Consume(ctx context.Context, partition int) (domain.Command, error) {
	for {
		if cmd, ok, err := q.pop(partition); err != nil || ok {
			return cmd, err
		}
		select {
		case <-ctx.Done():
			return domain.Command{}, ctx.Err()
		case <-q.notify[partition]:
		}
	}
}

func (q *MemoryQueue) pop(partition int) (domain.Command, bool, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.parts[partition]) > 0 {
		cmd := q.parts[partition][0]
		q.parts[partition] = q.parts[partition][1:]
		return cmd, true, nil
	}
	if q.closed {
		return domain.Command{}, false, ErrClosed
	}
	return domain.Command{}, false, nil
}

// Len - сколько команд ждет во всех партициях
func (q *MemoryQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	n := 0
	for _, p := range q.parts {
		n += len(p)
	}
	return n
}

// Close будит читателей. Уже опубликованные команды дочитываются
func (q *MemoryQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.closed = true
	for _, ch := range q.notify {
		close(ch)
	}
}

// Drain синхронно обрабатывает очередь, пока она не опустеет, включая
// команды, порожденные в процессе. Ошибки обработчика не прерывают разбор
func Drain(ctx context.Context, q *MemoryQueue, h Handler) []error {
	var errs []error
	for {
		progressed := false
		for p := 0; p < q.Partitions(); p++ {
			cmd, ok, err := q.pop(p)
			if err != nil || !ok {
				continue
			}
			progressed = true
			if err := h.Handle(ctx, cmd); err != nil {
				errs = append(errs, err)
			}
		}
		if !progressed {
			return errs
		}
	}
}

// MemoryDeduper хранит id принятых сообщений в памяти до истечения ttl
type MemoryDeduper struct {
	mu   sync.Mutex
	ttl  time.Duration
	seen map[string]time.Time
	now  func() time.Time
}

func NewMemoryDeduper(ttl time.Duration) *MemoryDeduper {
	return &MemoryDeduper{
		ttl:  ttl,
		seen: make(map[string]time.Time),
		now:  time.Now,
	}
}

func (d *MemoryDeduper) Claim(ctx context.Context, id string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	if exp, ok := d.seen[id]; ok && now.Before(exp) {
		return false, nil
	}
	d.seen[id] = now.Add(d.ttl)

	// чистим протухшие записи, чтобы карта не росла бесконечно
	if len(d.seen)%1024 == 0 {
		for k, exp := range d.seen {
			if !now.Before(exp) {
				delete(d.seen, k)
			}
		}
	}
	return true, nil
}

func (d *MemoryDeduper) Release(ctx context.Context, id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.seen, id)
	return nil
}
