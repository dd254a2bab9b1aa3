package kafka

import (
	"context"
	"hash/fnv"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/ecomlabs/order-service/internal/logger"
)

const (
	handleRetryBase    = 100 * time.Millisecond
	handleRetryCeiling = 5 * time.Second
)

// Handler must return nil only when the message has been fully processed.
// A non-nil error keeps the message in its shard: it is retried with capped
// backoff, and no later offset in its partition is committed past it, so an
// unprocessed message survives a restart and is redelivered.
type Handler func(ctx context.Context, m kafka.Message) error

// reader is the slice of kafka.Reader the consumer drives.
type reader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Consumer struct {
	r       reader
	workers int
	acks    ackTracker
}

func NewConsumer(brokers []string, group, topic string, workers int) *Consumer {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		GroupID:        group,
		Topic:          topic,
		MinBytes:       1,
		MaxBytes:       10e6,
		CommitInterval: 0, // manual commit
	})
	if workers <= 0 {
		workers = 1
	}
	return &Consumer{r: r, workers: workers}
}

// Start fetches messages and dispatches them to workers keyed by message key,
// so all messages for one key are handled sequentially while different keys
// proceed in parallel.
func (c *Consumer) Start(ctx context.Context, h Handler) error {
	defer c.r.Close()

	jobs := make([]chan kafka.Message, c.workers)
	var wg sync.WaitGroup
	for i := range jobs {
		jobs[i] = make(chan kafka.Message, 64)
		wg.Add(1)
		go func(ch <-chan kafka.Message) {
			defer wg.Done()
			for m := range ch {
				if !c.handleWithRetry(ctx, h, m) {
					continue // shutting down; offset stays uncommitted
				}
				if cm, ok := c.acks.handled(m); ok {
					if err := c.r.CommitMessages(ctx, cm); err != nil {
						logger.L().Error("commit failed",
							zap.Int64("offset", cm.Offset), zap.Error(err))
					}
				}
			}
		}(jobs[i])
	}

	stop := func() {
		for _, ch := range jobs {
			close(ch)
		}
		wg.Wait()
	}

	for {
		m, err := c.r.FetchMessage(ctx)
		if err != nil {
			stop()
			select {
			case <-ctx.Done():
				return nil
			default:
				return err
			}
		}
		c.acks.fetched(m)
		select {
		case jobs[c.shard(m.Key)] <- m:
		case <-ctx.Done():
			stop()
			return nil
		}
	}
}

// handleWithRetry drives one message to completion, backing off between
// attempts. It returns false only on shutdown, leaving the message for
// redelivery after restart.
func (c *Consumer) handleWithRetry(ctx context.Context, h Handler, m kafka.Message) bool {
	backoff := handleRetryBase
	for attempt := 1; ; attempt++ {
		err := h(ctx, m)
		if err == nil {
			return true
		}
		logger.L().Warn("message handling failed, retrying",
			zap.String("topic", m.Topic),
			zap.Int("partition", m.Partition),
			zap.Int64("offset", m.Offset),
			zap.Int("attempt", attempt),
			zap.Error(err))

		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return false
		}
		backoff *= 2
		if backoff > handleRetryCeiling {
			backoff = handleRetryCeiling
		}
	}
}

func (c *Consumer) shard(key []byte) int {
	if len(key) == 0 {
		return 0
	}
	f := fnv.New32a()
	_, _ = f.Write(key)
	return int(f.Sum32() % uint32(c.workers))
}

// ackTracker serializes offset commits per partition. A consumer-group offset
// is a single watermark, so committing a later message would implicitly
// acknowledge every earlier one in the same partition; only the end of the
// contiguous run of handled messages is ever committed.
type ackTracker struct {
	mu      sync.Mutex
	pending map[int][]int64
	done    map[int]map[int64]kafka.Message
}

// fetched registers m before dispatch. FetchMessage yields each partition in
// offset order, so the pending list is the commit order.
func (t *ackTracker) fetched(m kafka.Message) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.pending == nil {
		t.pending = map[int][]int64{}
		t.done = map[int]map[int64]kafka.Message{}
	}
	t.pending[m.Partition] = append(t.pending[m.Partition], m.Offset)
}

// handled marks m processed and reports the newest message that is safe to
// commit. ok is false while an earlier message of the partition is still in
// flight.
func (t *ackTracker) handled(m kafka.Message) (kafka.Message, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	p := m.Partition
	if t.done == nil {
		t.done = map[int]map[int64]kafka.Message{}
	}
	if t.done[p] == nil {
		t.done[p] = map[int64]kafka.Message{}
	}
	t.done[p][m.Offset] = m

	var last kafka.Message
	var ok bool
	for len(t.pending[p]) > 0 {
		head := t.pending[p][0]
		dm, isDone := t.done[p][head]
		if !isDone {
			break
		}
		delete(t.done[p], head)
		t.pending[p] = t.pending[p][1:]
		last, ok = dm, true
	}
	return last, ok
}
