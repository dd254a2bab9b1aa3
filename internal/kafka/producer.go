package kafka

import (
	"context"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/ecomlabs/order-service/internal/logger"
)

type Producer struct {
	w         *kafka.Writer
	sw        *kafka.Writer
	inbox     chan kafka.Message
	closeCh   chan struct{}
	closeOnce sync.Once
}

func NewProducer(brokers []string, topic string, buf int) *Producer {
	return &Producer{
		w: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			Async:        true, // fire-and-forget; failures surface in Completion
		},
		sw: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
		},
		inbox:   make(chan kafka.Message, buf),
		closeCh: make(chan struct{}),
	}
}

func (p *Producer) Start(ctx context.Context) {
	p.w.Completion = func(messages []kafka.Message, err error) {
		if err != nil {
			logger.L().Error("async publish failed",
				zap.Int("messages", len(messages)), zap.Error(err))
		}
	}
	go func() {
		defer func() {
			_ = p.w.Close()
			_ = p.sw.Close()
			close(p.closeCh)
		}()
		for {
			select {
			case <-ctx.Done():
				p.drain()
				return
			case m, ok := <-p.inbox:
				if !ok {
					return
				}
				p.write(m)
			}
		}
	}()
}

// drain flushes whatever is already buffered without waiting for new sends.
func (p *Producer) drain() {
	for {
		select {
		case m, ok := <-p.inbox:
			if !ok {
				return
			}
			p.write(m)
		default:
			return
		}
	}
}

func (p *Producer) write(m kafka.Message) {
	if err := p.w.WriteMessages(context.Background(), m); err != nil {
		logger.L().Error("publish failed", zap.ByteString("key", m.Key), zap.Error(err))
	}
}

// Publish enqueues a message for asynchronous delivery. It never blocks on
// transport acknowledgment.
func (p *Producer) Publish(key, value []byte, headers ...kafka.Header) {
	p.inbox <- kafka.Message{
		Key:     key,
		Value:   value,
		Time:    time.Now(),
		Headers: headers,
	}
}

// PublishSync writes the message and waits for broker acknowledgment, bounded
// by the context deadline.
func (p *Producer) PublishSync(ctx context.Context, key, value []byte, headers ...kafka.Header) error {
	return p.sw.WriteMessages(ctx, kafka.Message{
		Key:     key,
		Value:   value,
		Time:    time.Now(),
		Headers: headers,
	})
}

// Close the inbox so the goroutine flushes remaining messages and exits.
// Safe to call alongside context cancellation.
func (p *Producer) Close() { p.closeOnce.Do(func() { close(p.inbox) }) }

// WaitClosed blocks until the flush goroutine has finished.
func (p *Producer) WaitClosed() { <-p.closeCh }
