package kafka

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeReader serves a fixed message sequence and records every commit. Once
// drained it blocks like a live reader until the context ends.
type fakeReader struct {
	mu      sync.Mutex
	msgs    []kafka.Message
	commits []kafka.Message
}

func (f *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	f.mu.Lock()
	if len(f.msgs) > 0 {
		m := f.msgs[0]
		f.msgs = f.msgs[1:]
		f.mu.Unlock()
		return m, nil
	}
	f.mu.Unlock()
	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func (f *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.commits = append(f.commits, msgs...)
	return nil
}

func (f *fakeReader) Close() error { return nil }

func (f *fakeReader) committed() []int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]int64, len(f.commits))
	for i, m := range f.commits {
		out[i] = m.Offset
	}
	return out
}

func TestConsumer_FailingMessageIsRetriedBeforeOffsetsAdvance(t *testing.T) {
	fr := &fakeReader{msgs: []kafka.Message{
		{Partition: 0, Offset: 5, Key: []byte("a")},
		{Partition: 0, Offset: 6, Key: []byte("b")},
	}}
	c := &Consumer{r: fr, workers: 1}

	var mu sync.Mutex
	var handled []int64
	fails := 2
	h := func(_ context.Context, m kafka.Message) error {
		mu.Lock()
		defer mu.Unlock()
		handled = append(handled, m.Offset)
		if m.Offset == 5 && fails > 0 {
			fails--
			return errors.New("db down")
		}
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() { defer close(done); _ = c.Start(ctx, h) }()

	require.Eventually(t, func() bool { return len(fr.committed()) == 2 },
		5*time.Second, 10*time.Millisecond)
	cancel()
	<-done

	assert.Equal(t, []int64{5, 6}, fr.committed(), "offset 6 must never be committed ahead of 5")
	mu.Lock()
	assert.Equal(t, []int64{5, 5, 5, 6}, handled, "failed message is retried in place")
	mu.Unlock()
}

func TestConsumer_ShutdownLeavesFailingMessageUncommitted(t *testing.T) {
	fr := &fakeReader{msgs: []kafka.Message{
		{Partition: 0, Offset: 5, Key: []byte("a")},
	}}
	c := &Consumer{r: fr, workers: 1}

	var attempts atomic.Int32
	h := func(context.Context, kafka.Message) error {
		attempts.Add(1)
		return errors.New("db down")
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() { defer close(done); _ = c.Start(ctx, h) }()

	require.Eventually(t, func() bool { return attempts.Load() >= 2 },
		5*time.Second, 10*time.Millisecond)
	cancel()
	<-done

	assert.Empty(t, fr.committed(), "an unprocessed message must stay uncommitted for redelivery")
}

func TestAckTracker_CommitsOnlyContiguousRuns(t *testing.T) {
	var tr ackTracker
	m5 := kafka.Message{Partition: 3, Offset: 5}
	m6 := kafka.Message{Partition: 3, Offset: 6}
	m7 := kafka.Message{Partition: 3, Offset: 7}
	tr.fetched(m5)
	tr.fetched(m6)
	tr.fetched(m7)

	_, ok := tr.handled(m6)
	assert.False(t, ok, "offset 6 must wait for offset 5")
	_, ok = tr.handled(m7)
	assert.False(t, ok, "offset 7 must wait for offset 5")

	last, ok := tr.handled(m5)
	require.True(t, ok)
	assert.Equal(t, int64(7), last.Offset, "closing the gap releases the whole run")
}

func TestAckTracker_PartitionsAreIndependent(t *testing.T) {
	var tr ackTracker
	blocked := kafka.Message{Partition: 0, Offset: 1}
	other := kafka.Message{Partition: 1, Offset: 9}
	tr.fetched(blocked)
	tr.fetched(other)

	last, ok := tr.handled(other)
	require.True(t, ok, "a gap in one partition must not hold back another")
	assert.Equal(t, int64(9), last.Offset)
}

func TestShard_SameKeyAlwaysSameWorker(t *testing.T) {
	c := &Consumer{workers: 4}
	want := c.shard([]byte("42"))
	for i := 0; i < 20; i++ {
		assert.Equal(t, want, c.shard([]byte("42")))
	}
	assert.Equal(t, 0, c.shard(nil), "keyless messages all land on worker 0")
}
