package payments

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ecomlabs/order-service/internal/orders"
)

type mockUpdater struct{ mock.Mock }

func (m *mockUpdater) UpdateStatus(ctx context.Context, id int64, s orders.Status) (*orders.View, error) {
	args := m.Called(ctx, id, s)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*orders.View), args.Error(1)
}

func message(t *testing.T, ev Event) kafkago.Message {
	t.Helper()
	b, err := json.Marshal(ev)
	require.NoError(t, err)
	return kafkago.Message{Key: []byte("7"), Value: b}
}

func TestHandle_SuccessMovesOrderToProcessing(t *testing.T) {
	u := &mockUpdater{}
	u.On("UpdateStatus", mock.Anything, int64(7), orders.StatusProcessing).
		Return(&orders.View{}, nil)

	h := &Handler{Orders: u}
	err := h.Handle(context.Background(), message(t, Event{OrderID: 7, Status: StatusSuccess}))

	assert.NoError(t, err, "successful handling must ack")
	u.AssertExpectations(t)
}

func TestHandle_FailureCancelsOrder(t *testing.T) {
	u := &mockUpdater{}
	u.On("UpdateStatus", mock.Anything, int64(7), orders.StatusCancelled).
		Return(&orders.View{}, nil)

	h := &Handler{Orders: u}
	err := h.Handle(context.Background(), message(t, Event{OrderID: 7, Status: StatusFailed}))

	assert.NoError(t, err)
	u.AssertExpectations(t)
}

func TestHandle_NonActionableStatusesAckWithoutTransition(t *testing.T) {
	for _, s := range []Status{StatusPending, StatusProcessing, StatusCancelled, Status("REFUNDED")} {
		u := &mockUpdater{}
		h := &Handler{Orders: u}

		err := h.Handle(context.Background(), message(t, Event{OrderID: 7, Status: s}))

		assert.NoErrorf(t, err, "status %s must ack", s)
		u.AssertNotCalled(t, "UpdateStatus")
	}
}

func TestHandle_UpdateFailureLeavesMessageUncommitted(t *testing.T) {
	boom := errors.New("db down")
	u := &mockUpdater{}
	u.On("UpdateStatus", mock.Anything, int64(7), orders.StatusProcessing).Return(nil, boom)

	h := &Handler{Orders: u}
	err := h.Handle(context.Background(), message(t, Event{OrderID: 7, Status: StatusSuccess}))

	assert.ErrorIs(t, err, boom, "transition failure must propagate so the offset stays uncommitted")
}

func TestHandle_PoisonPayloadIsDropped(t *testing.T) {
	u := &mockUpdater{}
	h := &Handler{Orders: u}

	err := h.Handle(context.Background(), kafkago.Message{Value: []byte("{not json")})

	assert.NoError(t, err, "undecodable payloads are acked, redelivery cannot fix them")
	u.AssertNotCalled(t, "UpdateStatus")
}
