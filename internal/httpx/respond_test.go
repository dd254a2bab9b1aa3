package httpx

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ecomlabs/order-service/internal/items"
	"github.com/ecomlabs/order-service/internal/orders"
	"github.com/ecomlabs/order-service/internal/userdir"
)

func TestWriteErr_StatusMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"order not found", orders.ErrNotFound, http.StatusNotFound},
		{"item not found", items.ErrNotFound, http.StatusNotFound},
		{"user not found", userdir.ErrNotFound, http.StatusNotFound},
		{"wrapped not found", fmt.Errorf("resolve item 3: %w", items.ErrNotFound), http.StatusNotFound},
		{"invalid state", orders.ErrInvalidState, http.StatusBadRequest},
		{"wrapped invalid transition", fmt.Errorf("%w: from SHIPPED", orders.ErrInvalidState), http.StatusBadRequest},
		{"name conflict", items.ErrNameTaken, http.StatusConflict},
		{"directory exhausted", userdir.ErrUnavailable, http.StatusServiceUnavailable},
		{"unknown error", errors.New("pq: connection reset"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			writeErr(rec, tt.err)

			assert.Equal(t, tt.want, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
		})
	}
}

func TestWriteErr_UnknownErrorsAreNotEchoed(t *testing.T) {
	rec := httptest.NewRecorder()
	writeErr(rec, errors.New("dsn=postgres://user:hunter2@db"))

	assert.NotContains(t, rec.Body.String(), "hunter2")
	assert.Contains(t, rec.Body.String(), "internal error")
}
