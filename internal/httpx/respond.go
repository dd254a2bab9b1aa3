package httpx

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ecomlabs/order-service/internal/items"
	"github.com/ecomlabs/order-service/internal/orders"
	"github.com/ecomlabs/order-service/internal/userdir"
)

type errorResp struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeErr maps the domain error taxonomy onto status codes: does-not-exist
// conditions to 404, rule violations to 400, naming conflicts to 409 and an
// exhausted upstream to 503.
func writeErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, orders.ErrNotFound),
		errors.Is(err, items.ErrNotFound),
		errors.Is(err, userdir.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResp{Error: err.Error()})
	case errors.Is(err, orders.ErrInvalidState):
		writeJSON(w, http.StatusBadRequest, errorResp{Error: err.Error()})
	case errors.Is(err, items.ErrNameTaken):
		writeJSON(w, http.StatusConflict, errorResp{Error: err.Error()})
	case errors.Is(err, userdir.ErrUnavailable):
		writeJSON(w, http.StatusServiceUnavailable, errorResp{Error: err.Error()})
	default:
		writeJSON(w, http.StatusInternalServerError, errorResp{Error: "internal error"})
	}
}
