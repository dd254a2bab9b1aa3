package httpx

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/ecomlabs/order-service/internal/orders"
	"github.com/ecomlabs/order-service/internal/userdir"
)

type OrdersHandler struct {
	Service *orders.Service
	Cache   orders.StatusCache
}

type CreateOrderReq struct {
	UserID int64              `json:"userId"`
	Items  []orders.LineInput `json:"items"`
}

type UpdateStatusReq struct {
	Status orders.Status `json:"status"`
}

type LineResp struct {
	ItemID    int64           `json:"itemId"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
}

type OrderResp struct {
	ID         int64            `json:"id"`
	UserID     int64            `json:"userId"`
	User       userdir.UserInfo `json:"user"`
	Status     orders.Status    `json:"status"`
	TotalPrice decimal.Decimal  `json:"totalPrice"`
	Items      []LineResp       `json:"items"`
	CreatedAt  time.Time        `json:"createdAt"`
	UpdatedAt  time.Time        `json:"updatedAt"`
}

func (h *OrdersHandler) Register(r *chi.Mux) {
	r.Route("/api/v1/orders", func(r chi.Router) {
		r.Post("/", h.create)
		r.Get("/", h.list)
		r.Get("/{id}", h.get)
		r.Get("/{id}/status", h.getStatus)
		r.Put("/{id}", h.update)
		r.Patch("/{id}/status", h.updateStatus)
		r.Delete("/{id}", h.delete)
		r.Get("/user/{userId}", h.listByUser)
	})
}

func (h *OrdersHandler) create(w http.ResponseWriter, r *http.Request) {
	var req CreateOrderReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp{Error: "invalid json"})
		return
	}
	if req.UserID == 0 {
		writeJSON(w, http.StatusBadRequest, errorResp{Error: "userId is required"})
		return
	}

	view, err := h.Service.Create(r.Context(), req.UserID, req.Items)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toOrderResp(view))
}

func (h *OrdersHandler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	view, err := h.Service.GetByID(r.Context(), id)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResp(view))
}

// getStatus serves the lightweight polling endpoint from the redis cache,
// falling back to the store on a miss.
func (h *OrdersHandler) getStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if s, hit := h.Cache.GetStatus(r.Context(), id); hit {
		writeJSON(w, http.StatusOK, map[string]string{"status": string(s)})
		return
	}
	view, err := h.Service.GetByID(r.Context(), id)
	if err != nil {
		writeErr(w, err)
		return
	}
	h.Cache.SetStatus(r.Context(), id, view.Status)
	writeJSON(w, http.StatusOK, map[string]string{"status": string(view.Status)})
}

func (h *OrdersHandler) list(w http.ResponseWriter, r *http.Request) {
	f, err := parseListFilter(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp{Error: err.Error()})
		return
	}
	views, err := h.Service.List(r.Context(), f)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResps(views))
}

func (h *OrdersHandler) listByUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r, "userId")
	if !ok {
		return
	}
	page, size := parsePage(r)
	views, err := h.Service.ListByOwner(r.Context(), userID, page, size)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResps(views))
}

func (h *OrdersHandler) update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req orders.UpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp{Error: "invalid json"})
		return
	}
	if req.Status != nil && !orders.IsValid(*req.Status) {
		writeJSON(w, http.StatusBadRequest, errorResp{Error: "unknown status"})
		return
	}
	view, err := h.Service.Update(r.Context(), id, req)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResp(view))
}

func (h *OrdersHandler) updateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req UpdateStatusReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp{Error: "invalid json"})
		return
	}
	if !orders.IsValid(req.Status) {
		writeJSON(w, http.StatusBadRequest, errorResp{Error: "unknown status"})
		return
	}
	view, err := h.Service.UpdateStatus(r.Context(), id, req.Status)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResp(view))
}

func (h *OrdersHandler) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.Service.Delete(r.Context(), id); err != nil {
		writeErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		writeJSON(w, http.StatusBadRequest, errorResp{Error: "invalid " + name})
		return 0, false
	}
	return id, true
}

func parsePage(r *http.Request) (page, size int) {
	page, _ = strconv.Atoi(r.URL.Query().Get("page"))
	size, _ = strconv.Atoi(r.URL.Query().Get("size"))
	return page, size
}

func parseListFilter(r *http.Request) (orders.ListFilter, error) {
	var f orders.ListFilter
	q := r.URL.Query()

	if v := q.Get("dateFrom"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return f, err
		}
		f.DateFrom = &t
	}
	if v := q.Get("dateTo"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return f, err
		}
		f.DateTo = &t
	}
	if v := q.Get("statuses"); v != "" {
		for _, s := range strings.Split(v, ",") {
			f.Statuses = append(f.Statuses, orders.Status(strings.TrimSpace(s)))
		}
	}
	f.Page, f.Size = parsePage(r)
	return f, nil
}

func toOrderResp(v *orders.View) OrderResp {
	lines := make([]LineResp, 0, len(v.Lines))
	for _, l := range v.Lines {
		lines = append(lines, LineResp{ItemID: l.ItemID, Quantity: l.Quantity, UnitPrice: l.UnitPrice})
	}
	return OrderResp{
		ID:         v.ID,
		UserID:     v.Order.UserID,
		User:       v.User,
		Status:     v.Status,
		TotalPrice: v.TotalPrice,
		Items:      lines,
		CreatedAt:  v.CreatedAt,
		UpdatedAt:  v.UpdatedAt,
	}
}

func toOrderResps(vs []*orders.View) []OrderResp {
	out := make([]OrderResp, 0, len(vs))
	for _, v := range vs {
		out = append(out, toOrderResp(v))
	}
	return out
}
