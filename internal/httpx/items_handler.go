package httpx

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/ecomlabs/order-service/internal/items"
)

type ItemsHandler struct {
	Service *items.Service
}

type ItemReq struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
}

func (h *ItemsHandler) Register(r *chi.Mux) {
	r.Route("/api/v1/items", func(r chi.Router) {
		r.Post("/", h.create)
		r.Get("/", h.list)
		r.Get("/search", h.search)
		r.Get("/{id}", h.get)
		r.Put("/{id}", h.update)
		r.Delete("/{id}", h.delete)
	})
}

func (h *ItemsHandler) create(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeItem(w, r)
	if !ok {
		return
	}
	it, err := h.Service.Create(r.Context(), &items.Item{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
	})
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, it)
}

func (h *ItemsHandler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	it, err := h.Service.GetByID(r.Context(), id)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, it)
}

func (h *ItemsHandler) list(w http.ResponseWriter, r *http.Request) {
	page, size := parsePage(r)
	if size <= 0 {
		size = 20
	}
	out, err := h.Service.List(r.Context(), page, size)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *ItemsHandler) search(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name == "" {
		writeJSON(w, http.StatusBadRequest, errorResp{Error: "name is required"})
		return
	}
	out, err := h.Service.SearchByName(r.Context(), name)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *ItemsHandler) update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	req, ok := decodeItem(w, r)
	if !ok {
		return
	}
	it, err := h.Service.Update(r.Context(), id, &items.Item{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
	})
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, it)
}

func (h *ItemsHandler) delete(w http.ResponseWriter, r *http.Request) {
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

func decodeItem(w http.ResponseWriter, r *http.Request) (ItemReq, bool) {
	var req ItemReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp{Error: "invalid json"})
		return req, false
	}
	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, errorResp{Error: "name is required"})
		return req, false
	}
	return req, true
}
