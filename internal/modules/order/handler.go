package order

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tkabwela/shopline-backend/internal/modules/auth"
	"github.com/tkabwela/shopline-backend/internal/modules/catalog"
)

// Handler exposes order HTTP endpoints.
type Handler struct{ service Service }

func NewHandler(service Service) *Handler { return &Handler{service: service} }

// RegisterRoutes mounts the order endpoints. idem guards checkout against
// duplicate submissions; pass nil to disable it.
func (h *Handler) RegisterRoutes(r *chi.Mux, authenticate, requireAdmin func(http.Handler) http.Handler,
	idem func(http.Handler) http.Handler) {
	if idem == nil {
		idem = func(next http.Handler) http.Handler { return next }
	}
	r.Route("/api/v1/orders", func(r chi.Router) {
		r.Use(authenticate)
		r.With(idem).Post("/", h.placeOrder)              // POST   /api/v1/orders
		r.Get("/", h.listMyOrders)                        // GET    /api/v1/orders
		r.Get("/{id}", h.getOrder)                        // GET    /api/v1/orders/{id}
		r.Get("/number/{number}", h.getOrderByNumber)     // GET    /api/v1/orders/number/{number}
		r.Post("/{id}/cancel", h.cancelOrder)             // POST   /api/v1/orders/{id}/cancel
		r.Group(func(r chi.Router) {
			r.Use(requireAdmin)
			r.Get("/all", h.listOrders)                   // GET    /api/v1/orders/all?status=placed
			r.Patch("/{id}/status", h.updateStatus)       // PATCH  /api/v1/orders/{id}/status
		})
	})
}

func (h *Handler) placeOrder(w http.ResponseWriter, r *http.Request) {
	var req PlaceOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	// the boundary validates; the workflow only ever sees well-formed input
	if err := req.Validate(); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	o, err := h.service.PlaceOrder(r.Context(), auth.UserID(r.Context()), req)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusCreated, o)
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.service.GetOrder(r.Context(), chi.URLParam(r, "id"), auth.CallerFrom(r.Context()))
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, o)
}

func (h *Handler) getOrderByNumber(w http.ResponseWriter, r *http.Request) {
	o, err := h.service.GetOrderByNumber(r.Context(), chi.URLParam(r, "number"), auth.CallerFrom(r.Context()))
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, o)
}

func (h *Handler) listMyOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.service.ListMyOrders(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		respondError(w, err)
		return
	}
	if orders == nil {
		orders = []*Order{}
	}
	respond(w, http.StatusOK, orders)
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.service.ListOrders(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		respondError(w, err)
		return
	}
	if orders == nil {
		orders = []*Order{}
	}
	respond(w, http.StatusOK, orders)
}

func (h *Handler) updateStatus(w http.ResponseWriter, r *http.Request) {
	var req UpdateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	o, err := h.service.UpdateStatus(r.Context(), chi.URLParam(r, "id"), auth.CallerFrom(r.Context()), req)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, o)
}

func (h *Handler) cancelOrder(w http.ResponseWriter, r *http.Request) {
	var req CancelOrderRequest
	if r.Body != nil {
		// the reason is optional; an empty body is fine
		_ = json.NewDecoder(r.Body).Decode(&req)
	}
	o, err := h.service.CancelOrder(r.Context(), chi.URLParam(r, "id"), auth.CallerFrom(r.Context()), req.Reason)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, o)
}

// respondError maps the error taxonomy to HTTP status categories. Unexpected
// errors become an opaque 500 so storage detail never leaks.
func respondError(w http.ResponseWriter, err error) {
	var stockErr *catalog.InsufficientStockError
	var unavailErr *catalog.ProductUnavailableError
	var transitionErr *InvalidTransitionError
	switch {
	case errors.Is(err, ErrOrderNotFound), errors.Is(err, catalog.ErrProductNotFound):
		respond(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, ErrForbidden):
		respond(w, http.StatusForbidden, map[string]string{"error": err.Error()})
	case errors.Is(err, ErrEmptyCart):
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, ErrStatusConflict):
		respond(w, http.StatusConflict, map[string]string{"error": err.Error()})
	case errors.As(err, &stockErr):
		respond(w, http.StatusConflict, map[string]string{"error": err.Error()})
	case errors.As(err, &unavailErr):
		respond(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
	case errors.As(err, &transitionErr):
		respond(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
	default:
		respond(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

func respond(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
