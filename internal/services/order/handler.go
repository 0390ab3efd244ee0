package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"restaurant-pos/internal/broadcast"
	"restaurant-pos/internal/logger"
	"restaurant-pos/internal/models"
)

// Handler exposes the order lifecycle engine over HTTP.
type Handler struct {
	service *Service
	hub     *broadcast.Hub
	logger  *logger.Logger
}

// NewHandler creates the HTTP handler.
func NewHandler(service *Service, hub *broadcast.Hub, log *logger.Logger) *Handler {
	return &Handler{
		service: service,
		hub:     hub,
		logger:  log,
	}
}

// Routes builds the chi router for the order API.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(h.withLogging)

	r.Route("/orders", func(r chi.Router) {
		r.Post("/", h.CreateOrder)
		r.Get("/", h.ListOrders)
		r.Get("/{id}", h.GetOrder)
		r.Get("/code/{code}", h.GetOrderByCode)
		r.Post("/{id}/status", h.ChangeStatus)
		r.Post("/{id}/payment", h.RecordPayment)
		r.Post("/{id}/ack", h.Acknowledge)
	})
	r.Get("/events", h.StreamEvents)
	r.Get("/health", h.HealthCheck)

	return r
}

// CreateOrder handles POST /orders.
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	requestID := requestIDFrom(r)

	var req models.CreateOrderRequest
	if !h.decodeBody(w, r, &req, requestID) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	order, err := h.service.CreateOrder(ctx, &req, requestID)
	if err != nil {
		h.writeError(w, err, requestID)
		return
	}

	h.writeJSON(w, http.StatusCreated, order)
}

// GetOrder handles GET /orders/{id}.
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	requestID := requestIDFrom(r)

	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		h.writeError(w, fmt.Errorf("%w: invalid order id", models.ErrValidation), requestID)
		return
	}

	order, err := h.service.GetOrder(r.Context(), id)
	if err != nil {
		h.writeError(w, err, requestID)
		return
	}
	h.writeJSON(w, http.StatusOK, order)
}

// GetOrderByCode handles GET /orders/code/{code}.
func (h *Handler) GetOrderByCode(w http.ResponseWriter, r *http.Request) {
	requestID := requestIDFrom(r)

	order, err := h.service.GetOrderByCode(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		h.writeError(w, err, requestID)
		return
	}
	h.writeJSON(w, http.StatusOK, order)
}

// ListOrders handles GET /orders with optional status, payment_status and
// branch_id filters.
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	requestID := requestIDFrom(r)

	filter := models.ListOrdersFilter{
		Status:        models.OrderStatus(r.URL.Query().Get("status")),
		PaymentStatus: models.PaymentStatus(r.URL.Query().Get("payment_status")),
	}
	if raw := r.URL.Query().Get("branch_id"); raw != "" {
		branchID, err := strconv.Atoi(raw)
		if err != nil || branchID <= 0 {
			h.writeError(w, fmt.Errorf("%w: invalid branch_id", models.ErrValidation), requestID)
			return
		}
		filter.BranchID = branchID
	}

	orders, err := h.service.ListOrders(r.Context(), filter)
	if err != nil {
		h.writeError(w, err, requestID)
		return
	}
	if orders == nil {
		orders = []models.Order{}
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"orders": orders})
}

// ChangeStatus handles POST /orders/{id}/status.
func (h *Handler) ChangeStatus(w http.ResponseWriter, r *http.Request) {
	requestID := requestIDFrom(r)

	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		h.writeError(w, fmt.Errorf("%w: invalid order id", models.ErrValidation), requestID)
		return
	}

	var req models.ChangeStatusRequest
	if !h.decodeBody(w, r, &req, requestID) {
		return
	}
	if err := req.Validate(); err != nil {
		h.writeError(w, err, requestID)
		return
	}

	order, err := h.service.ChangeStatus(r.Context(), id, req.Status, requestID)
	if err != nil {
		h.writeError(w, err, requestID)
		return
	}
	h.writeJSON(w, http.StatusOK, order)
}

// RecordPayment handles POST /orders/{id}/payment.
func (h *Handler) RecordPayment(w http.ResponseWriter, r *http.Request) {
	requestID := requestIDFrom(r)

	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		h.writeError(w, fmt.Errorf("%w: invalid order id", models.ErrValidation), requestID)
		return
	}

	var req models.RecordPaymentRequest
	if !h.decodeBody(w, r, &req, requestID) {
		return
	}

	order, err := h.service.RecordPayment(r.Context(), id, &req, requestID)
	if err != nil {
		h.writeError(w, err, requestID)
		return
	}
	h.writeJSON(w, http.StatusOK, order)
}

// Acknowledge handles POST /orders/{id}/ack.
func (h *Handler) Acknowledge(w http.ResponseWriter, r *http.Request) {
	requestID := requestIDFrom(r)

	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		h.writeError(w, fmt.Errorf("%w: invalid order id", models.ErrValidation), requestID)
		return
	}

	var req models.AcknowledgeRequest
	if !h.decodeBody(w, r, &req, requestID) {
		return
	}
	if err := req.Validate(); err != nil {
		h.writeError(w, err, requestID)
		return
	}

	order, err := h.service.Acknowledge(r.Context(), id, req.UserID, requestID)
	if err != nil {
		h.writeError(w, err, requestID)
		return
	}
	h.writeJSON(w, http.StatusOK, order)
}

// HealthCheck handles GET /health.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"service":   "order-service",
	})
}

func (h *Handler) decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}, requestID string) bool {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dst); err != nil {
		h.logger.Error("validation_failed", "Failed to parse request body", requestID, err, nil)
		h.writeError(w, fmt.Errorf("%w: invalid JSON body", models.ErrValidation), requestID)
		return false
	}
	return true
}

// writeError maps the error taxonomy to HTTP statuses: validation 400,
// invalid reference 422, illegal transition 409, not found 404, everything
// else (including exhausted code generation) 500.
func (h *Handler) writeError(w http.ResponseWriter, err error, requestID string) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, models.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, models.ErrInvalidReference):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, models.ErrIllegalTransition):
		status = http.StatusConflict
	case errors.Is(err, models.ErrOrderNotFound):
		status = http.StatusNotFound
	}

	if status == http.StatusInternalServerError {
		h.logger.Error("request_failed", "Internal error", requestID, err, nil)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"error":      err.Error(),
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
		"request_id": requestID,
	})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Error("response_encoding_failed", "Failed to encode response", "", err, nil)
	}
}

type contextKey string

const requestIDKey contextKey = "request_id"

func requestIDFrom(r *http.Request) string {
	if id, ok := r.Context().Value(requestIDKey).(string); ok {
		return id
	}
	return logger.GenerateRequestID()
}

// withLogging correlates and times every request.
func (h *Handler) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := logger.GenerateRequestID()
		r = r.WithContext(context.WithValue(r.Context(), requestIDKey, requestID))

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		h.logger.Debug("request_completed",
			fmt.Sprintf("%s %s - %d", r.Method, r.URL.Path, rw.statusCode),
			requestID,
			map[string]interface{}{
				"method":      r.Method,
				"path":        r.URL.Path,
				"status_code": rw.statusCode,
				"duration_ms": time.Since(start).Milliseconds(),
			})
	})
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}
