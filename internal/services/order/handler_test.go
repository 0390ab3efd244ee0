package order

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"restaurant-pos/internal/broadcast"
	"restaurant-pos/internal/logger"
	"restaurant-pos/internal/models"
)

func newTestHandler() (*Handler, *fakeStore, *fakeSink) {
	store := newFakeStore()
	sink := &fakeSink{}
	log := logger.New("order-service-test")
	svc := NewService(store, sink, log)
	return NewHandler(svc, broadcast.NewHub(4), log), store, sink
}

func doJSON(t *testing.T, h *Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)
	return rec
}

func TestCreateOrderEndpoint(t *testing.T) {
	h, _, sink := newTestHandler()

	rec := doJSON(t, h, http.MethodPost, "/orders",
		`{"branch_id":1,"table_id":4,"lines":[{"menu_item_id":7,"quantity":2}]}`)

	require.Equal(t, http.StatusCreated, rec.Code)

	var order models.Order
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &order))
	assert.Equal(t, models.StatusSubmitted, order.Status)
	assert.NotEmpty(t, order.Code)
	assert.Equal(t, []string{models.EventOrderCreated}, sink.names())
}

func TestCreateOrderEndpointValidation(t *testing.T) {
	h, _, _ := newTestHandler()

	tests := []struct {
		name string
		body string
	}{
		{"empty lines", `{"branch_id":1,"table_id":4,"lines":[]}`},
		{"zero quantity", `{"branch_id":1,"table_id":4,"lines":[{"menu_item_id":7,"quantity":0}]}`},
		{"unknown field", `{"branch_id":1,"table_id":4,"surprise":true,"lines":[{"menu_item_id":7,"quantity":1}]}`},
		{"malformed json", `{"branch_id":`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, h, http.MethodPost, "/orders", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestErrorStatusMapping(t *testing.T) {
	h, store, _ := newTestHandler()
	store.seed(models.StatusSubmitted)

	t.Run("illegal transition is 409", func(t *testing.T) {
		rec := doJSON(t, h, http.MethodPost,
			"/orders/1/status", `{"status":"preparing"}`)
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("unknown status is 400", func(t *testing.T) {
		rec := doJSON(t, h, http.MethodPost,
			"/orders/1/status", `{"status":"vaporized"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("missing order is 404", func(t *testing.T) {
		rec := doJSON(t, h, http.MethodPost,
			"/orders/999/status", `{"status":"confirmed"}`)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("invalid reference is 422", func(t *testing.T) {
		store.createErr = models.ErrInvalidReference
		defer func() { store.createErr = nil }()

		rec := doJSON(t, h, http.MethodPost, "/orders",
			`{"branch_id":1,"table_id":4,"lines":[{"menu_item_id":7,"quantity":1}]}`)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})

	t.Run("exhausted code generation is 500", func(t *testing.T) {
		store.createErr = models.ErrCodeGenerationExhausted
		defer func() { store.createErr = nil }()

		rec := doJSON(t, h, http.MethodPost, "/orders",
			`{"branch_id":1,"table_id":4,"lines":[{"menu_item_id":7,"quantity":1}]}`)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})

}

func TestGetOrderEndpoints(t *testing.T) {
	h, store, _ := newTestHandler()
	order := store.seed(models.StatusConfirmed)

	rec := doJSON(t, h, http.MethodGet, "/orders/1", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var got models.Order
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, order.Code, got.Code)

	rec = doJSON(t, h, http.MethodGet, "/orders/code/"+order.Code, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, h, http.MethodGet, "/orders/code/BR9-19700101-0000", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, h, http.MethodGet, "/orders/not-a-number", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListOrdersEndpoint(t *testing.T) {
	h, store, _ := newTestHandler()
	store.seed(models.StatusSubmitted)
	store.seed(models.StatusServed)

	rec := doJSON(t, h, http.MethodGet, "/orders?status=served", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Orders []models.Order `json:"orders"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Orders, 1)
	assert.Equal(t, models.StatusServed, body.Orders[0].Status)

	rec = doJSON(t, h, http.MethodGet, "/orders?branch_id=zero", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPaymentEndpoint(t *testing.T) {
	h, store, sink := newTestHandler()
	store.seed(models.StatusServed)

	rec := doJSON(t, h, http.MethodPost, "/orders/1/payment",
		`{"payment_type":"cash","amount":200}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var order models.Order
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &order))
	assert.Equal(t, models.StatusPaid, order.Status)
	assert.Equal(t, models.PaymentPaid, order.PaymentStatus)
	assert.Equal(t, []string{models.EventPaymentRecorded, models.EventOrderUpdated}, sink.names())

	rec = doJSON(t, h, http.MethodPost, "/orders/1/payment",
		`{"payment_type":"cash","amount":200}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestAckEndpoint(t *testing.T) {
	h, store, _ := newTestHandler()
	store.seed(models.StatusConfirmed)

	rec := doJSON(t, h, http.MethodPost, "/orders/1/ack", `{"user_id":12}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var order models.Order
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &order))
	assert.Equal(t, models.StatusPreparing, order.Status)

	rec = doJSON(t, h, http.MethodPost, "/orders/1/ack", `{"user_id":0}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealthEndpoint(t *testing.T) {
	h, _, _ := newTestHandler()

	rec := doJSON(t, h, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestStreamEventsValidation(t *testing.T) {
	h, _, _ := newTestHandler()

	rec := doJSON(t, h, http.MethodGet, "/events?branch_id=1&role=waiter", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, h, http.MethodGet, "/events?role=kitchen", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
