package payment

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/paymentsmodule/server/internal/module/payment/gateway"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestRouter(svc *Service) *gin.Engine {
	router := gin.New()
	NewHandler(svc).RegisterRoutes(router.Group("/api/v1"))
	return router
}

func postJSON(t *testing.T, router *gin.Engine, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest("POST", path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func get(router *gin.Engine, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("GET", path, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.Error.Code
}

func TestHandler_CreateCardPayment(t *testing.T) {
	gw := NewMockGateway()
	cards := NewMockCardDirectory()
	cardID := cards.add()
	svc, _ := newTestService(gw, cards)
	router := newTestRouter(svc)

	t.Run("Creates a payment", func(t *testing.T) {
		w := postJSON(t, router, "/api/v1/payments/card", gin.H{
			"order_id": uuid.New(),
			"card_id":  cardID,
			"amount":   "100.00",
		})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		var p Payment
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &p))
		assert.Equal(t, StatusApproved, p.Status)
		assert.Equal(t, MethodCard, p.Method)
	})

	t.Run("Missing fields", func(t *testing.T) {
		w := postJSON(t, router, "/api/v1/payments/card", gin.H{"amount": "100.00"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Unknown card", func(t *testing.T) {
		w := postJSON(t, router, "/api/v1/payments/card", gin.H{
			"order_id": uuid.New(),
			"card_id":  uuid.New(),
			"amount":   "100.00",
		})
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "card_not_found", errorCode(t, w))
	})

	t.Run("Duplicate order", func(t *testing.T) {
		orderID := uuid.New()
		w := postJSON(t, router, "/api/v1/payments/card", gin.H{
			"order_id": orderID,
			"card_id":  cardID,
			"amount":   "100.00",
		})
		require.Equal(t, http.StatusCreated, w.Code)

		w = postJSON(t, router, "/api/v1/payments/card", gin.H{
			"order_id": orderID,
			"card_id":  cardID,
			"amount":   "100.00",
		})
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, "order_conflict", errorCode(t, w))
	})

	t.Run("Negative amount", func(t *testing.T) {
		w := postJSON(t, router, "/api/v1/payments/card", gin.H{
			"order_id": uuid.New(),
			"card_id":  cardID,
			"amount":   "-1",
		})
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Equal(t, "validation_error", errorCode(t, w))
	})
}

func TestHandler_CreatePixPayment(t *testing.T) {
	gw := NewMockGateway()
	svc, _ := newTestService(gw, NewMockCardDirectory())
	router := newTestRouter(svc)

	w := postJSON(t, router, "/api/v1/payments/pix", gin.H{
		"order_id": uuid.New(),
		"amount":   "42.50",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var p Payment
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &p))
	assert.Equal(t, StatusPending, p.Status)
	assert.Equal(t, "simulated-qrcode", p.QRCode)
}

func TestHandler_ReissuePayment(t *testing.T) {
	gw := NewMockGateway()
	cards := NewMockCardDirectory()
	cardID := cards.add()
	svc, _ := newTestService(gw, cards)
	router := newTestRouter(svc)

	t.Run("Reissues a refused payment", func(t *testing.T) {
		gw.chargeStatus = gateway.ChargeRefused
		w := postJSON(t, router, "/api/v1/payments/card", gin.H{
			"order_id": uuid.New(),
			"card_id":  cardID,
			"amount":   "100.00",
		})
		require.Equal(t, http.StatusCreated, w.Code)
		var p Payment
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &p))

		gw.chargeStatus = gateway.ChargeApproved
		w = postJSON(t, router, fmt.Sprintf("/api/v1/payments/%s/reissue", p.ID), nil)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		var replacement Payment
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &replacement))
		assert.Equal(t, StatusApproved, replacement.Status)
		assert.Equal(t, p.OrderID, replacement.OrderID)
	})

	t.Run("Approved payments cannot be reissued", func(t *testing.T) {
		gw.chargeStatus = gateway.ChargeApproved
		w := postJSON(t, router, "/api/v1/payments/card", gin.H{
			"order_id": uuid.New(),
			"card_id":  cardID,
			"amount":   "100.00",
		})
		require.Equal(t, http.StatusCreated, w.Code)
		var p Payment
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &p))

		w = postJSON(t, router, fmt.Sprintf("/api/v1/payments/%s/reissue", p.ID), nil)
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, "invalid_state", errorCode(t, w))
	})

	t.Run("Malformed payment ID", func(t *testing.T) {
		w := postJSON(t, router, "/api/v1/payments/not-a-uuid/reissue", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Unknown payment", func(t *testing.T) {
		w := postJSON(t, router, fmt.Sprintf("/api/v1/payments/%s/reissue", uuid.New()), nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestHandler_RefundPayment(t *testing.T) {
	gw := NewMockGateway()
	cards := NewMockCardDirectory()
	cardID := cards.add()
	svc, _ := newTestService(gw, cards)
	router := newTestRouter(svc)

	createApproved := func(t *testing.T) Payment {
		t.Helper()
		w := postJSON(t, router, "/api/v1/payments/card", gin.H{
			"order_id": uuid.New(),
			"card_id":  cardID,
			"amount":   "100.00",
		})
		require.Equal(t, http.StatusCreated, w.Code)
		var p Payment
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &p))
		return p
	}

	t.Run("Refunds a card payment without a bank account", func(t *testing.T) {
		p := createApproved(t)

		w := postJSON(t, router, fmt.Sprintf("/api/v1/payments/%s/refund", p.ID), gin.H{
			"reason": "customer request",
		})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var resp RefundResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, p.ID, resp.PaymentID)
		assert.Equal(t, gw.refundTx, resp.RefundTransactionID)

		w = get(router, fmt.Sprintf("/api/v1/payments/%s/refund", p.ID))
		require.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("Declined refund", func(t *testing.T) {
		p := createApproved(t)

		savedTx := gw.refundTx
		gw.refundTx = uuid.Nil
		defer func() { gw.refundTx = savedTx }()

		w := postJSON(t, router, fmt.Sprintf("/api/v1/payments/%s/refund", p.ID), gin.H{})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "refund_failed", errorCode(t, w))
	})

	t.Run("Pix refund without a bank account", func(t *testing.T) {
		w := postJSON(t, router, "/api/v1/payments/pix", gin.H{
			"order_id": uuid.New(),
			"amount":   "100.00",
		})
		require.Equal(t, http.StatusCreated, w.Code)
		var p Payment
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &p))

		w = postJSON(t, router, fmt.Sprintf("/api/v1/payments/%s/refund", p.ID), gin.H{})
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})
}

func TestHandler_GetOrder(t *testing.T) {
	gw := NewMockGateway()
	cards := NewMockCardDirectory()
	cardID := cards.add()
	svc, _ := newTestService(gw, cards)
	router := newTestRouter(svc)

	t.Run("Returns the order with its history", func(t *testing.T) {
		orderID := uuid.New()
		gw.chargeStatus = gateway.ChargeRefused
		w := postJSON(t, router, "/api/v1/payments/card", gin.H{
			"order_id": orderID,
			"card_id":  cardID,
			"amount":   "100.00",
		})
		require.Equal(t, http.StatusCreated, w.Code)
		var p Payment
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &p))

		gw.chargeStatus = gateway.ChargeApproved
		w = postJSON(t, router, fmt.Sprintf("/api/v1/payments/%s/reissue", p.ID), nil)
		require.Equal(t, http.StatusCreated, w.Code)

		w = get(router, fmt.Sprintf("/api/v1/orders/%s", orderID))
		require.Equal(t, http.StatusOK, w.Code)

		var resp OrderResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, orderID, resp.Order.ID)
		assert.Len(t, resp.Payments, 2)
	})

	t.Run("Unknown order", func(t *testing.T) {
		w := get(router, fmt.Sprintf("/api/v1/orders/%s", uuid.New()))
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "order_not_found", errorCode(t, w))
	})

	t.Run("Lists payments for an order", func(t *testing.T) {
		orderID := uuid.New()
		w := postJSON(t, router, "/api/v1/payments/pix", gin.H{
			"order_id": orderID,
			"amount":   "10.00",
		})
		require.Equal(t, http.StatusCreated, w.Code)

		w = get(router, fmt.Sprintf("/api/v1/orders/%s/payments", orderID))
		require.Equal(t, http.StatusOK, w.Code)

		var payments []*Payment
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &payments))
		assert.Len(t, payments, 1)

		w = get(router, fmt.Sprintf("/api/v1/orders/%s/payments", uuid.New()))
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
