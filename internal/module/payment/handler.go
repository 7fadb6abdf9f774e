package payment

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/paymentsmodule/server/internal/module/card"
	"github.com/paymentsmodule/server/internal/module/payment/gateway"
)

// Handler handles HTTP requests for payments.
type Handler struct {
	service *Service
}

// NewHandler creates a new payment handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the payment and order routes.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	payments := r.Group("/payments")
	{
		payments.POST("/card", h.CreateCardPayment)
		payments.POST("/pix", h.CreatePixPayment)
		payments.POST("/boleto", h.CreateBoletoPayment)
		payments.POST("/:id/reissue", h.ReissuePayment)
		payments.POST("/:id/refund", h.RefundPayment)
		payments.GET("/:id", h.GetPayment)
		payments.GET("/:id/refund", h.GetRefund)
	}
	orders := r.Group("/orders")
	{
		orders.GET("/:id", h.GetOrder)
		orders.GET("/:id/payments", h.ListOrderPayments)
	}
}

// CreateCardPayment charges a stored card for a new order.
func (h *Handler) CreateCardPayment(c *gin.Context) {
	var req CreateCardPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	p, err := h.service.CreateCardPayment(c.Request.Context(), req.OrderID, req.CardID, req.Amount)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, p)
}

// CreatePixPayment creates an instant payment for a new order.
func (h *Handler) CreatePixPayment(c *gin.Context) {
	var req CreatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	p, err := h.service.CreatePixPayment(c.Request.Context(), req.OrderID, req.Amount)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, p)
}

// CreateBoletoPayment creates a deferred invoice for a new order.
func (h *Handler) CreateBoletoPayment(c *gin.Context) {
	var req CreatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	p, err := h.service.CreateBoletoPayment(c.Request.Context(), req.OrderID, req.Amount)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, p)
}

// ReissuePayment replaces a failed or refused payment.
func (h *Handler) ReissuePayment(c *gin.Context) {
	id, ok := paymentID(c)
	if !ok {
		return
	}

	p, err := h.service.ReissuePayment(c.Request.Context(), id)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, p)
}

// RefundPayment refunds an approved payment.
func (h *Handler) RefundPayment(c *gin.Context) {
	id, ok := paymentID(c)
	if !ok {
		return
	}

	// The body is optional for card refunds.
	var req RefundRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		badRequest(c, err.Error())
		return
	}

	txID, err := h.service.RefundPayment(c.Request.Context(), id, req.BankAccount, req.Reason)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, RefundResponse{PaymentID: id, RefundTransactionID: txID})
}

// GetPayment returns a payment by ID.
func (h *Handler) GetPayment(c *gin.Context) {
	id, ok := paymentID(c)
	if !ok {
		return
	}

	p, err := h.service.GetPayment(c.Request.Context(), id)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, p)
}

// GetRefund returns the refund record of a payment.
func (h *Handler) GetRefund(c *gin.Context) {
	id, ok := paymentID(c)
	if !ok {
		return
	}

	ref, err := h.service.GetRefund(c.Request.Context(), id)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, ref)
}

// GetOrder returns an order with its payment history.
func (h *Handler) GetOrder(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		badRequest(c, "invalid order ID")
		return
	}

	o, err := h.service.GetOrder(c.Request.Context(), id)
	if err != nil {
		handleError(c, err)
		return
	}
	payments, err := h.service.ListPaymentsByOrder(c.Request.Context(), id)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, OrderResponse{Order: o, Payments: payments})
}

// ListOrderPayments returns every payment issued for an order.
func (h *Handler) ListOrderPayments(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		badRequest(c, "invalid order ID")
		return
	}

	// Confirm the order exists so an unknown id is a 404, not an
	// empty list.
	if _, err := h.service.GetOrder(c.Request.Context(), id); err != nil {
		handleError(c, err)
		return
	}
	payments, err := h.service.ListPaymentsByOrder(c.Request.Context(), id)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, payments)
}

// --- Helpers ---

func paymentID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		badRequest(c, "invalid payment ID")
		return uuid.Nil, false
	}
	return id, true
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"code": "bad_request", "message": message}})
}

func respondError(c *gin.Context, status int, code, message string) {
	c.JSON(status, gin.H{"error": gin.H{"code": code, "message": message}})
}

func handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrPaymentNotFound):
		respondError(c, http.StatusNotFound, "payment_not_found", "Payment not found")
	case errors.Is(err, ErrOrderNotFound):
		respondError(c, http.StatusNotFound, "order_not_found", "Order not found")
	case errors.Is(err, ErrRefundNotFound):
		respondError(c, http.StatusNotFound, "refund_not_found", "Refund not found")
	case errors.Is(err, card.ErrCardNotFound):
		respondError(c, http.StatusNotFound, "card_not_found", "Card not found")
	case errors.Is(err, ErrOrderConflict):
		respondError(c, http.StatusConflict, "order_conflict", "Order already has a payment; use reissue instead")
	case errors.Is(err, ErrInvalidState):
		respondError(c, http.StatusConflict, "invalid_state", err.Error())
	case errors.Is(err, ErrValidation):
		respondError(c, http.StatusUnprocessableEntity, "validation_error", err.Error())
	case errors.Is(err, ErrRefundDeclined):
		respondError(c, http.StatusBadRequest, "refund_failed", "Refund failed with external payment provider")
	case errors.Is(err, gateway.ErrUnavailable):
		respondError(c, http.StatusBadGateway, "gateway_unavailable", "Payment gateway unavailable, retry later")
	default:
		respondError(c, http.StatusInternalServerError, "internal_error", "Internal server error")
	}
}
