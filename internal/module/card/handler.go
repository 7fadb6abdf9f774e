package card

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/paymentsmodule/server/internal/module/payment/gateway"
)

// Handler handles HTTP requests for cards.
type Handler struct {
	service *Service
}

// NewHandler creates a new card handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the card routes.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	cards := r.Group("/cards")
	{
		cards.POST("", h.Register)
		cards.GET("/:id", h.Get)
		cards.POST("/:id/validate", h.Validate)
	}
}

// RegisterCardRequest is the payload for registering a card.
type RegisterCardRequest struct {
	Number         string `json:"number" binding:"required"`
	CVV            string `json:"cvv" binding:"required"`
	Expiration     string `json:"expiration" binding:"required"` // MM-YY
	HolderName     string `json:"holder_name" binding:"required"`
	HolderDocument string `json:"holder_document" binding:"required"`
}

// CardResponse is the card as exposed over HTTP. The number is masked
// and the CVV is never returned.
type CardResponse struct {
	ID         uuid.UUID `json:"id"`
	Number     string    `json:"number"`
	Expiration string    `json:"expiration"`
	HolderName string    `json:"holder_name"`
	CreatedAt  time.Time `json:"created_at"`
}

func toResponse(c *Card) *CardResponse {
	return &CardResponse{
		ID:         c.ID,
		Number:     c.MaskedNumber(),
		Expiration: c.Expiration,
		HolderName: c.HolderName,
		CreatedAt:  c.CreatedAt,
	}
}

// Register stores a new card.
func (h *Handler) Register(c *gin.Context) {
	var req RegisterCardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"code": "bad_request", "message": err.Error()}})
		return
	}

	created, err := h.service.Register(c.Request.Context(), &Card{
		Number:         req.Number,
		CVV:            req.CVV,
		Expiration:     req.Expiration,
		HolderName:     req.HolderName,
		HolderDocument: req.HolderDocument,
	})
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toResponse(created))
}

// Get returns a card by ID.
func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"code": "bad_request", "message": "invalid card ID"}})
		return
	}

	stored, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, toResponse(stored))
}

// Validate runs the processor's checks against a stored card.
func (h *Handler) Validate(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"code": "bad_request", "message": "invalid card ID"}})
		return
	}

	valid, err := h.service.Validate(c.Request.Context(), id)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"card_id": id, "valid": valid})
}

func handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrCardNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": gin.H{"code": "card_not_found", "message": "Card not found"}})
	case errors.Is(err, gateway.ErrUnavailable):
		c.JSON(http.StatusBadGateway, gin.H{"error": gin.H{"code": "gateway_unavailable", "message": "Payment gateway unavailable"}})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": gin.H{"code": "internal_error", "message": "Internal server error"}})
	}
}
