// ===============================
// internal/handlers/payment.go
// ===============================

package handlers

import (
	"errors"
	"net/http"

	"interviewcredits/internal/models"
	"interviewcredits/internal/services"

	"github.com/gin-gonic/gin"
)

// SignatureHeader carries the gateway's HMAC over the raw webhook body.
const SignatureHeader = "X-Razorpay-Signature"

type PaymentHandler struct {
	service *services.PaymentService
}

func NewPaymentHandler(service *services.PaymentService) *PaymentHandler {
	return &PaymentHandler{service: service}
}

// GetPacks lists the purchasable credit packs.
func (h *PaymentHandler) GetPacks(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"packs": h.service.Packs()})
}

// CreateOrder starts a credit purchase for the authenticated user.
func (h *PaymentHandler) CreateOrder(c *gin.Context) {
	userID := c.GetString("userID")
	userEmail := c.GetString("userEmail")

	var request models.CreateOrderRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	order, err := h.service.CreateOrder(c.Request.Context(), userID, userEmail, request.PackID)
	if errors.Is(err, services.ErrInvalidPack) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid credit pack"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create payment order"})
		return
	}

	c.JSON(http.StatusOK, order)
}

// Webhook receives gateway notifications. The body is read raw because the
// signature is computed over the exact bytes on the wire.
func (h *PaymentHandler) Webhook(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read request body"})
		return
	}

	signature := c.GetHeader(SignatureHeader)

	result, err := h.service.ProcessWebhook(c.Request.Context(), body, signature)
	switch {
	case errors.Is(err, services.ErrInvalidSignature):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid signature"})
		return
	case errors.Is(err, services.ErrMalformedPayload):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid webhook data"})
		return
	case errors.Is(err, services.ErrUnknownOrder):
		c.JSON(http.StatusNotFound, gin.H{"error": "Payment not found"})
		return
	case err != nil:
		// Settlement is idempotent on order_id, so the sender can retry.
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process webhook"})
		return
	}

	switch result.Outcome {
	case services.SettlementApplied:
		c.JSON(http.StatusOK, gin.H{
			"message":      "Payment processed successfully",
			"creditsAdded": result.CreditsAdded,
		})
	case services.SettlementAlreadyProcessed:
		c.JSON(http.StatusOK, gin.H{"message": "Payment already processed"})
	case services.SettlementPending:
		c.JSON(http.StatusOK, gin.H{
			"message": "Payment pending",
			"status":  result.Status,
		})
	default:
		c.JSON(http.StatusOK, gin.H{
			"message": "Payment failed",
			"status":  result.Status,
		})
	}
}
