// ===============================
// internal/handlers/wallet.go
// ===============================

package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"interviewcredits/internal/services"

	"github.com/gin-gonic/gin"
)

type WalletHandler struct {
	service *services.WalletService
}

func NewWalletHandler(service *services.WalletService) *WalletHandler {
	return &WalletHandler{service: service}
}

// GetWallet returns the caller's balance and last five ledger entries.
func (h *WalletHandler) GetWallet(c *gin.Context) {
	userID := c.GetString("userID")

	wallet, err := h.service.GetWallet(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch wallet"})
		return
	}

	c.JSON(http.StatusOK, wallet)
}

// GetTransactions returns one page of the caller's ledger history.
func (h *WalletHandler) GetTransactions(c *gin.Context) {
	userID := c.GetString("userID")

	skip := 0
	if s := c.Query("skip"); s != "" {
		if parsed, err := strconv.Atoi(s); err == nil && parsed >= 0 {
			skip = parsed
		}
	}

	limit := 10
	if l := c.Query("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 && parsed <= 100 {
			limit = parsed
		}
	}

	page, err := h.service.ListTransactions(c.Request.Context(), userID, skip, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch transactions"})
		return
	}

	c.JSON(http.StatusOK, page)
}

// Deduct spends credits from the caller's wallet.
func (h *WalletHandler) Deduct(c *gin.Context) {
	userID := c.GetString("userID")

	var request struct {
		Credits     int    `json:"credits" binding:"required"`
		Description string `json:"description"`
	}

	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if request.Credits <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Credits must be positive"})
		return
	}

	newBalance, err := h.service.Debit(c.Request.Context(), userID, request.Credits, request.Description)
	if errors.Is(err, services.ErrInsufficientCredits) {
		c.JSON(http.StatusPaymentRequired, gin.H{"error": "Insufficient credits"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to deduct credits"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":    "Credits deducted",
		"newBalance": newBalance,
	})
}

// AdjustCredits applies a signed manual correction to a user's wallet.
func (h *WalletHandler) AdjustCredits(c *gin.Context) {
	userID := c.Param("userId")
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "User ID required"})
		return
	}

	var request struct {
		Credits int    `json:"credits" binding:"required"`
		Note    string `json:"note"`
	}

	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	newBalance, err := h.service.Adjust(c.Request.Context(), userID, request.Credits, request.Note)
	if errors.Is(err, services.ErrInsufficientCredits) {
		c.JSON(http.StatusConflict, gin.H{"error": "Adjustment would make balance negative"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to adjust credits"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":    "Credits adjusted",
		"newBalance": newBalance,
	})
}

// RefundCredits restores previously deducted credits.
func (h *WalletHandler) RefundCredits(c *gin.Context) {
	userID := c.Param("userId")
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "User ID required"})
		return
	}

	var request struct {
		Credits   int    `json:"credits" binding:"required"`
		Reference string `json:"reference"`
	}

	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if request.Credits <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Credits must be positive"})
		return
	}

	newBalance, err := h.service.Refund(c.Request.Context(), userID, request.Credits, request.Reference)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to refund credits"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":    "Credits refunded",
		"newBalance": newBalance,
	})
}
