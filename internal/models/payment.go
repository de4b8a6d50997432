// ===============================
// internal/models/payment.go
// ===============================

package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Payment statuses. Transitions are one-way: created -> success or
// created -> failed. Both terminal states are absorbing.
const (
	PaymentStatusCreated = "created"
	PaymentStatusSuccess = "success"
	PaymentStatusFailed  = "failed"
)

// Payment mirrors one gateway order. OrderID is globally unique and acts as
// the idempotency key for webhook settlement.
type Payment struct {
	ID        int64           `json:"id" db:"id"`
	UserID    string          `json:"userId" db:"user_id"`
	OrderID   string          `json:"orderId" db:"order_id"`
	AmountINR decimal.Decimal `json:"amountInr" db:"amount_inr"`
	Currency  string          `json:"currency" db:"currency"`
	Status    string          `json:"status" db:"status"`
	Method    string          `json:"method" db:"method"`
	Payload   PaymentPayload  `json:"payload" db:"payload_json"`
	Signature *string         `json:"-" db:"signature"`
	CreatedAt time.Time       `json:"createdAt" db:"created_at"`
}

// IsTerminal reports whether the payment has reached an absorbing state.
func (p *Payment) IsTerminal() bool {
	return p.Status == PaymentStatusSuccess || p.Status == PaymentStatusFailed
}

// PaymentPayload is the gateway metadata attached to a payment. PackID and
// Credits are fixed at order creation; RazorpayOrderID is set once after the
// remote order is created and stays empty if the gateway call failed.
type PaymentPayload struct {
	PackID          int    `json:"pack_id"`
	Credits         int    `json:"credits"`
	RazorpayOrderID string `json:"razorpay_order_id,omitempty"`
}

func (p PaymentPayload) Value() (driver.Value, error) {
	return json.Marshal(p)
}

func (p *PaymentPayload) Scan(value interface{}) error {
	if value == nil {
		*p = PaymentPayload{}
		return nil
	}
	b, ok := value.([]byte)
	if !ok {
		return fmt.Errorf("unsupported payload type %T", value)
	}
	return json.Unmarshal(b, p)
}

// CreateOrderRequest is the order creation input.
type CreateOrderRequest struct {
	PackID int `json:"pack_id" binding:"required"`
}

// CreateOrderResponse is returned from order creation. QRCode is a base64
// PNG data URL and may be empty when rendering is unavailable.
type CreateOrderResponse struct {
	OrderID string          `json:"order_id"`
	Amount  decimal.Decimal `json:"amount"`
	UPILink string          `json:"upi_link"`
	QRCode  string          `json:"qr_code,omitempty"`
}

// WebhookEvent is the gateway notification envelope. Razorpay nests the
// payment entity under payload.payment.entity.
type WebhookEvent struct {
	Event   string `json:"event"`
	Payload struct {
		Payment struct {
			Entity WebhookPaymentEntity `json:"entity"`
		} `json:"payment"`
	} `json:"payload"`
}

// WebhookPaymentEntity carries the fields settlement needs. Amount is in the
// currency's minor unit (paise).
type WebhookPaymentEntity struct {
	ID      string          `json:"id"`
	OrderID string          `json:"order_id"`
	Status  string          `json:"status"`
	Amount  decimal.Decimal `json:"amount"`
}

// Gateway-reported payment statuses that end the settlement state machine.
// captured settles the payment as successful, failed marks it failed; every
// other reported status (created, authorized, ...) is non-terminal and leaves
// the local payment untouched for a later delivery.
const (
	GatewayStatusCaptured = "captured"
	GatewayStatusFailed   = "failed"
)
