// ===============================
// internal/services/payment.go
// ===============================

package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"interviewcredits/internal/models"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// orderIDAttempts bounds regeneration when a freshly generated order id
// collides with an existing row. The token space makes more than one
// attempt effectively unreachable, but the path has to exist.
const orderIDAttempts = 3

// PaymentGateway is the remote side of order creation and webhook
// verification, implemented by gateway.RazorpayGateway.
type PaymentGateway interface {
	Enabled() bool
	CreateOrder(orderID string, amountINR decimal.Decimal, userEmail string) (string, error)
	VerifyWebhookSignature(body []byte, signature string) bool
	BuildUPILink(orderID string, amountINR decimal.Decimal, remoteOrderID string) string
	RenderQRCode(upiLink string) (string, error)
}

// Settlement outcomes. AlreadyProcessed means a duplicate delivery hit a
// terminal payment and nothing was mutated; Pending means the reported
// gateway status was non-terminal and the payment stays open.
type SettlementOutcome string

const (
	SettlementApplied          SettlementOutcome = "applied"
	SettlementAlreadyProcessed SettlementOutcome = "already_processed"
	SettlementMarkedFailed     SettlementOutcome = "marked_failed"
	SettlementPending          SettlementOutcome = "pending"
)

// SettlementResult reports what a webhook delivery did, letting callers tell
// idempotent no-ops apart from fresh settlements without error sniffing.
type SettlementResult struct {
	Outcome      SettlementOutcome `json:"outcome"`
	OrderID      string            `json:"orderId"`
	Status       string            `json:"status"`
	CreditsAdded int               `json:"creditsAdded"`
}

type PaymentService struct {
	db      *sqlx.DB
	catalog *models.CreditPackCatalog
	gateway PaymentGateway
}

func NewPaymentService(db *sqlx.DB, catalog *models.CreditPackCatalog, gateway PaymentGateway) *PaymentService {
	return &PaymentService{db: db, catalog: catalog, gateway: gateway}
}

// Packs returns the purchasable pack lineup.
func (s *PaymentService) Packs() []models.CreditPack {
	return s.catalog.List()
}

// CreateOrder starts a credit purchase. The local payment row is persisted
// before the gateway is contacted, so a gateway outage never loses the order;
// the remote reference is attached afterwards in a second short write.
func (s *PaymentService) CreateOrder(ctx context.Context, userID, userEmail string, packID int) (*models.CreateOrderResponse, error) {
	pack, ok := s.catalog.Lookup(packID)
	if !ok {
		return nil, ErrInvalidPack
	}

	payment := &models.Payment{
		UserID:    userID,
		AmountINR: pack.AmountINR,
		Currency:  "INR",
		Status:    models.PaymentStatusCreated,
		Method:    "UPI",
		Payload: models.PaymentPayload{
			PackID:  pack.ID,
			Credits: pack.Credits,
		},
	}

	if err := s.insertPayment(ctx, payment); err != nil {
		return nil, err
	}

	// Gateway call happens outside any database transaction. On failure the
	// local order stays payable via the deep link, just without a remote
	// reference.
	remoteOrderID := ""
	if s.gateway.Enabled() {
		id, err := s.gateway.CreateOrder(payment.OrderID, pack.AmountINR, userEmail)
		if err != nil {
			log.Printf("⚠️  Razorpay order creation failed for %s: %v", payment.OrderID, err)
		} else {
			remoteOrderID = id
			if err := s.attachRemoteOrder(ctx, payment, id); err != nil {
				log.Printf("⚠️  Failed to store remote order reference for %s: %v", payment.OrderID, err)
			}
		}
	}

	upiLink := s.gateway.BuildUPILink(payment.OrderID, pack.AmountINR, remoteOrderID)

	qrCode := ""
	if qr, err := s.gateway.RenderQRCode(upiLink); err != nil {
		log.Printf("⚠️  QR code generation failed for %s: %v", payment.OrderID, err)
	} else {
		qrCode = qr
	}

	return &models.CreateOrderResponse{
		OrderID: payment.OrderID,
		Amount:  pack.AmountINR,
		UPILink: upiLink,
		QRCode:  qrCode,
	}, nil
}

// insertPayment persists the payment with a fresh order id, regenerating on
// the (theoretical) unique-constraint collision.
func (s *PaymentService) insertPayment(ctx context.Context, payment *models.Payment) error {
	for attempt := 0; attempt < orderIDAttempts; attempt++ {
		payment.OrderID = newOrderID()

		err := s.db.GetContext(ctx, &payment.ID, `
			INSERT INTO payments (user_id, order_id, amount_inr, currency, status, method, payload_json)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING id`,
			payment.UserID, payment.OrderID, payment.AmountINR, payment.Currency,
			payment.Status, payment.Method, payment.Payload)
		if err == nil {
			return nil
		}
		if !isUniqueViolation(err) {
			return fmt.Errorf("failed to create payment: %w", err)
		}
		log.Printf("⚠️  Order id collision on %s, regenerating", payment.OrderID)
	}
	return fmt.Errorf("failed to generate a unique order id after %d attempts", orderIDAttempts)
}

func (s *PaymentService) attachRemoteOrder(ctx context.Context, payment *models.Payment, remoteOrderID string) error {
	payment.Payload.RazorpayOrderID = remoteOrderID
	_, err := s.db.ExecContext(ctx,
		`UPDATE payments SET payload_json = $1 WHERE id = $2`,
		payment.Payload, payment.ID)
	return err
}

// ProcessWebhook settles one gateway notification. Signature verification
// happens over the exact raw body before anything is read from storage. The
// status read, the state transition, the wallet credit and the ledger append
// all commit as one unit; two concurrent deliveries for the same order race
// on the row lock and the loser observes the terminal state and no-ops.
func (s *PaymentService) ProcessWebhook(ctx context.Context, rawBody []byte, signature string) (*SettlementResult, error) {
	if !s.gateway.VerifyWebhookSignature(rawBody, signature) {
		log.Printf("🚨 Security: webhook rejected, signature verification failed")
		return nil, ErrInvalidSignature
	}

	var event models.WebhookEvent
	if err := json.Unmarshal(rawBody, &event); err != nil {
		return nil, ErrMalformedPayload
	}

	entity := event.Payload.Payment.Entity
	if entity.ID == "" || entity.OrderID == "" || entity.Status == "" || entity.Amount.IsZero() {
		return nil, ErrMalformedPayload
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin settlement transaction: %w", err)
	}
	defer tx.Rollback()

	var payment models.Payment
	err = tx.GetContext(ctx, &payment,
		`SELECT * FROM payments WHERE order_id = $1 FOR UPDATE`, entity.OrderID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUnknownOrder
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load payment: %w", err)
	}

	// Terminal states absorb duplicate deliveries.
	if payment.IsTerminal() {
		credits := 0
		if payment.Status == models.PaymentStatusSuccess {
			credits = payment.Payload.Credits
		}
		return &SettlementResult{
			Outcome:      SettlementAlreadyProcessed,
			OrderID:      payment.OrderID,
			Status:       payment.Status,
			CreditsAdded: credits,
		}, nil
	}

	// Only genuinely terminal gateway statuses transition the payment.
	// authorized (and other intermediate states) must not absorb the order:
	// the captured delivery for it may still be on its way.
	captured := entity.Status == models.GatewayStatusCaptured
	if !captured && entity.Status != models.GatewayStatusFailed {
		return &SettlementResult{
			Outcome: SettlementPending,
			OrderID: payment.OrderID,
			Status:  payment.Status,
		}, nil
	}

	newStatus := models.PaymentStatusFailed
	if captured {
		newStatus = models.PaymentStatusSuccess
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE payments SET status = $1, signature = $2 WHERE id = $3`,
		newStatus, signature, payment.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to update payment status: %w", err)
	}

	gatewayName := "razorpay"
	result := &SettlementResult{
		OrderID: payment.OrderID,
		Status:  newStatus,
	}

	if captured {
		credits := payment.Payload.Credits
		if _, err := creditWallet(ctx, tx, payment.UserID, credits); err != nil {
			return nil, err
		}
		_, err = appendTransaction(ctx, tx, &models.Transaction{
			UserID:         payment.UserID,
			Type:           models.TransactionTypePurchase,
			Credits:        credits,
			AmountINR:      &payment.AmountINR,
			Currency:       payment.Currency,
			PaymentGateway: &gatewayName,
			ExternalRef:    &entity.ID,
			Status:         models.TransactionStatusSuccess,
			Description:    fmt.Sprintf("Purchased %d credits", credits),
		})
		if err != nil {
			return nil, err
		}
		result.Outcome = SettlementApplied
		result.CreditsAdded = credits
	} else {
		// Failed payments still get an audit row; it carries status=failed
		// and therefore never counts toward the balance.
		_, err = appendTransaction(ctx, tx, &models.Transaction{
			UserID:         payment.UserID,
			Type:           models.TransactionTypePurchase,
			Credits:        payment.Payload.Credits,
			AmountINR:      &payment.AmountINR,
			Currency:       payment.Currency,
			PaymentGateway: &gatewayName,
			ExternalRef:    &entity.ID,
			Status:         models.TransactionStatusFailed,
			Description:    fmt.Sprintf("Payment %s", entity.Status),
		})
		if err != nil {
			return nil, err
		}
		result.Outcome = SettlementMarkedFailed
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit settlement: %w", err)
	}

	return result, nil
}

// newOrderID builds the caller-chosen idempotency key: a fixed prefix plus a
// 16 character random hex token.
func newOrderID() string {
	token := strings.ReplaceAll(uuid.New().String(), "-", "")
	return "order_" + token[:16]
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
