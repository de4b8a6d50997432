// ===============================
// internal/gateway/razorpay.go
// ===============================

package gateway

import (
	"encoding/base64"
	"fmt"
	"net/url"

	"interviewcredits/internal/config"

	razorpay "github.com/razorpay/razorpay-go"
	"github.com/razorpay/razorpay-go/utils"
	qrcode "github.com/skip2/go-qrcode"
	"github.com/shopspring/decimal"
)

// orderTimeoutSeconds bounds the outbound order-creation call. A timeout
// leaves the local payment in 'created' with no remote reference.
const orderTimeoutSeconds = 10

// RazorpayGateway wraps the Razorpay client plus the merchant identity used
// for UPI deep links.
type RazorpayGateway struct {
	client        *razorpay.Client
	webhookSecret string
	merchantUPIID string
	merchantName  string
	enabled       bool
}

// NewRazorpayGateway creates the gateway adapter. Without credentials the
// adapter still builds deep links and QR codes but skips remote order
// creation and rejects every webhook signature.
func NewRazorpayGateway(cfg *config.Config) *RazorpayGateway {
	g := &RazorpayGateway{
		webhookSecret: cfg.Razorpay.WebhookSecret,
		merchantUPIID: cfg.MerchantUPIID,
		merchantName:  cfg.MerchantName,
		enabled:       cfg.GatewayEnabled(),
	}

	if g.enabled {
		g.client = razorpay.NewClient(cfg.Razorpay.KeyID, cfg.Razorpay.KeySecret)
		g.client.SetTimeout(orderTimeoutSeconds)
	}

	return g
}

// Enabled reports whether remote order creation is configured.
func (g *RazorpayGateway) Enabled() bool {
	return g.enabled
}

// CreateOrder registers the order with Razorpay and returns the remote order
// reference. Amount is converted to paise as the gateway requires.
func (g *RazorpayGateway) CreateOrder(orderID string, amountINR decimal.Decimal, userEmail string) (string, error) {
	if !g.enabled {
		return "", fmt.Errorf("razorpay credentials not configured")
	}

	data := map[string]interface{}{
		"amount":   amountINR.Mul(decimal.NewFromInt(100)).IntPart(),
		"currency": "INR",
		"receipt":  orderID,
		"notes": map[string]interface{}{
			"user_email": userEmail,
			"order_type": "credit_purchase",
		},
	}

	order, err := g.client.Order.Create(data, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create razorpay order: %w", err)
	}

	remoteID, ok := order["id"].(string)
	if !ok || remoteID == "" {
		return "", fmt.Errorf("razorpay order response missing id")
	}

	return remoteID, nil
}

// VerifyWebhookSignature checks the HMAC-SHA256 signature over the exact raw
// webhook body. A missing secret fails closed.
func (g *RazorpayGateway) VerifyWebhookSignature(body []byte, signature string) bool {
	if g.webhookSecret == "" || signature == "" {
		return false
	}
	return utils.VerifyWebhookSignature(string(body), signature, g.webhookSecret)
}

// BuildUPILink builds the UPI deep link for an order. The link is
// deterministic for a given order: merchant identity, order_id as the
// transaction note, and the amount in INR.
func (g *RazorpayGateway) BuildUPILink(orderID string, amountINR decimal.Decimal, remoteOrderID string) string {
	link := fmt.Sprintf("upi://pay?pa=%s&pn=%s&tn=%s&am=%s&cu=INR",
		g.merchantUPIID, url.QueryEscape(g.merchantName), orderID, amountINR.StringFixed(2))
	if remoteOrderID != "" {
		link += "&tr=" + remoteOrderID
	}
	return link
}

// RenderQRCode renders a UPI link as a base64 PNG data URL. Rendering is
// purely cosmetic; failures are reported but never block the order.
func (g *RazorpayGateway) RenderQRCode(upiLink string) (string, error) {
	png, err := qrcode.Encode(upiLink, qrcode.Medium, 256)
	if err != nil {
		return "", fmt.Errorf("failed to render QR code: %w", err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}
