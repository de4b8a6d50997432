package gateway

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"testing"

	"interviewcredits/internal/config"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testGateway(webhookSecret string) *RazorpayGateway {
	return NewRazorpayGateway(&config.Config{
		Razorpay:      config.RazorpayConfig{WebhookSecret: webhookSecret},
		MerchantUPIID: "merchant@upi",
		MerchantName:  "InterviewCredits",
	})
}

func sign(body, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(body))
	return hex.EncodeToString(mac.Sum(nil))
}

func TestBuildUPILink_Deterministic(t *testing.T) {
	g := testGateway("")

	amount := decimal.NewFromInt(100)
	link := g.BuildUPILink("order_abc", amount, "")

	assert.Equal(t, "upi://pay?pa=merchant@upi&pn=InterviewCredits&tn=order_abc&am=100.00&cu=INR", link)
	assert.Equal(t, link, g.BuildUPILink("order_abc", amount, ""))
}

func TestBuildUPILink_IncludesRemoteReference(t *testing.T) {
	g := testGateway("")

	link := g.BuildUPILink("order_abc", decimal.RequireFromString("225.00"), "rzp_order_1")

	assert.Contains(t, link, "am=225.00")
	assert.True(t, strings.HasSuffix(link, "&tr=rzp_order_1"))
}

func TestVerifyWebhookSignature(t *testing.T) {
	g := testGateway("whsecret")
	body := `{"event":"payment.captured"}`

	assert.True(t, g.VerifyWebhookSignature([]byte(body), sign(body, "whsecret")))
	assert.False(t, g.VerifyWebhookSignature([]byte(body), sign(body, "wrong-secret")))
	assert.False(t, g.VerifyWebhookSignature([]byte(body), ""))
	assert.False(t, g.VerifyWebhookSignature([]byte(body+" "), sign(body, "whsecret")))
}

func TestVerifyWebhookSignature_FailsClosedWithoutSecret(t *testing.T) {
	g := testGateway("")
	body := `{"event":"payment.captured"}`

	assert.False(t, g.VerifyWebhookSignature([]byte(body), sign(body, "")))
}

func TestRenderQRCode_DataURL(t *testing.T) {
	g := testGateway("")

	qr, err := g.RenderQRCode("upi://pay?pa=merchant@upi&am=100.00")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(qr, "data:image/png;base64,"))
}

func TestDisabledGatewayRejectsOrderCreation(t *testing.T) {
	g := testGateway("")

	require.False(t, g.Enabled())
	_, err := g.CreateOrder("order_abc", decimal.NewFromInt(100), "u@example.com")
	assert.Error(t, err)
}
