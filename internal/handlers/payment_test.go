package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"interviewcredits/internal/models"
	"interviewcredits/internal/services"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubGateway struct {
	validSignature string
}

func (s *stubGateway) Enabled() bool { return false }

func (s *stubGateway) CreateOrder(orderID string, amountINR decimal.Decimal, userEmail string) (string, error) {
	return "", fmt.Errorf("disabled")
}

func (s *stubGateway) VerifyWebhookSignature(body []byte, signature string) bool {
	return signature == s.validSignature && signature != ""
}

func (s *stubGateway) BuildUPILink(orderID string, amountINR decimal.Decimal, remoteOrderID string) string {
	return "upi://pay?pa=merchant@upi&tn=" + orderID
}

func (s *stubGateway) RenderQRCode(upiLink string) (string, error) {
	return "", fmt.Errorf("no renderer")
}

func newWebhookRouter(t *testing.T) (*gin.Engine, sqlmock.Sqlmock) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	svc := services.NewPaymentService(
		sqlx.NewDb(db, "sqlmock"),
		models.DefaultCreditPackCatalog(),
		&stubGateway{validSignature: "good"},
	)
	handler := NewPaymentHandler(svc)

	router := gin.New()
	router.GET("/packs", handler.GetPacks)
	router.POST("/payments/webhook", handler.Webhook)
	return router, mock
}

func postWebhook(router *gin.Engine, body, signature string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/payments/webhook", bytes.NewBufferString(body))
	if signature != "" {
		req.Header.Set(SignatureHeader, signature)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestGetPacks(t *testing.T) {
	router, _ := newWebhookRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/packs", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "10 Credits Pack")
	assert.Contains(t, w.Body.String(), "100 Credits Pack")
}

func TestWebhook_BadSignatureReturns400(t *testing.T) {
	router, mock := newWebhookRouter(t)

	w := postWebhook(router, `{"payload":{"payment":{"entity":{"id":"p","order_id":"o","status":"captured","amount":100}}}}`, "bad")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid signature")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWebhook_MissingSignatureReturns400(t *testing.T) {
	router, mock := newWebhookRouter(t)

	w := postWebhook(router, `{}`, "")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWebhook_UnknownOrderReturns404(t *testing.T) {
	router, mock := newWebhookRouter(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM payments`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectRollback()

	w := postWebhook(router, `{"payload":{"payment":{"entity":{"id":"p","order_id":"order_x","status":"captured","amount":100}}}}`, "good")

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWebhook_CapturedReturns200WithCredits(t *testing.T) {
	router, mock := newWebhookRouter(t)

	rows := sqlmock.NewRows([]string{
		"id", "user_id", "order_id", "amount_inr", "currency",
		"status", "method", "payload_json", "signature", "created_at",
	}).AddRow(int64(1), "user-1", "order_x", "100.00", "INR",
		"created", "UPI", []byte(`{"pack_id":1,"credits":10}`), nil, time.Now())

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM payments`).WillReturnRows(rows)
	mock.ExpectExec("UPDATE payments SET status").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("INSERT INTO wallets").
		WillReturnRows(sqlmock.NewRows([]string{"balance_credits"}).AddRow(10))
	mock.ExpectQuery("INSERT INTO transactions").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(1)))
	mock.ExpectCommit()

	w := postWebhook(router, `{"payload":{"payment":{"entity":{"id":"pay_1","order_id":"order_x","status":"captured","amount":10000}}}}`, "good")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"creditsAdded":10`)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWebhook_AuthorizedReturns200Pending(t *testing.T) {
	router, mock := newWebhookRouter(t)

	rows := sqlmock.NewRows([]string{
		"id", "user_id", "order_id", "amount_inr", "currency",
		"status", "method", "payload_json", "signature", "created_at",
	}).AddRow(int64(1), "user-1", "order_x", "100.00", "INR",
		"created", "UPI", []byte(`{"pack_id":1,"credits":10}`), nil, time.Now())

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM payments`).WillReturnRows(rows)
	mock.ExpectRollback()

	w := postWebhook(router, `{"payload":{"payment":{"entity":{"id":"pay_1","order_id":"order_x","status":"authorized","amount":10000}}}}`, "good")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Payment pending")
	assert.Contains(t, w.Body.String(), `"status":"created"`)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWebhook_DuplicateDeliveryReturns200NoOp(t *testing.T) {
	router, mock := newWebhookRouter(t)

	rows := sqlmock.NewRows([]string{
		"id", "user_id", "order_id", "amount_inr", "currency",
		"status", "method", "payload_json", "signature", "created_at",
	}).AddRow(int64(1), "user-1", "order_x", "100.00", "INR",
		"success", "UPI", []byte(`{"pack_id":1,"credits":10}`), nil, time.Now())

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM payments`).WillReturnRows(rows)
	mock.ExpectRollback()

	w := postWebhook(router, `{"payload":{"payment":{"entity":{"id":"pay_1","order_id":"order_x","status":"captured","amount":10000}}}}`, "good")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "already processed")
	assert.NoError(t, mock.ExpectationsWereMet())
}
