// ===============================
// internal/services/errors.go
// ===============================

package services

import "errors"

// Business errors surfaced to handlers. Everything else is a storage or
// gateway fault and is wrapped with context instead.
var (
	ErrInvalidPack         = errors.New("invalid credit pack")
	ErrInsufficientCredits = errors.New("insufficient credits")
	ErrUnknownOrder        = errors.New("payment not found for order")
	ErrInvalidSignature    = errors.New("invalid webhook signature")
	ErrMalformedPayload    = errors.New("malformed webhook payload")
)
