package services

import "errors"

// Sentinel errors surfaced by the payment workflow. The HTTP error handler
// maps them onto status codes; services wrap them with fmt.Errorf("%w").
var (
	// ErrInvalidAmount is returned when an order is requested below the
	// gateway minimum of 100 paise.
	ErrInvalidAmount = errors.New("amount must be at least 100 paise")

	// ErrUserNotFound is returned when the order references a user this
	// system has no row for.
	ErrUserNotFound = errors.New("user not found")

	// ErrGatewayError covers upstream gateway failures. Not retried
	// server-side; the client retries from the UI to avoid duplicate orders.
	ErrGatewayError = errors.New("payment gateway error")

	// ErrGatewayTimeout is the bounded-timeout case of ErrGatewayError.
	ErrGatewayTimeout = errors.New("payment gateway timeout")

	// ErrInvalidWebhookSignature rejects a webhook before any state is read
	// or written. Logged as a potential tampering attempt.
	ErrInvalidWebhookSignature = errors.New("invalid webhook signature")

	// ErrMalformedPayload rejects a webhook body that cannot be parsed.
	ErrMalformedPayload = errors.New("malformed webhook payload")

	// ErrPaymentNotFound means a webhook references an order this system
	// never created.
	ErrPaymentNotFound = errors.New("payment not found")

	// ErrVerificationFailed is the checkout-callback signature mismatch,
	// surfaced to the end user as "payment could not be verified".
	ErrVerificationFailed = errors.New("payment could not be verified")

	// ErrPlanPriceMismatch aborts subscription fulfillment when the paid
	// amount does not match the plan's current price. Requires manual
	// reconciliation.
	ErrPlanPriceMismatch = errors.New("paid amount does not match plan price")
)
