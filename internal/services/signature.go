package services

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"arogya_api_echo/internal/config"
)

// stubPaymentPrefix marks synthetic payment ids used by automated and manual
// testing to complete the flow without a live gateway. The bypass is gated on
// the environment and never applies in production.
const stubPaymentPrefix = "stub_pay_"

// SignatureVerifier checks checkout-callback and webhook signatures. The two
// secrets are separate trust boundaries: the checkout secret signs
// "orderID|paymentID" handed to the client, the webhook secret signs the raw
// webhook body delivered server-to-server.
type SignatureVerifier struct {
	checkoutSecret string
	webhookSecret  string
	production     bool
}

func NewSignatureVerifier(cfg *config.Config) *SignatureVerifier {
	return &SignatureVerifier{
		checkoutSecret: cfg.RazorpayKeySecret,
		webhookSecret:  cfg.WebhookSecret,
		production:     cfg.IsProduction(),
	}
}

// VerifyCheckoutSignature reports whether the client-submitted checkout
// callback was signed by the gateway: HMAC-SHA256 over
// "{orderID}|{paymentID}" with the checkout secret, hex encoded.
func (v *SignatureVerifier) VerifyCheckoutSignature(orderID, paymentID, signature string) bool {
	if !v.production && strings.HasPrefix(paymentID, stubPaymentPrefix) {
		return true
	}
	expected := hmacSHA256Hex(v.checkoutSecret, []byte(orderID+"|"+paymentID))
	return hmac.Equal([]byte(expected), []byte(signature))
}

// VerifyWebhookSignature reports whether the raw webhook body carries a valid
// gateway signature. No stub bypass here: webhooks are server-to-server.
func (v *SignatureVerifier) VerifyWebhookSignature(body []byte, signature string) bool {
	expected := hmacSHA256Hex(v.webhookSecret, body)
	return hmac.Equal([]byte(expected), []byte(signature))
}

// hmacSHA256Hex computes the hex HMAC with the secret exactly as configured.
// An empty secret outside production is used as the empty key, never swapped
// for a placeholder; production startup already refused an empty secret.
func hmacSHA256Hex(secret string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}
