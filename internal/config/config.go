package config

import (
	"fmt"
	"os"
)

// EnvProduction is the environment value that enables strict secret checks
// and disables every test-only code path.
const EnvProduction = "production"

// Config holds every environment-supplied setting. It is loaded once in the
// cmd mains and passed down by injection; business logic never reads the
// process environment directly.
type Config struct {
	Environment string
	Port        string

	DatabaseURL string
	RedisURL    string

	// Razorpay checkout credentials. The key secret also signs the
	// order_id|payment_id checkout callback.
	RazorpayKeyID     string
	RazorpayKeySecret string

	// WebhookSecret signs webhook bodies. Distinct trust boundary from the
	// checkout secret, configured separately on the gateway dashboard.
	WebhookSecret string

	FirebaseCredentialsPath string

	SMTPHost     string
	SMTPPort     string
	SMTPUser     string
	SMTPPassword string
	EmailFrom    string
}

// Load reads the configuration from the environment. In production a missing
// signing secret is a hard error so the process refuses to start instead of
// falling back to a weak or empty key.
func Load() (*Config, error) {
	cfg := &Config{
		Environment:             os.Getenv("APP_ENV"),
		Port:                    os.Getenv("PORT"),
		DatabaseURL:             os.Getenv("DATABASE_URL"),
		RedisURL:                os.Getenv("REDIS_URL"),
		RazorpayKeyID:           os.Getenv("RAZORPAY_KEY_ID"),
		RazorpayKeySecret:       os.Getenv("RAZORPAY_KEY_SECRET"),
		WebhookSecret:           os.Getenv("RAZORPAY_WEBHOOK_SECRET"),
		FirebaseCredentialsPath: os.Getenv("FIREBASE_CREDENTIALS_PATH"),
		SMTPHost:                os.Getenv("SMTP_HOST"),
		SMTPPort:                os.Getenv("SMTP_PORT"),
		SMTPUser:                os.Getenv("SMTP_USER"),
		SMTPPassword:            os.Getenv("SMTP_PASS"),
		EmailFrom:               os.Getenv("EMAIL_FROM"),
	}

	if cfg.Environment == "" {
		cfg.Environment = "development"
	}
	if cfg.Port == "" {
		cfg.Port = "8080"
	}
	if cfg.FirebaseCredentialsPath == "" {
		cfg.FirebaseCredentialsPath = "./firebase-service-account.json"
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if !c.IsProduction() {
		// Outside production empty secrets are allowed: the HMAC is then
		// computed with the empty key as-is, never a substitute value.
		return nil
	}
	if c.RazorpayKeySecret == "" {
		return fmt.Errorf("RAZORPAY_KEY_SECRET is required in production")
	}
	if c.WebhookSecret == "" {
		return fmt.Errorf("RAZORPAY_WEBHOOK_SECRET is required in production")
	}
	return nil
}

// IsProduction reports whether the strict production rules apply.
func (c *Config) IsProduction() bool {
	return c.Environment == EnvProduction
}
