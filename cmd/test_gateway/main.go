package main

import (
	"flag"
	"log"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"arogya_api_echo/internal/config"
	"arogya_api_echo/internal/services"
)

// Manual check against the gateway sandbox: creates a real order with the
// configured credentials and prints what came back.
func main() {
	amount := flag.Int64("amount", 10000, "Amount in paise (default Rs 100)")
	currency := flag.String("currency", "INR", "ISO currency code")
	flag.Parse()

	// Load envs
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	if cfg.IsProduction() {
		log.Fatal("Refusing to create test orders against production credentials")
	}

	gateway := services.NewRazorpayService(cfg)

	receipt := "rcpt_" + uuid.NewString()
	log.Printf("Creating order: %d %s (receipt %s)", *amount, *currency, receipt)

	order, err := gateway.CreateOrder(*amount, *currency, receipt, map[string]interface{}{
		"purpose": "sandbox-check",
	})
	if err != nil {
		log.Fatalf("Failed to create order: %v", err)
	}

	log.Printf("Order created: id=%s amount=%d currency=%s status=%s",
		order.ID, order.AmountPaise, order.Currency, order.Status)
}
