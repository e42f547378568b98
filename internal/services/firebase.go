package services

import (
	"context"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"

	"arogya_api_echo/internal/config"
)

// InitFirebase initializes the Firebase Admin SDK and returns an auth client
func InitFirebase(cfg *config.Config) (*auth.Client, error) {
	opt := option.WithCredentialsFile(cfg.FirebaseCredentialsPath)
	app, err := firebase.NewApp(context.Background(), nil, opt)
	if err != nil {
		return nil, err
	}
	return app.Auth(context.Background())
}
