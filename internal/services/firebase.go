package services

import (
	"context"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"
)

// InitFirebase initializes the Firebase Admin SDK and returns an auth client.
// With an empty credPath the SDK falls back to application default
// credentials (GOOGLE_APPLICATION_CREDENTIALS).
func InitFirebase(credPath string) (*auth.Client, error) {
	var opts []option.ClientOption
	if credPath != "" {
		opts = append(opts, option.WithCredentialsFile(credPath))
	}

	app, err := firebase.NewApp(context.Background(), nil, opts...)
	if err != nil {
		return nil, err
	}
	return app.Auth(context.Background())
}
