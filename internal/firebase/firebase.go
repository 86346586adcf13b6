// Package firebase builds the Firebase clients used by the Firestore store
// backend and by firebase auth mode.
package firebase

import (
	"context"
	"encoding/base64"

	"cloud.google.com/go/firestore"
	fb "firebase.google.com/go"
	"firebase.google.com/go/auth"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"github.com/mrlokans/matjip/internal/config"
)

var ErrMissingProjectID = errors.New("FIREBASE_PROJECT_ID is required")

// App wraps an initialized Firebase app. Clients are created lazily and
// shared.
type App struct {
	app       *fb.App
	firestore *firestore.Client
	auth      *auth.Client
	log       *zap.Logger
}

// clientOptions turns the configured credentials into client options. Without
// credentials the app falls back to application default credentials, which
// is also what the emulators expect.
func clientOptions(cfg config.Firebase) ([]option.ClientOption, error) {
	if cfg.CredentialsBase64 == "" {
		return nil, nil
	}
	raw, err := base64.StdEncoding.DecodeString(cfg.CredentialsBase64)
	if err != nil {
		return nil, errors.Wrap(err, "failed to decode FIREBASE_CREDENTIALS_BASE64")
	}
	return []option.ClientOption{option.WithCredentialsJSON(raw)}, nil
}

func NewApp(ctx context.Context, cfg config.Firebase, log *zap.Logger) (*App, error) {
	if cfg.ProjectID == "" {
		return nil, ErrMissingProjectID
	}
	opts, err := clientOptions(cfg)
	if err != nil {
		return nil, err
	}
	app, err := fb.NewApp(ctx, &fb.Config{ProjectID: cfg.ProjectID}, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to initialize firebase app")
	}
	log.Info("firebase app initialized", zap.String("project", cfg.ProjectID))
	return &App{app: app, log: log}, nil
}

func (a *App) Firestore(ctx context.Context) (*firestore.Client, error) {
	if a.firestore != nil {
		return a.firestore, nil
	}
	client, err := a.app.Firestore(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create firestore client")
	}
	a.firestore = client
	return client, nil
}

func (a *App) Auth(ctx context.Context) (*auth.Client, error) {
	if a.auth != nil {
		return a.auth, nil
	}
	client, err := a.app.Auth(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create firebase auth client")
	}
	a.auth = client
	return client, nil
}

// Close releases the Firestore connection if one was opened.
func (a *App) Close() error {
	if a.firestore == nil {
		return nil
	}
	return a.firestore.Close()
}
