package auth

import (
	"context"
	"strings"
	"time"

	fbauth "firebase.google.com/go/auth"
	"github.com/pkg/errors"
	"github.com/spf13/cast"

	"github.com/mrlokans/matjip/internal/entities"
)

var ErrInvalidToken = errors.New("invalid token")

// TokenVerifier checks Firebase ID tokens. Implemented by *auth.Client from
// the Firebase Admin SDK.
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*fbauth.Token, error)
}

// FirebaseAuthenticator turns bearer ID tokens into sessions.
type FirebaseAuthenticator struct {
	verifier TokenVerifier
}

func NewFirebaseAuthenticator(v TokenVerifier) *FirebaseAuthenticator {
	return &FirebaseAuthenticator{verifier: v}
}

// Authenticate verifies idToken and returns the session of its subject.
func (a *FirebaseAuthenticator) Authenticate(ctx context.Context, idToken string) (*Session, error) {
	if idToken == "" {
		return nil, ErrInvalidToken
	}
	tok, err := a.verifier.VerifyIDToken(ctx, idToken)
	if err != nil {
		return nil, errors.Wrap(ErrInvalidToken, err.Error())
	}
	return sessionFromToken(tok), nil
}

func sessionFromToken(tok *fbauth.Token) *Session {
	s := &Session{
		UserID:   tok.UID,
		Role:     entities.UserRoleMember,
		AuthType: AuthTypeFirebase,
		IssuedAt: time.Unix(tok.IssuedAt, 0).UTC(),
	}
	if tok.Claims != nil {
		s.Email = cast.ToString(tok.Claims["email"])
		s.DisplayName = cast.ToString(tok.Claims["name"])
		if cast.ToBool(tok.Claims["admin"]) {
			s.Role = entities.UserRoleAdmin
		}
	}
	return s
}

// bearerToken extracts the token from "Authorization: Bearer <token>".
func bearerToken(header string) (string, bool) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}
