// Package auth handles credential checks and session tokens.
package auth

import (
	"context"

	"github.com/mmynk/fintrack/internal/models"
)

// Authenticator verifies who a caller is.
// PasswordAuthenticator is the only implementation; the interface keeps the
// service layer independent of the credential type.
type Authenticator interface {
	// Register creates a new user account with the given email and credential.
	Register(ctx context.Context, email, displayName, credential string) (*models.User, error)

	// Authenticate verifies the user's credentials and returns the user if successful.
	Authenticate(ctx context.Context, email, credential string) (*models.User, error)

	// ValidateCredential checks if the credential meets the implementation's requirements.
	ValidateCredential(credential string) error
}

// TokenManager issues and verifies session tokens.
type TokenManager interface {
	Generate(user *models.User) (string, error)
	Validate(token string) (*Claims, error)
}

var (
	_ Authenticator = (*PasswordAuthenticator)(nil)
	_ TokenManager  = (*JWTManager)(nil)
)
