package auth

import (
	"context"
	"errors"

	"atelier/internal/models"
)

// AccountLookup loads the live account record for a token subject.
type AccountLookup interface {
	GetByID(ctx context.Context, id uint) (*models.Account, error)
}

// SessionValidator checks a bearer token against the live account, so that
// disabling an account or bumping its session version invalidates every
// previously issued token.
type SessionValidator struct {
	issuer   *TokenIssuer
	accounts AccountLookup
}

// NewSessionValidator builds a validator over issuer and accounts.
func NewSessionValidator(issuer *TokenIssuer, accounts AccountLookup) *SessionValidator {
	return &SessionValidator{issuer: issuer, accounts: accounts}
}

// Validate returns the current account for token. Every rejection is an
// unauthenticated AppError; lookup failures other than not-found are internal.
func (v *SessionValidator) Validate(ctx context.Context, token string) (*models.Account, *Claims, error) {
	claims, err := v.issuer.Parse(token)
	if err != nil {
		return nil, nil, models.NewUnauthenticatedError("Invalid or expired token")
	}

	acc, err := v.accounts.GetByID(ctx, claims.AccountID)
	if err != nil {
		if models.HasCode(err, models.CodeNotFound) {
			return nil, nil, models.NewUnauthenticatedError("Account no longer exists")
		}
		var appErr *models.AppError
		if errors.As(err, &appErr) {
			return nil, nil, err
		}
		return nil, nil, models.NewInternalError(err)
	}
	if !acc.IsActive() {
		return nil, nil, models.NewUnauthenticatedError("Account is disabled")
	}
	if acc.SessionVersion != claims.SessionVersion {
		return nil, nil, models.NewUnauthenticatedError("Session has been revoked")
	}
	return acc, claims, nil
}
