package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"atelier/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	// TokenIssuerName is the iss claim of every session token.
	TokenIssuerName = "atelier-api"
	// TokenAudience is the aud claim of every session token.
	TokenAudience = "atelier-client"
)

// ErrInvalidToken covers every way a bearer token can fail to parse or verify.
var ErrInvalidToken = errors.New("invalid or expired token")

// Claims is the identity carried by a session token.
type Claims struct {
	AccountID      uint
	Name           string
	Email          string
	Role           models.Role
	Slug           string
	Status         models.AccountStatus
	SessionVersion int
	TokenID        string
	IssuedAt       time.Time
	ExpiresAt      time.Time
}

// TokenIssuer signs and parses HS256 session tokens.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenIssuer returns an issuer signing with secret; tokens live for ttl.
func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue signs a token embedding the account identity and its current session version.
func (i *TokenIssuer) Issue(acc *models.Account) (string, *Claims, error) {
	now := i.now().UTC()
	claims := &Claims{
		AccountID:      acc.ID,
		Name:           acc.Name,
		Email:          acc.Email,
		Role:           acc.Role,
		Slug:           acc.Slug,
		Status:         acc.Status,
		SessionVersion: acc.SessionVersion,
		TokenID:        uuid.NewString(),
		IssuedAt:       now,
		ExpiresAt:      now.Add(i.ttl),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":    strconv.FormatUint(uint64(acc.ID), 10),
		"name":   claims.Name,
		"email":  claims.Email,
		"role":   string(claims.Role),
		"slug":   claims.Slug,
		"status": string(claims.Status),
		"sv":     claims.SessionVersion,
		"iss":    TokenIssuerName,
		"aud":    TokenAudience,
		"iat":    now.Unix(),
		"nbf":    now.Unix(),
		"exp":    claims.ExpiresAt.Unix(),
		"jti":    claims.TokenID,
	})

	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", nil, fmt.Errorf("sign token: %w", err)
	}
	return signed, claims, nil
}

// Parse verifies signature, issuer, audience and expiry and extracts the claims.
// It does not consult the account store; see SessionValidator.
func (i *TokenIssuer) Parse(tokenString string) (*Claims, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return i.secret, nil
	},
		jwt.WithIssuer(TokenIssuerName),
		jwt.WithAudience(TokenAudience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	mc, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}

	sub, _ := mc["sub"].(string)
	id, err := strconv.ParseUint(sub, 10, 32)
	if err != nil || id == 0 {
		return nil, ErrInvalidToken
	}
	sv, ok := mc["sv"].(float64)
	if !ok {
		return nil, ErrInvalidToken
	}

	claims := &Claims{
		AccountID:      uint(id),
		SessionVersion: int(sv),
	}
	claims.Name, _ = mc["name"].(string)
	claims.Email, _ = mc["email"].(string)
	claims.Slug, _ = mc["slug"].(string)
	claims.TokenID, _ = mc["jti"].(string)
	if role, ok := mc["role"].(string); ok {
		claims.Role = models.Role(role)
	}
	if status, ok := mc["status"].(string); ok {
		claims.Status = models.AccountStatus(status)
	}
	if iat, err := mc.GetIssuedAt(); err == nil && iat != nil {
		claims.IssuedAt = iat.Time
	}
	if exp, err := mc.GetExpirationTime(); err == nil && exp != nil {
		claims.ExpiresAt = exp.Time
	}
	return claims, nil
}
