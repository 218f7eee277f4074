package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"loan-tracker/internal/domain/apperror"
	"loan-tracker/internal/domain/user"
	"loan-tracker/pkg/id"
)

// Claims carries the session identity; RegisteredClaims.ID is the jti used
// for revocation.
type Claims struct {
	UserID string    `json:"user_id"`
	Email  string    `json:"email"`
	Role   user.Role `json:"role"`
	jwt.RegisteredClaims
}

func (c *Claims) Principal() Principal {
	return Principal{UserID: c.UserID, Email: c.Email, Role: c.Role}
}

// TokenManager issues and verifies HS256 session tokens.
type TokenManager struct {
	secret  []byte
	ttl     time.Duration
	revoked Revoker
	now     func() time.Time
}

// NewTokenManager builds a manager; revoked may be nil to disable sign-out.
func NewTokenManager(secret string, ttl time.Duration, revoked Revoker) *TokenManager {
	return &TokenManager{secret: []byte(secret), ttl: ttl, revoked: revoked, now: time.Now}
}

func (m *TokenManager) Issue(u *user.User) (string, *Claims, error) {
	now := m.now()
	claims := &Claims{
		UserID: u.UserID,
		Email:  u.Email,
		Role:   u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        id.NewID32(),
			Subject:   u.UserID,
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", nil, fmt.Errorf("sign token: %w", err)
	}
	return signed, claims, nil
}

// Parse verifies signature, expiry and the revocation list.
func (m *TokenManager) Parse(ctx context.Context, raw string) (*Claims, error) {
	const op = "auth.Parse"
	if raw == "" {
		return nil, apperror.Auth(op, "authorization token required")
	}

	token, err := jwt.ParseWithClaims(raw, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.secret, nil
	}, jwt.WithTimeFunc(m.now), jwt.WithExpirationRequired())
	if err != nil {
		return nil, &apperror.Error{Kind: apperror.KindAuth, Op: op, Msg: "invalid or expired token", Err: err}
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID == "" || claims.ID == "" {
		return nil, apperror.Auth(op, "invalid or expired token")
	}

	if m.revoked != nil {
		revoked, err := m.revoked.IsRevoked(ctx, claims.ID)
		if err != nil {
			return nil, apperror.Persistence(op, err)
		}
		if revoked {
			return nil, apperror.Auth(op, "token revoked")
		}
	}
	return claims, nil
}

// Revoke blacklists the token until it would have expired anyway.
func (m *TokenManager) Revoke(ctx context.Context, c *Claims) error {
	if m.revoked == nil || c.ExpiresAt == nil {
		return nil
	}
	if !c.ExpiresAt.After(m.now()) {
		return nil
	}
	if err := m.revoked.Revoke(ctx, c.ID, c.ExpiresAt.Time); err != nil {
		return apperror.Persistence("auth.Revoke", err)
	}
	return nil
}
