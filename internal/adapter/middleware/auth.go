package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"loan-tracker/internal/auth"
	"loan-tracker/internal/domain/apperror"
)

const claimsKey = "auth.claims"

// TokenParser verifies a raw session token.
type TokenParser interface {
	Parse(ctx context.Context, raw string) (*auth.Claims, error)
}

// RequireAuth reads the bearer token (or the "token" query param, which
// browsers need for websocket upgrades), verifies it and stores the
// principal in the request context and the claims on the echo context.
func RequireAuth(tokens TokenParser) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
			if raw == "" {
				raw = c.QueryParam("token")
			}
			claims, err := tokens.Parse(c.Request().Context(), raw)
			if err != nil {
				if errors.Is(err, apperror.ErrAuth) {
					return c.JSON(http.StatusUnauthorized, errBody("auth", apperror.KindAuth.Message()))
				}
				return c.JSON(http.StatusServiceUnavailable, errBody("unavailable", "session store unavailable"))
			}

			c.Set(claimsKey, claims)
			ctx := auth.WithPrincipal(c.Request().Context(), claims.Principal())
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}

// ClaimsFrom returns the claims stored by RequireAuth.
func ClaimsFrom(c echo.Context) (*auth.Claims, bool) {
	claims, ok := c.Get(claimsKey).(*auth.Claims)
	return claims, ok
}

func bearerToken(h string) string {
	const prefix = "bearer "
	if len(h) > len(prefix) && strings.EqualFold(h[:len(prefix)], prefix) {
		return strings.TrimSpace(h[len(prefix):])
	}
	return ""
}
