package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"loan-tracker/internal/auth"
	"loan-tracker/internal/domain/apperror"
)

func statusFor(k apperror.Kind) int {
	switch k {
	case apperror.KindValidation:
		return http.StatusUnprocessableEntity
	case apperror.KindConfirmation:
		return http.StatusConflict
	case apperror.KindAuth:
		return http.StatusUnauthorized
	case apperror.KindNotFound:
		return http.StatusNotFound
	case apperror.KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// writeError is the only place use-case errors become HTTP responses.
// Storage causes are logged, never returned to the client.
func writeError(c echo.Context, err error) error {
	kind := apperror.KindOf(err)
	status := statusFor(kind)
	resp := ErrorResponse{Error: kind.String(), Message: kind.Message()}

	var ae *apperror.Error
	if status < http.StatusInternalServerError && errors.As(err, &ae) && ae.Msg != "" {
		resp.Details = []FieldError{{Field: "_", Message: ae.Msg}}
	}
	if status >= http.StatusInternalServerError {
		slog.ErrorContext(c.Request().Context(), "request failed",
			"method", c.Request().Method, "path", c.Path(), "err", err)
	}
	return c.JSON(status, resp)
}

// bindValid binds the body and runs the validator. It writes the 400/422
// response itself and reports whether the handler may continue.
func bindValid(c echo.Context, dst any) (bool, error) {
	if err := c.Bind(dst); err != nil {
		return false, c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(dst); err != nil {
		return false, c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "validation failed",
			Message: apperror.KindValidation.Message(),
			Details: ToFieldErrors(err),
		})
	}
	return true, nil
}

func principal(c echo.Context) (auth.Principal, error) {
	p, ok := auth.PrincipalFrom(c.Request().Context())
	if !ok {
		return auth.Principal{}, apperror.Auth("http.principal", "not signed in")
	}
	return p, nil
}
