package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"loan-tracker/internal/adapter/middleware"
	"loan-tracker/internal/domain/user"
	authuc "loan-tracker/internal/usecase/auth"
)

type AuthHandler struct{ uc *authuc.Usecase }

func NewAuthHandler(uc *authuc.Usecase) *AuthHandler { return &AuthHandler{uc: uc} }

func (h *AuthHandler) SignUp(c echo.Context) error {
	var req authuc.SignUpInput
	if ok, err := bindValid(c, &req); !ok {
		return err
	}
	dto, err := h.uc.SignUp(c.Request().Context(), req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, dto)
}

func (h *AuthHandler) SignIn(c echo.Context) error {
	var req authuc.SignInInput
	if ok, err := bindValid(c, &req); !ok {
		return err
	}
	dto, err := h.uc.SignIn(c.Request().Context(), req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *AuthHandler) SignOut(c echo.Context) error {
	claims, _ := middleware.ClaimsFrom(c)
	if err := h.uc.SignOut(c.Request().Context(), claims); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *AuthHandler) Me(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return writeError(c, err)
	}
	dto, err := h.uc.Me(c.Request().Context(), p)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

type setPushReq struct {
	Enabled *bool `json:"enabled" validate:"required"`
}

func (h *AuthHandler) SetPush(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return writeError(c, err)
	}
	var req setPushReq
	if ok, err := bindValid(c, &req); !ok {
		return err
	}
	if err := h.uc.SetPush(c.Request().Context(), p, *req.Enabled); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]bool{"enabled": *req.Enabled})
}

func (h *AuthHandler) ListProfiles(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.ListProfiles(c.Request().Context(), p, user.Role(c.QueryParam("role")))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
