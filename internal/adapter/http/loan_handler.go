package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"loan-tracker/internal/usecase/loan"
)

type LoanHandler struct{ uc *loan.Usecase }

func NewLoanHandler(uc *loan.Usecase) *LoanHandler { return &LoanHandler{uc: uc} }

func (h *LoanHandler) CreateLoan(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return writeError(c, err)
	}
	var req loan.LoanInput
	if ok, err := bindValid(c, &req); !ok {
		return err
	}
	dto, err := h.uc.Create(c.Request().Context(), p, req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, dto)
}

func (h *LoanHandler) GetLoan(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return writeError(c, err)
	}
	dto, err := h.uc.Get(c.Request().Context(), p, c.Param("loan_id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *LoanHandler) ListLoans(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.List(c.Request().Context(), p)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *LoanHandler) UpdateLoan(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return writeError(c, err)
	}
	var req loan.LoanInput
	if ok, err := bindValid(c, &req); !ok {
		return err
	}
	dto, err := h.uc.Update(c.Request().Context(), p, c.Param("loan_id"), req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *LoanHandler) DeleteLoan(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return writeError(c, err)
	}
	if err := h.uc.Delete(c.Request().Context(), p, c.Param("loan_id")); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *LoanHandler) Dashboard(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return writeError(c, err)
	}
	dto, err := h.uc.Dashboard(c.Request().Context(), p)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}
