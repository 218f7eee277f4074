package http

import (
	"errors"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"loan-tracker/internal/usecase/payment"
)

// DefaultMaxProofBytes caps proof uploads when no limit is configured.
const DefaultMaxProofBytes int64 = 5 << 20

var proofExts = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".webp": true, ".pdf": true}

type PaymentHandler struct {
	uc       *payment.Usecase
	maxProof int64
}

func NewPaymentHandler(uc *payment.Usecase, maxProof int64) *PaymentHandler {
	if maxProof <= 0 {
		maxProof = DefaultMaxProofBytes
	}
	return &PaymentHandler{uc: uc, maxProof: maxProof}
}

// SubmitPayment accepts a JSON body or a multipart form whose optional
// "proof" part is the proof-of-payment file.
func (h *PaymentHandler) SubmitPayment(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return writeError(c, err)
	}

	var req payment.SubmitInput
	if strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm) {
		ok, err := h.bindMultipart(c, &req)
		if !ok {
			return err
		}
		if req.Proof != nil {
			defer closeProof(req.Proof)
		}
		if err := c.Validate(&req); err != nil {
			return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
				Error:   "validation failed",
				Details: ToFieldErrors(err),
			})
		}
	} else if ok, err := bindValid(c, &req); !ok {
		return err
	}

	dto, err := h.uc.Submit(c.Request().Context(), p, c.Param("loan_id"), req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, dto)
}

func (h *PaymentHandler) bindMultipart(c echo.Context, req *payment.SubmitInput) (bool, error) {
	amount, err := decimal.NewFromString(strings.TrimSpace(c.FormValue("amount")))
	if err != nil {
		return false, c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "validation failed",
			Details: []FieldError{{Field: "amount", Message: "must be a decimal number"}},
		})
	}
	req.Amount = amount
	req.Date = strings.TrimSpace(c.FormValue("date"))

	fh, err := c.FormFile("proof")
	switch {
	case errors.Is(err, http.ErrMissingFile):
		return true, nil
	case err != nil:
		return false, c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if fh.Size > h.maxProof {
		return false, c.JSON(http.StatusRequestEntityTooLarge, ErrorResponse{Error: "proof file too large"})
	}
	if !proofExts[strings.ToLower(filepath.Ext(fh.Filename))] {
		return false, c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "validation failed",
			Details: []FieldError{{Field: "proof", Message: "must be an image or a PDF"}},
		})
	}
	f, err := fh.Open()
	if err != nil {
		return false, c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	req.Proof = &payment.Proof{Name: fh.Filename, Body: f}
	return true, nil
}

func closeProof(p *payment.Proof) {
	if cl, ok := p.Body.(interface{ Close() error }); ok {
		_ = cl.Close()
	}
}

func (h *PaymentHandler) ListLoanPayments(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.ListByLoan(c.Request().Context(), p, c.Param("loan_id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

// ListPending is the creditor inbox.
func (h *PaymentHandler) ListPending(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.ListPending(c.Request().Context(), p)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *PaymentHandler) ListRecent(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return writeError(c, err)
	}
	var limit int
	if err := echo.QueryParamsBinder(c).Int("limit", &limit).BindError(); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid limit"})
	}
	out, err := h.uc.Recent(c.Request().Context(), p, limit)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *PaymentHandler) ConfirmPayment(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return writeError(c, err)
	}
	dto, err := h.uc.Confirm(c.Request().Context(), p, c.Param("payment_id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *PaymentHandler) RejectPayment(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return writeError(c, err)
	}
	dto, err := h.uc.Reject(c.Request().Context(), p, c.Param("payment_id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}
