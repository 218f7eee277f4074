package http

import (
	"bytes"
	"context"
	"encoding/json"
	stdhttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"loan-tracker/internal/auth"
	"loan-tracker/internal/domain/apperror"
	domain "loan-tracker/internal/domain/loan"
	"loan-tracker/internal/domain/uow"
	"loan-tracker/internal/domain/user"
	"loan-tracker/internal/testutil/loanmock"
	"loan-tracker/internal/testutil/paymentmock"
	"loan-tracker/internal/testutil/uowmock"
	"loan-tracker/internal/testutil/usermock"
	uc "loan-tracker/internal/usecase/loan"
)

// -------- helpers --------

func newEchoWithValidator() *echo.Echo {
	e := echo.New()
	e.Validator = NewValidator()
	return e
}

func mustJSON(v any) *bytes.Reader {
	b, _ := json.Marshal(v)
	return bytes.NewReader(b)
}

var (
	creditorP = auth.Principal{UserID: strings.Repeat("c", 32), Role: user.RoleCreditor}
	debtorP   = auth.Principal{UserID: strings.Repeat("d", 32), Role: user.RoleDebtor}
)

// newCtx builds an echo context already carrying p, as RequireAuth would.
func newCtx(e *echo.Echo, method, target string, body *bytes.Reader, p *auth.Principal) (echo.Context, *httptest.ResponseRecorder) {
	var req *stdhttp.Request
	if body == nil {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, body)
	}
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if p != nil {
		req = req.WithContext(auth.WithPrincipal(req.Context(), *p))
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func newLoanHandler(loans *loanmock.Repo, users *usermock.Repo) *LoanHandler {
	payments := &paymentmock.Repo{}
	return NewLoanHandler(uc.NewUsecase(loans, payments, users, uowmock.New(), nil))
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var er ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &er); err != nil {
		t.Fatalf("bad json: %v", err)
	}
	return er
}

// -------- tests --------

func TestCreateLoan_Success(t *testing.T) {
	e := newEchoWithValidator()
	var created *domain.Loan
	loans := &loanmock.Repo{CreateFn: func(_ context.Context, l *domain.Loan) error {
		created = l
		return nil
	}}
	h := newLoanHandler(loans, &usermock.Repo{})

	body := map[string]any{
		"name":            "Prestito auto",
		"lender_name":     "Banca Etica",
		"original_amount": "10000",
		"current_balance": "8750",
		"interest_rate":   "3.5",
		"monthly_payment": "450",
		"start_date":      "2025-01-01",
		"end_date":        "2027-01-01",
		"type":            "auto",
	}
	c, rec := newCtx(e, stdhttp.MethodPost, "/loans", mustJSON(body), &debtorP)
	if err := h.CreateLoan(c); err != nil {
		t.Fatalf("CreateLoan error: %v", err)
	}
	if rec.Code != stdhttp.StatusCreated {
		t.Fatalf("status = %d, want 201; body=%s", rec.Code, rec.Body.String())
	}
	var got uc.LoanDTO
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("bad json: %v", err)
	}
	if got.DebtorID != debtorP.UserID || got.Status != domain.StatusActive || got.TypeLabel == "" {
		t.Fatalf("unexpected dto: %+v", got)
	}
	if created == nil || created.LenderID != "" {
		t.Fatalf("self-reported loan must have no creditor: %+v", created)
	}
}

func TestCreateLoan_BindError(t *testing.T) {
	e := newEchoWithValidator()
	h := newLoanHandler(&loanmock.Repo{}, &usermock.Repo{})

	c, rec := newCtx(e, stdhttp.MethodPost, "/loans", bytes.NewReader([]byte(`{"name":`)), &debtorP)
	if err := h.CreateLoan(c); err != nil {
		t.Fatalf("CreateLoan error: %v", err)
	}
	if rec.Code != stdhttp.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if er := decodeError(t, rec); er.Error != "invalid body" {
		t.Fatalf("error = %q, want %q", er.Error, "invalid body")
	}
}

func TestCreateLoan_ValidationError(t *testing.T) {
	e := newEchoWithValidator()
	h := newLoanHandler(&loanmock.Repo{}, &usermock.Repo{}) // won't be called

	body := map[string]any{
		"debtor_id":       "NOT_HEX_32",
		"original_amount": "0",
		"current_balance": "10.001",
		"interest_rate":   "101",
		"start_date":      "01/01/2025",
		"end_date":        "2027-01-01",
		"type":            "boat",
	}
	c, rec := newCtx(e, stdhttp.MethodPost, "/loans", mustJSON(body), &creditorP)
	if err := h.CreateLoan(c); err != nil {
		t.Fatalf("CreateLoan error: %v", err)
	}
	if rec.Code != stdhttp.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}
	er := decodeError(t, rec)
	if er.Error != "validation failed" {
		t.Fatalf("error = %q, want %q", er.Error, "validation failed")
	}
	want := []struct{ field, msg string }{
		{"name", "is required"},
		{"debtor_id", "32-char lowercase hex"},
		{"original_amount", "greater than 0"},
		{"current_balance", "at most 2 decimal places"},
		{"interest_rate", "less than or equal to 100"},
		{"start_date", "YYYY-MM-DD"},
		{"type", "one of"},
	}
	for _, w := range want {
		if !hasFieldMsg(er.Details, w.field, w.msg) {
			t.Fatalf("missing %s detail %q: %+v", w.field, w.msg, er.Details)
		}
	}
}

func TestCreateLoan_CreditorWithoutDebtor(t *testing.T) {
	e := newEchoWithValidator()
	h := newLoanHandler(&loanmock.Repo{}, &usermock.Repo{})

	body := map[string]any{
		"name": "Prestito", "original_amount": "1000", "current_balance": "1000",
		"start_date": "2025-01-01", "end_date": "2026-01-01", "type": "personal",
	}
	c, rec := newCtx(e, stdhttp.MethodPost, "/loans", mustJSON(body), &creditorP)
	if err := h.CreateLoan(c); err != nil {
		t.Fatalf("CreateLoan error: %v", err)
	}
	if rec.Code != stdhttp.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}
	er := decodeError(t, rec)
	if er.Error != "validation" || er.Message != apperror.KindValidation.Message() || !hasFieldMsg(er.Details, "_", "debtor") {
		t.Fatalf("unexpected error body: %+v", er)
	}
}

func TestGetLoan_Success(t *testing.T) {
	e := newEchoWithValidator()
	loans := &loanmock.Repo{GetByLoanIDFn: func(_ context.Context, loanID string) (*domain.Loan, error) {
		return &domain.Loan{LoanID: loanID, Name: "Mutuo", LenderID: creditorP.UserID, DebtorID: debtorP.UserID,
			Status: domain.StatusActive, Type: domain.TypeMortgage}, nil
	}}
	h := newLoanHandler(loans, &usermock.Repo{})

	c, rec := newCtx(e, stdhttp.MethodGet, "/loans/l1", nil, &debtorP)
	c.SetParamNames("loan_id")
	c.SetParamValues("l1")
	if err := h.GetLoan(c); err != nil {
		t.Fatalf("GetLoan error: %v", err)
	}
	if rec.Code != stdhttp.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var got uc.LoanDTO
	_ = json.Unmarshal(rec.Body.Bytes(), &got)
	if got.LoanID != "l1" || got.Name != "Mutuo" {
		t.Fatalf("unexpected dto: %+v", got)
	}
}

func TestLoanHandler_ErrorMapping(t *testing.T) {
	e := newEchoWithValidator()
	stranger := auth.Principal{UserID: strings.Repeat("e", 32), Role: user.RoleCreditor}
	loans := &loanmock.Repo{GetByLoanIDFn: func(_ context.Context, loanID string) (*domain.Loan, error) {
		if loanID == "missing" {
			return nil, apperror.NotFound("loan.GetByLoanID", "loan not found")
		}
		return &domain.Loan{LoanID: loanID, LenderID: creditorP.UserID, DebtorID: debtorP.UserID}, nil
	}}
	h := newLoanHandler(loans, &usermock.Repo{})

	cases := []struct {
		name   string
		loanID string
		p      *auth.Principal
		want   int
	}{
		{"unknown loan", "missing", &creditorP, stdhttp.StatusNotFound},
		{"someone else's loan", "l1", &stranger, stdhttp.StatusNotFound},
		{"no principal", "l1", nil, stdhttp.StatusUnauthorized},
	}
	for _, tc := range cases {
		c, rec := newCtx(e, stdhttp.MethodGet, "/loans/"+tc.loanID, nil, tc.p)
		c.SetParamNames("loan_id")
		c.SetParamValues(tc.loanID)
		if err := h.GetLoan(c); err != nil {
			t.Fatalf("%s: GetLoan error: %v", tc.name, err)
		}
		if rec.Code != tc.want {
			t.Fatalf("%s: status = %d, want %d", tc.name, rec.Code, tc.want)
		}
	}
}

func TestDeleteLoan_DebtorCannotDeleteCreditorLoan(t *testing.T) {
	e := newEchoWithValidator()
	loans := &loanmock.Repo{GetByLoanIDForUpdateFn: func(_ context.Context, loanID string) (*domain.Loan, error) {
		return &domain.Loan{LoanID: loanID, LenderID: creditorP.UserID, DebtorID: debtorP.UserID}, nil
	}}
	payments := &paymentmock.Repo{}
	tx := uowmock.Passthrough(uow.Repos{Loans: loans, Payments: payments})
	h := NewLoanHandler(uc.NewUsecase(loans, payments, &usermock.Repo{}, tx, nil))

	c, rec := newCtx(e, stdhttp.MethodDelete, "/loans/l1", nil, &debtorP)
	c.SetParamNames("loan_id")
	c.SetParamValues("l1")
	if err := h.DeleteLoan(c); err != nil {
		t.Fatalf("DeleteLoan error: %v", err)
	}
	if rec.Code != stdhttp.StatusForbidden {
		t.Fatalf("status = %d, want 403; body=%s", rec.Code, rec.Body.String())
	}
}
