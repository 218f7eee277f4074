package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	emw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"

	"loan-tracker/internal/adapter/middleware"
	"loan-tracker/internal/infrastructure/metrics"
	"loan-tracker/internal/infrastructure/storage"
)

// Routes bundles everything the router needs.
type Routes struct {
	Auth          *AuthHandler
	Loans         *LoanHandler
	Payments      *PaymentHandler
	Notifications *NotificationsHandler
	Tokens        middleware.TokenParser
	// Redis backs idempotency on payment writes; nil disables it.
	Redis          *redis.Client
	IdempotencyTTL time.Duration
	UploadDir      string
	MaxUploadBytes int64
	Checks         []Check
}

func Register(e *echo.Echo, r Routes) {
	h := NewHandler(r.Checks...)
	e.GET("/health", h.Health)
	e.GET("/metrics", echo.WrapHandler(metrics.Handler()))
	if r.UploadDir != "" {
		e.Static(storage.URLPrefix, r.UploadDir)
	}

	e.POST("/auth/signup", r.Auth.SignUp)
	e.POST("/auth/signin", r.Auth.SignIn)

	api := e.Group("", middleware.RequireAuth(r.Tokens))
	api.POST("/auth/signout", r.Auth.SignOut)
	api.GET("/me", r.Auth.Me)
	api.PUT("/me/push", r.Auth.SetPush)
	api.GET("/profiles", r.Auth.ListProfiles)
	api.GET("/dashboard", r.Loans.Dashboard)

	api.GET("/loans", r.Loans.ListLoans)
	api.POST("/loans", r.Loans.CreateLoan)
	api.GET("/loans/:loan_id", r.Loans.GetLoan)
	api.PUT("/loans/:loan_id", r.Loans.UpdateLoan)
	api.DELETE("/loans/:loan_id", r.Loans.DeleteLoan)

	api.GET("/loans/:loan_id/payments", r.Payments.ListLoanPayments)
	api.GET("/payments/pending", r.Payments.ListPending)
	api.GET("/payments/recent", r.Payments.ListRecent)

	writes := []echo.MiddlewareFunc{bodyLimit(r.MaxUploadBytes)}
	if r.Redis != nil {
		writes = append(writes, middleware.Idempotency(r.Redis, r.IdempotencyTTL))
	}
	api.POST("/loans/:loan_id/payments", r.Payments.SubmitPayment, writes...)
	api.POST("/payments/:payment_id/confirm", r.Payments.ConfirmPayment, writes...)
	api.POST("/payments/:payment_id/reject", r.Payments.RejectPayment, writes...)

	api.GET("/ws/notifications", r.Notifications.Stream)
}

// bodyLimit leaves room for the multipart envelope around the proof file.
func bodyLimit(maxProof int64) echo.MiddlewareFunc {
	if maxProof <= 0 {
		maxProof = DefaultMaxProofBytes
	}
	return emw.BodyLimit(strconv.FormatInt(maxProof>>10+64, 10) + "K")
}

// NewEcho builds the server with the shared middleware stack.
func NewEcho() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = NewValidator()
	e.Use(emw.Recover(), emw.RequestID(), emw.CORSWithConfig(emw.CORSConfig{
		AllowHeaders: []string{echo.HeaderAuthorization, echo.HeaderContentType, middleware.HeaderIdempotencyKey},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
	}), middleware.RequestLogger())
	return e
}
