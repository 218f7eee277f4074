package http

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	stdhttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"loan-tracker/internal/adapter/middleware"
	"loan-tracker/internal/adapter/repository/mysql"
	"loan-tracker/internal/auth"
	"loan-tracker/internal/infrastructure/db"
	"loan-tracker/internal/infrastructure/storage"
	"loan-tracker/internal/realtime"
	authuc "loan-tracker/internal/usecase/auth"
	loanuc "loan-tracker/internal/usecase/loan"
	paymentuc "loan-tracker/internal/usecase/payment"
)

const testBaseURL = "http://loans.test"

// testServer is the full stack on sqlite and miniredis.
type testServer struct {
	e   *echo.Echo
	hub *realtime.Hub
	mr  *miniredis.Miniredis
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gdb, err := db.OpenGorm(db.DriverSQLite, ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, _ := gdb.DB()
	t.Cleanup(func() { _ = sqlDB.Close() })
	if err := mysql.AutoMigrate(gdb); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	files, err := storage.NewLocalStore(t.TempDir(), testBaseURL)
	if err != nil {
		t.Fatalf("store: %v", err)
	}

	users := mysql.NewUserRepository(gdb)
	loans := mysql.NewLoanRepository(gdb)
	payments := mysql.NewPaymentRepository(gdb)
	tx := mysql.NewGormUoW(gdb)
	hub := realtime.NewHub(8)
	tokens := auth.NewTokenManager("test-secret", time.Hour, auth.NewRedisRevoker(rdb))

	paymentsUC := paymentuc.NewUsecase(loans, payments, tx, files, hub, nil)

	e := NewEcho()
	Register(e, Routes{
		Auth:           NewAuthHandler(authuc.NewUsecase(users, tokens)),
		Loans:          NewLoanHandler(loanuc.NewUsecase(loans, payments, users, tx, hub)),
		Payments:       NewPaymentHandler(paymentsUC, 1<<20),
		Notifications:  NewNotificationsHandler(hub, paymentsUC, nil),
		Tokens:         tokens,
		Redis:          rdb,
		IdempotencyTTL: time.Minute,
		UploadDir:      files.Dir(),
		MaxUploadBytes: 1 << 20,
	})
	return &testServer{e: e, hub: hub, mr: mr}
}

type call struct {
	method, path, token, idemKey string
	body                         any
}

func (s *testServer) do(t *testing.T, c call) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if c.body != nil {
		b, err := json.Marshal(c.body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(c.method, c.path, r)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if c.token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+c.token)
	}
	if c.idemKey != "" {
		req.Header.Set(middleware.HeaderIdempotencyKey, c.idemKey)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("bad json %q: %v", rec.Body.String(), err)
	}
	return v
}

func expect(t *testing.T, rec *httptest.ResponseRecorder, code int) {
	t.Helper()
	if rec.Code != code {
		t.Fatalf("status = %d, want %d; body=%s", rec.Code, code, rec.Body.String())
	}
}

// signUpIn registers an account and returns its session.
func (s *testServer) signUpIn(t *testing.T, email, name, role string) authuc.SessionDTO {
	t.Helper()
	expect(t, s.do(t, call{method: stdhttp.MethodPost, path: "/auth/signup", body: map[string]string{
		"email": email, "password": "password1", "full_name": name, "role": role,
	}}), stdhttp.StatusCreated)
	rec := s.do(t, call{method: stdhttp.MethodPost, path: "/auth/signin", body: map[string]string{
		"email": email, "password": "password1",
	}})
	expect(t, rec, stdhttp.StatusOK)
	return decode[authuc.SessionDTO](t, rec)
}

func loanBody(debtorID, balance string) map[string]any {
	return map[string]any{
		"name":            "Prestito auto",
		"debtor_id":       debtorID,
		"original_amount": "10000",
		"current_balance": balance,
		"interest_rate":   "3.5",
		"monthly_payment": "450",
		"start_date":      "2025-01-01",
		"end_date":        "2027-01-01",
		"type":            "auto",
	}
}

func TestServer_PaymentLifecycle(t *testing.T) {
	s := newTestServer(t)
	creditor := s.signUpIn(t, "giulia@example.com", "Giulia Bianchi", "creditor")
	debtor := s.signUpIn(t, "mario@example.com", "Mario Rossi", "debtor")

	// creditors must pick a debtor
	expect(t, s.do(t, call{method: stdhttp.MethodPost, path: "/loans", token: creditor.Token, body: loanBody("", "8750")}),
		stdhttp.StatusUnprocessableEntity)

	rec := s.do(t, call{method: stdhttp.MethodPost, path: "/loans", token: creditor.Token, body: loanBody(debtor.User.UserID, "8750")})
	expect(t, rec, stdhttp.StatusCreated)
	l := decode[loanuc.LoanDTO](t, rec)
	if l.LenderName != "Giulia Bianchi" || l.LenderID != creditor.User.UserID {
		t.Fatalf("unexpected loan: %+v", l)
	}

	events, unsubscribe := s.hub.Subscribe(realtime.FilterFor(creditor.User.Role, creditor.User.UserID))
	defer unsubscribe()

	rec = s.do(t, call{
		method: stdhttp.MethodPost, path: "/loans/" + l.LoanID + "/payments", token: debtor.Token,
		idemKey: "11111111111111111111111111111111",
		body:    map[string]string{"amount": "450", "date": "2025-09-01"},
	})
	expect(t, rec, stdhttp.StatusCreated)
	p := decode[paymentuc.PaymentDTO](t, rec)
	if p.Status != "pending" {
		t.Fatalf("payment must wait for the creditor: %+v", p)
	}
	select {
	case ev := <-events:
		if ev.Payment.PaymentID != p.PaymentID || ev.LoanName != "Prestito auto" {
			t.Fatalf("unexpected event: %+v", ev)
		}
	case <-time.After(time.Second):
		t.Fatalf("creditor was not notified")
	}

	pending := decode[[]paymentuc.PaymentDTO](t, s.do(t, call{method: stdhttp.MethodGet, path: "/payments/pending", token: creditor.Token}))
	if len(pending) != 1 || pending[0].PaymentID != p.PaymentID {
		t.Fatalf("inbox = %+v", pending)
	}

	// the debtor cannot decide
	expect(t, s.do(t, call{method: stdhttp.MethodPost, path: "/payments/" + p.PaymentID + "/confirm", token: debtor.Token,
		idemKey: "22222222222222222222222222222222"}), stdhttp.StatusForbidden)

	confirm := call{method: stdhttp.MethodPost, path: "/payments/" + p.PaymentID + "/confirm", token: creditor.Token,
		idemKey: "33333333333333333333333333333333"}
	rec = s.do(t, confirm)
	expect(t, rec, stdhttp.StatusOK)
	d := decode[paymentuc.DecisionDTO](t, rec)
	if !d.CurrentBalance.Equal(decimal.NewFromInt(8300)) || d.Payment.Status != "completed" {
		t.Fatalf("decision = %+v", d)
	}

	// same key replays, a new key hits the workflow and conflicts
	replay := s.do(t, confirm)
	expect(t, replay, stdhttp.StatusOK)
	if replay.Body.String() != rec.Body.String() {
		t.Fatalf("replay differs: %s vs %s", replay.Body.String(), rec.Body.String())
	}
	confirm.idemKey = "44444444444444444444444444444444"
	expect(t, s.do(t, confirm), stdhttp.StatusConflict)
	reject := confirm
	reject.path = "/payments/" + p.PaymentID + "/reject"
	expect(t, s.do(t, reject), stdhttp.StatusConflict)

	got := decode[loanuc.LoanDTO](t, s.do(t, call{method: stdhttp.MethodGet, path: "/loans/" + l.LoanID, token: debtor.Token}))
	if !got.CurrentBalance.Equal(decimal.NewFromInt(8300)) {
		t.Fatalf("balance = %s, want 8300", got.CurrentBalance)
	}

	dash := decode[loanuc.DashboardDTO](t, s.do(t, call{method: stdhttp.MethodGet, path: "/dashboard", token: creditor.Token}))
	if dash.PendingCount != 0 || len(dash.Recent) != 1 || len(dash.Loans) != 1 {
		t.Fatalf("dashboard = %+v", dash)
	}
}

func TestServer_MissingIdempotencyKey(t *testing.T) {
	s := newTestServer(t)
	debtor := s.signUpIn(t, "mario@example.com", "Mario Rossi", "debtor")
	rec := s.do(t, call{method: stdhttp.MethodPost, path: "/loans/x/payments", token: debtor.Token,
		body: map[string]string{"amount": "450", "date": "2025-09-01"}})
	expect(t, rec, stdhttp.StatusBadRequest)
}

func TestServer_MultipartProof(t *testing.T) {
	s := newTestServer(t)
	debtor := s.signUpIn(t, "mario@example.com", "Mario Rossi", "debtor")
	body := loanBody("", "900")
	body["lender_name"] = "Banca Etica"
	rec := s.do(t, call{method: stdhttp.MethodPost, path: "/loans", token: debtor.Token, body: body})
	expect(t, rec, stdhttp.StatusCreated)
	l := decode[loanuc.LoanDTO](t, rec)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	_ = mw.WriteField("amount", "300")
	_ = mw.WriteField("date", "2025-09-02")
	fw, _ := mw.CreateFormFile("proof", "ricevuta.PNG")
	_, _ = fw.Write([]byte("png-bytes"))
	_ = mw.Close()

	req := httptest.NewRequest(stdhttp.MethodPost, "/loans/"+l.LoanID+"/payments", &buf)
	req.Header.Set(echo.HeaderContentType, mw.FormDataContentType())
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+debtor.Token)
	req.Header.Set(middleware.HeaderIdempotencyKey, "55555555555555555555555555555555")
	rec = httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	expect(t, rec, stdhttp.StatusCreated)

	p := decode[paymentuc.PaymentDTO](t, rec)
	// no creditor on the loan: recorded as already confirmed
	if p.Status != "completed" || !strings.HasPrefix(p.ProofURL, testBaseURL+storage.URLPrefix) || !strings.HasSuffix(p.ProofURL, ".png") {
		t.Fatalf("payment = %+v", p)
	}

	file := s.do(t, call{method: stdhttp.MethodGet, path: strings.TrimPrefix(p.ProofURL, testBaseURL)})
	expect(t, file, stdhttp.StatusOK)
	if file.Body.String() != "png-bytes" {
		t.Fatalf("served proof = %q", file.Body.String())
	}

	got := decode[loanuc.LoanDTO](t, s.do(t, call{method: stdhttp.MethodGet, path: "/loans/" + l.LoanID, token: debtor.Token}))
	if !got.CurrentBalance.Equal(decimal.NewFromInt(600)) {
		t.Fatalf("balance = %s, want 600", got.CurrentBalance)
	}
}

func TestServer_SignOutRevokesToken(t *testing.T) {
	s := newTestServer(t)
	sess := s.signUpIn(t, "mario@example.com", "Mario Rossi", "debtor")

	me := decode[authuc.MeDTO](t, s.do(t, call{method: stdhttp.MethodGet, path: "/me", token: sess.Token}))
	if me.User.Email != "mario@example.com" || me.View.CanConfirmPayment {
		t.Fatalf("me = %+v", me)
	}
	expect(t, s.do(t, call{method: stdhttp.MethodPost, path: "/auth/signout", token: sess.Token}), stdhttp.StatusNoContent)
	rec := s.do(t, call{method: stdhttp.MethodGet, path: "/me", token: sess.Token})
	expect(t, rec, stdhttp.StatusUnauthorized)

	expect(t, s.do(t, call{method: stdhttp.MethodPost, path: "/auth/signin", body: map[string]string{
		"email": "mario@example.com", "password": "wrong-password",
	}}), stdhttp.StatusUnauthorized)
}

func TestServer_ProfilesAndPush(t *testing.T) {
	s := newTestServer(t)
	creditor := s.signUpIn(t, "giulia@example.com", "Giulia Bianchi", "creditor")
	debtor := s.signUpIn(t, "mario@example.com", "Mario Rossi", "debtor")

	profiles := decode[[]authuc.ProfileDTO](t, s.do(t, call{method: stdhttp.MethodGet, path: "/profiles", token: creditor.Token}))
	if len(profiles) != 1 || profiles[0].UserID != debtor.User.UserID {
		t.Fatalf("profiles = %+v", profiles)
	}
	expect(t, s.do(t, call{method: stdhttp.MethodGet, path: "/profiles", token: debtor.Token}), stdhttp.StatusForbidden)

	expect(t, s.do(t, call{method: stdhttp.MethodPut, path: "/me/push", token: creditor.Token, body: map[string]any{}}),
		stdhttp.StatusUnprocessableEntity)
	expect(t, s.do(t, call{method: stdhttp.MethodPut, path: "/me/push", token: creditor.Token, body: map[string]bool{"enabled": true}}),
		stdhttp.StatusOK)
	me := decode[authuc.MeDTO](t, s.do(t, call{method: stdhttp.MethodGet, path: "/me", token: creditor.Token}))
	if !me.User.PushEnabled {
		t.Fatalf("push must be enabled: %+v", me)
	}
}

func TestServer_NotificationsWebSocket(t *testing.T) {
	s := newTestServer(t)
	creditor := s.signUpIn(t, "giulia@example.com", "Giulia Bianchi", "creditor")
	debtor := s.signUpIn(t, "mario@example.com", "Mario Rossi", "debtor")
	l := decode[loanuc.LoanDTO](t, s.do(t, call{method: stdhttp.MethodPost, path: "/loans", token: creditor.Token,
		body: loanBody(debtor.User.UserID, "8750")}))

	srv := httptest.NewServer(s.e)
	defer srv.Close()
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/notifications"

	if _, resp, err := websocket.DefaultDialer.Dial(wsURL, nil); err == nil || resp == nil || resp.StatusCode != stdhttp.StatusUnauthorized {
		t.Fatalf("unauthenticated dial must get 401, got resp=%v err=%v", resp, err)
	}

	conn, _, err := websocket.DefaultDialer.Dial(wsURL+"?token="+creditor.Token, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for s.hub.Subscribers() == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("websocket session never subscribed")
		}
		time.Sleep(5 * time.Millisecond)
	}

	expect(t, s.do(t, call{method: stdhttp.MethodPost, path: "/loans/" + l.LoanID + "/payments", token: debtor.Token,
		idemKey: "66666666666666666666666666666666", body: map[string]string{"amount": "450", "date": "2025-09-01"}}),
		stdhttp.StatusCreated)

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var n Notification
	if err := conn.ReadJSON(&n); err != nil {
		t.Fatalf("read: %v", err)
	}
	if n.Toast == nil || n.Toast.Title != "Nuova Richiesta di Pagamento" || n.Toast.Body != "Ricevuta una richiesta per: Prestito auto" || n.PendingCount != 1 {
		t.Fatalf("notification = %+v", n)
	}
}

// dialFeed opens the notification socket and waits until it is subscribed.
func (s *testServer) dialFeed(t *testing.T, srv *httptest.Server, token string) *websocket.Conn {
	t.Helper()
	before := s.hub.Subscribers()
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/notifications?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	deadline := time.Now().Add(2 * time.Second)
	for s.hub.Subscribers() == before {
		if time.Now().After(deadline) {
			t.Fatalf("websocket session never subscribed")
		}
		time.Sleep(5 * time.Millisecond)
	}
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) Notification {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var n Notification
	if err := conn.ReadJSON(&n); err != nil {
		t.Fatalf("read: %v", err)
	}
	return n
}

func TestServer_NotificationsTrackInbox(t *testing.T) {
	s := newTestServer(t)
	creditor := s.signUpIn(t, "giulia@example.com", "Giulia Bianchi", "creditor")
	debtor := s.signUpIn(t, "mario@example.com", "Mario Rossi", "debtor")
	l := decode[loanuc.LoanDTO](t, s.do(t, call{method: stdhttp.MethodPost, path: "/loans", token: creditor.Token,
		body: loanBody(debtor.User.UserID, "8750")}))

	keys := 0
	submit := func() paymentuc.PaymentDTO {
		keys++
		rec := s.do(t, call{method: stdhttp.MethodPost, path: "/loans/" + l.LoanID + "/payments", token: debtor.Token,
			idemKey: strings.Repeat(string(rune('0'+keys)), 32), body: map[string]string{"amount": "450", "date": "2025-09-01"}})
		expect(t, rec, stdhttp.StatusCreated)
		return decode[paymentuc.PaymentDTO](t, rec)
	}
	decide := func(p paymentuc.PaymentDTO, verb string) {
		keys++
		expect(t, s.do(t, call{method: stdhttp.MethodPost, path: "/payments/" + p.PaymentID + "/" + verb, token: creditor.Token,
			idemKey: strings.Repeat(string(rune('0'+keys)), 32)}), stdhttp.StatusOK)
	}
	inbox := func() int {
		return len(decode[[]paymentuc.PaymentDTO](t, s.do(t, call{method: stdhttp.MethodGet, path: "/payments/pending", token: creditor.Token})))
	}

	// already waiting before the socket opens
	p0 := submit()

	srv := httptest.NewServer(s.e)
	defer srv.Close()
	conn := s.dialFeed(t, srv, creditor.Token)

	steps := []struct {
		name  string
		act   func()
		typ   realtime.EventType
		toast bool
	}{
		{"new request", func() { submit() }, realtime.EventPaymentInserted, true},
		{"confirm the old one", func() { decide(p0, "confirm") }, realtime.EventPaymentConfirmed, false},
		{"another request", func() { submit() }, realtime.EventPaymentInserted, true},
		{"loan edited", func() {
			expect(t, s.do(t, call{method: stdhttp.MethodPut, path: "/loans/" + l.LoanID, token: creditor.Token,
				body: loanBody(debtor.User.UserID, "8300")}), stdhttp.StatusOK)
		}, realtime.EventLoanSaved, false},
	}
	for _, st := range steps {
		st.act()
		n := readFrame(t, conn)
		if n.Type != st.typ || (n.Toast != nil) != st.toast {
			t.Fatalf("%s: frame = %+v", st.name, n)
		}
		if want := inbox(); n.PendingCount != want {
			t.Fatalf("%s: pending_count = %d, inbox has %d", st.name, n.PendingCount, want)
		}
	}

	pending := decode[[]paymentuc.PaymentDTO](t, s.do(t, call{method: stdhttp.MethodGet, path: "/payments/pending", token: creditor.Token}))
	decide(pending[0], "reject")
	if n := readFrame(t, conn); n.Type != realtime.EventPaymentRejected || n.PendingCount != inbox() || n.PendingCount != 1 {
		t.Fatalf("reject frame = %+v", n)
	}

	expect(t, s.do(t, call{method: stdhttp.MethodDelete, path: "/loans/" + l.LoanID, token: creditor.Token}), stdhttp.StatusNoContent)
	if n := readFrame(t, conn); n.Type != realtime.EventLoanDeleted || n.PendingCount != 0 || n.Event.LoanID != l.LoanID {
		t.Fatalf("delete frame = %+v", n)
	}
}
