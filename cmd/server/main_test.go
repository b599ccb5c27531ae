package main

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"payu-adapter/internal/config"
	"payu-adapter/internal/money"
	"payu-adapter/internal/payment"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("jwt-secret")

func bearer(t *testing.T) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "shop-backend",
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString(testSecret)
	require.NoError(t, err)
	return "Bearer " + tok
}

func TestSetupRouter(t *testing.T) {
	var gotProvider string
	checkoutHandler := func(w http.ResponseWriter, r *http.Request) {
		gotProvider = r.PathValue("provider")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("checkout"))
	}
	webhookHandler := func(w http.ResponseWriter, r *http.Request) {
		gotProvider = r.PathValue("provider")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("webhook received"))
	}

	router := setupRouter(checkoutHandler, webhookHandler, testSecret)

	t.Run("Health Check", func(t *testing.T) {
		req, _ := http.NewRequest("GET", "/health", nil)
		rr := httptest.NewRecorder()

		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), "OK")
		assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))
	})

	t.Run("Metrics", func(t *testing.T) {
		req, _ := http.NewRequest("GET", "/metrics", nil)
		rr := httptest.NewRecorder()

		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), "go_goroutines")
	})

	t.Run("Checkout Requires Token", func(t *testing.T) {
		req, _ := http.NewRequest("POST", "/payments/payu", strings.NewReader("{}"))
		req.RemoteAddr = "192.0.2.10:1000"
		rr := httptest.NewRecorder()

		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("Checkout Wiring", func(t *testing.T) {
		req, _ := http.NewRequest("POST", "/payments/payu", strings.NewReader("{}"))
		req.RemoteAddr = "192.0.2.11:1000"
		req.Header.Set("Authorization", bearer(t))
		rr := httptest.NewRecorder()

		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "checkout", rr.Body.String())
		assert.Equal(t, "payu", gotProvider)
	})

	t.Run("Payment Webhook", func(t *testing.T) {
		req, _ := http.NewRequest("POST", "/payments/payu/notify", strings.NewReader("{}"))
		req.RemoteAddr = "192.0.2.12:1000"
		rr := httptest.NewRecorder()

		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "webhook received", rr.Body.String())
		assert.Equal(t, "payu", gotProvider)
	})

	t.Run("Webhook Method Not Allowed", func(t *testing.T) {
		req, _ := http.NewRequest("GET", "/payments/payu/notify", nil)
		rr := httptest.NewRecorder()

		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
	})
}

type fakeProvider struct{}

func (fakeProvider) Name() string { return "PayU" }

func (fakeProvider) StartPayment(ctx context.Context, price money.Price, req payment.StartRequest) (*payment.URLResponse, error) {
	return &payment.URLResponse{Order: req.Order, URL: "https://pay.example.com"}, nil
}

func (fakeProvider) HandleResponse(ctx context.Context, payload []byte, lookup payment.OrderLookup) (*payment.Status, error) {
	return nil, payment.NewValidationError("order")
}

func (fakeProvider) ExecuteCredit(ctx context.Context, price money.Price, reference, transactionID string) (*payment.Status, error) {
	return nil, payment.ErrNotImplemented
}

func TestNewServer(t *testing.T) {
	db, err := sql.Open("mock_driver_main", "")
	require.NoError(t, err)

	cfg := &config.Config{
		AppPort:       "8080",
		AppEnv:        "test",
		SecretKey:     string(testSecret),
		NotifyBaseURL: "https://api.example.com",
	}

	router := newServer(cfg, db, payment.NewManager(fakeProvider{}))

	assert.NotNil(t, router)
	req, _ := http.NewRequest("GET", "/health", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
}

// --- Mock Driver for Testing ---
type mockDriver struct{}

func (m *mockDriver) Open(name string) (driver.Conn, error)         { return &mockConn{}, nil }
func (c *mockConn) Prepare(query string) (driver.Stmt, error)       { return &mockStmt{}, nil }
func (c *mockConn) Close() error                                    { return nil }
func (c *mockConn) Begin() (driver.Tx, error)                       { return nil, nil }
func (s *mockStmt) Close() error                                    { return nil }
func (s *mockStmt) NumInput() int                                   { return 0 }
func (s *mockStmt) Exec(args []driver.Value) (driver.Result, error) { return nil, nil }
func (s *mockStmt) Query(args []driver.Value) (driver.Rows, error)  { return nil, nil }

type mockConn struct{}
type mockStmt struct{}

func init() {
	sql.Register("mock_driver_main", &mockDriver{})
}

func setRunEnv(t *testing.T) {
	t.Setenv("APP_PORT", "8080")
	t.Setenv("APP_ENV", "test")
	t.Setenv("DB_HOST", "localhost")
	t.Setenv("DB_PORT", "5432")
	t.Setenv("DB_USER", "user")
	t.Setenv("DB_PASSWORD", "pass")
	t.Setenv("DB_NAME", "db")
	t.Setenv("SECRET_KEY", string(testSecret))
	t.Setenv("NOTIFY_BASE_URL", "https://api.example.com")
	t.Setenv("PAYU_MODE", "sandbox")
	t.Setenv("PAYU_POS_ID", "300746")
	t.Setenv("PAYU_MD5_KEY", "md5")
	t.Setenv("PAYU_OAUTH_CLIENT_ID", "300746")
	t.Setenv("PAYU_OAUTH_CLIENT_SECRET", "secret")
}

func TestRun(t *testing.T) {
	origInitDB := initDBFunc
	origProvider := newProviderFunc
	origStartServer := startServerFunc
	defer func() {
		initDBFunc = origInitDB
		newProviderFunc = origProvider
		startServerFunc = origStartServer
	}()

	initDBFunc = func(cfg *config.Config) *sql.DB {
		db, _ := sql.Open("mock_driver_main", "")
		return db
	}
	newProviderFunc = func(ctx context.Context, cfg *config.Config) (payment.Provider, error) {
		return fakeProvider{}, nil
	}

	t.Run("Starts", func(t *testing.T) {
		setRunEnv(t)

		var gotAddr string
		startServerFunc = func(srv *http.Server) error {
			gotAddr = srv.Addr
			return nil
		}

		assert.NoError(t, run())
		assert.Equal(t, ":8080", gotAddr)
	})

	t.Run("InvalidConfig", func(t *testing.T) {
		setRunEnv(t)
		t.Setenv("PAYU_POS_ID", "")

		assert.Error(t, run())
	})

	t.Run("ProviderFails", func(t *testing.T) {
		setRunEnv(t)
		newProviderFunc = func(ctx context.Context, cfg *config.Config) (payment.Provider, error) {
			return nil, &payment.AuthError{Provider: "PayU", Description: "unknown error"}
		}

		err := run()
		_, ok := payment.IsAuthError(err)
		assert.True(t, ok)
	})
}
