package http

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	config "clinic-queue.com/clinic-queue/internal/configs"
	"clinic-queue.com/clinic-queue/internal/metrics"
	repository "clinic-queue.com/clinic-queue/internal/repositories"
	"clinic-queue.com/clinic-queue/internal/services"
)

type envelope struct {
	Success bool              `json:"success"`
	Data    json.RawMessage   `json:"data"`
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors"`
}

type tokenBody struct {
	ID          string `json:"id"`
	TokenNumber int64  `json:"tokenNumber"`
	PatientName string `json:"patientName"`
	PhoneNumber string `json:"phoneNumber"`
	IsVIP       bool   `json:"isVIP"`
	Status      string `json:"status"`
}

func setupServer(t *testing.T, rateLimit int) *echo.Echo {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         gormLogger.Default.LogMode(gormLogger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to connect database: %v", err)
	}
	sqlDB, _ := db.DB()
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := config.Migrate(db); err != nil {
		t.Fatalf("failed to migrate database: %v", err)
	}

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	m := metrics.New()
	svc := services.NewQueueService(repository.NewTokenRepository(db), nil, logger, m, services.QueueOptions{})

	e := echo.New()
	Register(e, NewHandler(svc), RouteOptions{
		RateLimitPerMinute: rateLimit,
		Logger:             logger,
		Metrics:            m,
	})
	return e
}

func do(t *testing.T, e *echo.Echo, method, path, body string) (int, envelope) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("%s %s: invalid JSON response %q: %v", method, path, rec.Body.String(), err)
	}
	return rec.Code, env
}

func decodeToken(t *testing.T, env envelope) tokenBody {
	t.Helper()
	var token tokenBody
	if err := json.Unmarshal(env.Data, &token); err != nil {
		t.Fatalf("invalid token payload %s: %v", env.Data, err)
	}
	return token
}

func TestHandler_CreateAndList(t *testing.T) {
	e := setupServer(t, 100)

	code, env := do(t, e, http.MethodPost, "/api/tokens", `{"patientName":"Alice","phoneNumber":"555-010-2030"}`)
	if code != http.StatusCreated || !env.Success {
		t.Fatalf("expected 201, got %d %+v", code, env)
	}
	created := decodeToken(t, env)
	if created.TokenNumber != 1 || created.Status != "waiting" || created.PhoneNumber != "5550102030" {
		t.Errorf("unexpected token %+v", created)
	}

	code, env = do(t, e, http.MethodGet, "/api/tokens", "")
	if code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	var tokens []tokenBody
	if err := json.Unmarshal(env.Data, &tokens); err != nil || len(tokens) != 1 {
		t.Errorf("expected one token, got %s", env.Data)
	}
}

func TestHandler_CreateValidationFailure(t *testing.T) {
	e := setupServer(t, 100)

	code, env := do(t, e, http.MethodPost, "/api/tokens", `{"patientName":"Al","phoneNumber":"5550102030"}`)
	if code != http.StatusBadRequest || env.Success {
		t.Fatalf("expected 400, got %d", code)
	}
	if _, ok := env.Errors["patientName"]; !ok {
		t.Errorf("expected patientName error, got %+v", env.Errors)
	}

	code, _ = do(t, e, http.MethodPost, "/api/tokens", `{"patientName":`)
	if code != http.StatusBadRequest {
		t.Errorf("expected 400 for malformed JSON, got %d", code)
	}
}

func TestHandler_AdvanceAndCurrent(t *testing.T) {
	e := setupServer(t, 100)

	code, env := do(t, e, http.MethodGet, "/api/tokens/current", "")
	if code != http.StatusOK || string(env.Data) != "null" {
		t.Fatalf("expected null current token, got %d %s", code, env.Data)
	}

	code, env = do(t, e, http.MethodPatch, "/api/tokens/next", "")
	if code != http.StatusOK || string(env.Data) != "null" || env.Message != "No more patients in queue" {
		t.Fatalf("expected empty advance, got %d %+v", code, env)
	}

	do(t, e, http.MethodPost, "/api/tokens", `{"patientName":"Alice","phoneNumber":"5550102030"}`)
	_, env = do(t, e, http.MethodPost, "/api/tokens", `{"patientName":"Bobby","phoneNumber":"5550102031","isVIP":true}`)
	vip := decodeToken(t, env)

	code, env = do(t, e, http.MethodPatch, "/api/tokens/next", "")
	if code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if got := decodeToken(t, env); got.ID != vip.ID || got.Status != "serving" {
		t.Errorf("expected VIP to be served, got %+v", got)
	}

	_, env = do(t, e, http.MethodGet, "/api/tokens/current", "")
	if got := decodeToken(t, env); got.ID != vip.ID {
		t.Errorf("expected current to be %s, got %s", vip.ID, got.ID)
	}
}

func TestHandler_UpdateStatusAndVIP(t *testing.T) {
	e := setupServer(t, 100)

	_, env := do(t, e, http.MethodPost, "/api/tokens", `{"patientName":"Alice","phoneNumber":"5550102030"}`)
	token := decodeToken(t, env)

	code, env := do(t, e, http.MethodPatch, "/api/tokens/reorder/"+token.ID, `{"isVIP":true}`)
	if code != http.StatusOK || !decodeToken(t, env).IsVIP {
		t.Fatalf("expected VIP update, got %d %+v", code, env)
	}

	code, env = do(t, e, http.MethodPatch, "/api/tokens/"+token.ID, `{"status":"skipped"}`)
	if code != http.StatusOK || decodeToken(t, env).Status != "skipped" {
		t.Fatalf("expected skipped, got %d %+v", code, env)
	}

	code, _ = do(t, e, http.MethodPatch, "/api/tokens/"+token.ID, `{"status":"lost"}`)
	if code != http.StatusBadRequest {
		t.Errorf("expected 400 for unknown status, got %d", code)
	}

	code, env = do(t, e, http.MethodPatch, "/api/tokens/"+uuid.NewString(), `{"status":"canceled"}`)
	if code != http.StatusNotFound || env.Message != "token not found" {
		t.Errorf("expected 404, got %d %+v", code, env)
	}

	code, _ = do(t, e, http.MethodPatch, "/api/tokens/reorder/"+uuid.NewString(), `{"isVIP":false}`)
	if code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", code)
	}
}

func TestHandler_Health(t *testing.T) {
	e := setupServer(t, 100)

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"database":"connected"`) {
		t.Errorf("unexpected health response %d %s", rec.Code, rec.Body.String())
	}
}

func TestHandler_RateLimit(t *testing.T) {
	e := setupServer(t, 2)

	for i := 0; i < 2; i++ {
		if code, _ := do(t, e, http.MethodGet, "/api/tokens", ""); code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i, code)
		}
	}

	code, env := do(t, e, http.MethodGet, "/api/tokens", "")
	if code != http.StatusTooManyRequests || env.Message != "rate limit exceeded" {
		t.Errorf("expected 429, got %d %+v", code, env)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("health must not be rate limited, got %d", rec.Code)
	}
}
