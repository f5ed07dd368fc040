package httpapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"pharmapos/internal/domain"
	"pharmapos/internal/store"
)

func TestMiddlewareSetsSecurityHeaders(t *testing.T) {
	api := newTestAPI(t)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	res := httptest.NewRecorder()

	api.Handler().ServeHTTP(res, req)

	if got := res.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Fatalf("expected X-Content-Type-Options nosniff, got %q", got)
	}
	if got := res.Header().Get("X-Frame-Options"); got != "DENY" {
		t.Fatalf("expected X-Frame-Options DENY, got %q", got)
	}
	if got := res.Header().Get("Referrer-Policy"); got == "" {
		t.Fatalf("expected Referrer-Policy to be set")
	}
	if got := res.Header().Get("X-Request-ID"); got == "" {
		t.Fatalf("expected X-Request-ID to be set")
	}
}

func TestLoginRateLimitReturns429(t *testing.T) {
	api := newTestAPI(t)
	body, _ := json.Marshal(domain.LoginRequest{Password: "wrong-pass"})

	for i := 0; i < 6; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		req.RemoteAddr = "127.0.0.1:5000"
		res := httptest.NewRecorder()

		api.Handler().ServeHTTP(res, req)

		if i < 5 && res.Code != http.StatusUnauthorized {
			t.Fatalf("attempt %d expected 401 before limit, got %d", i+1, res.Code)
		}
		if i == 5 && res.Code != http.StatusTooManyRequests {
			t.Fatalf("attempt 6 expected 429, got %d", res.Code)
		}
	}
}

func TestLoginRateLimitIsPerClient(t *testing.T) {
	limiter := newAttemptLimiter(2, 0)
	if !limiter.Allow("10.0.0.1") || !limiter.Allow("10.0.0.1") {
		t.Fatalf("expected the first two attempts to pass")
	}
	if limiter.Allow("10.0.0.1") {
		t.Fatalf("expected third attempt from same client to be blocked")
	}
	if !limiter.Allow("10.0.0.2") {
		t.Fatalf("expected another client to be unaffected")
	}
}

func TestJSONBodyTooLargeRejected(t *testing.T) {
	api := newTestAPI(t)
	veryLong := strings.Repeat("a", (1<<20)+1024)
	body := fmt.Sprintf(`{"password":"%s"}`, veryLong)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	res := httptest.NewRecorder()

	api.Handler().ServeHTTP(res, req)

	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for too large body, got %d", res.Code)
	}
}

func TestUnknownFieldsRejected(t *testing.T) {
	api := newTestAPI(t)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(`{"password":"x","role":"admin"}`))
	req.Header.Set("Content-Type", "application/json")
	res := httptest.NewRecorder()

	api.Handler().ServeHTTP(res, req)

	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown field, got %d", res.Code)
	}
}

func TestInternalErrorsAreHidden(t *testing.T) {
	res := httptest.NewRecorder()
	writeError(res, http.StatusInternalServerError, fmt.Errorf("pq: relation ledger_blobs does not exist"))

	if strings.Contains(res.Body.String(), "ledger_blobs") {
		t.Fatalf("expected internal error details to be hidden, got %s", res.Body.String())
	}
}

func TestStatusForMapsLedgerErrors(t *testing.T) {
	cases := map[error]int{
		store.ErrNotFound:          http.StatusNotFound,
		store.ErrDuplicateKey:      http.StatusConflict,
		store.ErrInsufficientStock: http.StatusConflict,
		store.ErrNegativeStock:     http.StatusConflict,
		store.ErrEmptyBatch:        http.StatusBadRequest,
		store.ErrInvalidInput:      http.StatusBadRequest,
		store.ErrPersistence:       http.StatusInternalServerError,
	}
	for err, want := range cases {
		wrapped := fmt.Errorf("op: %w", err)
		if got := statusFor(wrapped); got != want {
			t.Fatalf("statusFor(%v) = %d, want %d", err, got, want)
		}
	}
	if failed(fmt.Errorf("save: %w", store.ErrPersistence)) {
		t.Fatalf("expected persistence failure not to abort the response")
	}
}
