package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/rogerio-castellano/product-management/internal/auth"
	"github.com/rogerio-castellano/product-management/internal/http/ban"
	rl "github.com/rogerio-castellano/product-management/internal/http/rate_limiter"
	"github.com/rogerio-castellano/product-management/internal/logger"
	"github.com/rogerio-castellano/product-management/internal/models"
)

func okHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func TestAuthenticate(t *testing.T) {
	issuer := auth.NewTokenIssuer("secret", time.Minute)
	user := models.User{ID: uuid.New(), Username: "alice", Roles: []string{models.RoleUser}}
	token, err := issuer.Generate(user)
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}

	var seen Principal
	h := Authenticate(issuer)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = PrincipalFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name         string
		header       string
		expectStatus int
	}{
		{"valid", "Bearer " + token, http.StatusOK},
		{"missing", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized},
		{"tampered", "Bearer " + token + "x", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tt.expectStatus {
				t.Errorf("expected %d, got %d", tt.expectStatus, rec.Code)
			}
		})
	}

	if seen.Username != "alice" || seen.UserID != user.ID {
		t.Errorf("unexpected principal %+v", seen)
	}
}

func TestRequireRole(t *testing.T) {
	h := RequireRole(models.RoleAdmin)(http.HandlerFunc(okHandler))

	tests := []struct {
		name         string
		principal    *Principal
		expectStatus int
	}{
		{"anonymous", nil, http.StatusUnauthorized},
		{"user", &Principal{Username: "u", Roles: []string{models.RoleUser}}, http.StatusForbidden},
		{"admin", &Principal{Username: "a", Roles: []string{models.RoleUser, models.RoleAdmin}}, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodDelete, "/", nil)
			if tt.principal != nil {
				req = req.WithContext(WithPrincipal(req.Context(), *tt.principal))
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tt.expectStatus {
				t.Errorf("expected %d, got %d", tt.expectStatus, rec.Code)
			}
		})
	}
}

func TestRequestLogger(t *testing.T) {
	var seenID string
	h := RequestLogger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenID = logger.RequestID(r.Context())
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if seenID == "" || rec.Header().Get(RequestIDHeader) != seenID {
		t.Errorf("expected generated request id to be echoed, got %q / %q", seenID, rec.Header().Get(RequestIDHeader))
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "upstream-id")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if seenID != "upstream-id" {
		t.Errorf("expected inbound request id to be kept, got %q", seenID)
	}
}

func TestRateLimitBansRepeatOffenders(t *testing.T) {
	limiter := rl.New(0.0001, 1)
	bans := ban.NewMemoryStore(ban.Policy{Threshold: 2, Duration: time.Minute})
	h := RateLimit(limiter, bans)(http.HandlerFunc(okHandler))

	send := func() int {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
		req.RemoteAddr = "192.0.2.1:5555"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	expected := []int{http.StatusOK, http.StatusTooManyRequests, http.StatusForbidden, http.StatusForbidden}
	for i, want := range expected {
		if got := send(); got != want {
			t.Errorf("request %d: expected %d, got %d", i, want, got)
		}
	}
}
