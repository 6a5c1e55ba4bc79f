package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"fundbridge.io/internal/auth"
	"fundbridge.io/internal/config"
	"fundbridge.io/internal/merchant"
)

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Addr:        ":0",
			Environment: "development",
			Timeout:     5 * time.Second,
		},
		Auth: config.AuthConfig{
			Issuer:           "fundbridge",
			AccessTTL:        7 * 24 * time.Hour,
			RememberTTL:      30 * 24 * time.Hour,
			CookieName:       "auth_token",
			LegacyCookieName: "token",
			AdminPathPrefix:  "/v1/admin",
		},
		Limits: config.LimitsConfig{
			RatePerSecond: 1000,
			RateBurst:     1000,
			MaxBodyBytes:  1 << 20,
		},
	}
}

func newTestTokens(t *testing.T) *auth.Service {
	t.Helper()
	svc, err := auth.NewService(auth.WithSecret([]byte("httpapi-test-secret-0123456789")))
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func newTestAPI(t *testing.T, store merchant.Store) *API {
	t.Helper()
	return New(testConfig(), newTestTokens(t), store, ReadyProbe{}, "test")
}

// stubStore counts lookups so hydration caching is observable.
type stubStore struct {
	binding *merchant.Binding
	err     error
	calls   int
}

func (s *stubStore) FindByOwner(ctx context.Context, subjectID int64) (*merchant.Binding, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	if s.binding == nil {
		return nil, merchant.ErrNotFound
	}
	return s.binding, nil
}

func issueToken(t *testing.T, a *API, identity auth.Identity) string {
	t.Helper()
	token, err := a.tokens.Issue(identity)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	return token
}

func doRequest(t *testing.T, a *API, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	a.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return body
}

func assertErrorShape(t *testing.T, rec *httptest.ResponseRecorder, code int, message string) {
	t.Helper()
	if rec.Code != code {
		t.Fatalf("status = %d, want %d (body %q)", rec.Code, code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	if success, ok := body["success"].(bool); !ok || success {
		t.Fatalf("expected success=false, got %v", body["success"])
	}
	if got, _ := body["message"].(string); got != message {
		t.Fatalf("message = %q, want %q", got, message)
	}
}
