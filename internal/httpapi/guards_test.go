package httpapi

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"fundbridge.io/internal/auth"
	"fundbridge.io/internal/merchant"
)

func authedRequest(t *testing.T, a *API, path string, identity auth.Identity) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.AddCookie(&http.Cookie{Name: "auth_token", Value: issueToken(t, a, identity)})
	return req
}

func TestGuardRejectsMissingCredential(t *testing.T) {
	a := newTestAPI(t, nil)
	for _, path := range []string{
		"/v1/admin/overview", "/v1/merchant/profile", "/v1/account",
		"/v1/portfolio", "/v1/sales/pipeline", "/v1/contracts", "/v1/me",
	} {
		rec := doRequest(t, a, httptest.NewRequest(http.MethodGet, path, nil))
		assertErrorShape(t, rec, http.StatusUnauthorized, "Authentication required")
	}
}

func TestGuardRejectsWrongRole(t *testing.T) {
	a := newTestAPI(t, &stubStore{})
	cases := []struct {
		path    string
		role    string
		message string
	}{
		{"/v1/admin/overview", "customer", "Access denied: requires admin role"},
		{"/v1/account", "admin", "Access denied: requires customer role"},
		{"/v1/portfolio", "merchant", "Access denied: requires investor role"},
		{"/v1/sales/pipeline", "investor", "Access denied: requires sales_rep role"},
		{"/v1/merchant/profile", "customer", "Access denied: requires merchant role"},
		{"/v1/contracts", "customer", "Access denied: requires admin or merchant role"},
	}
	for _, c := range cases {
		req := authedRequest(t, a, c.path, auth.Identity{SubjectID: 9, Role: c.role})
		assertErrorShape(t, doRequest(t, a, req), http.StatusForbidden, c.message)
	}
}

// The issuance default role opens no guarded route.
func TestUnspecifiedRoleNeverMatchesRoleGuards(t *testing.T) {
	a := newTestAPI(t, &stubStore{})
	for _, path := range []string{
		"/v1/admin/overview", "/v1/merchant/profile", "/v1/account",
		"/v1/portfolio", "/v1/sales/pipeline", "/v1/contracts",
	} {
		req := authedRequest(t, a, path, auth.Identity{SubjectID: 9})
		if rec := doRequest(t, a, req); rec.Code != http.StatusForbidden {
			t.Fatalf("%s: status = %d, want 403", path, rec.Code)
		}
	}
}

func TestGuardsAdmitMatchingRoles(t *testing.T) {
	a := newTestAPI(t, &stubStore{})
	cases := []struct {
		path string
		role string
	}{
		{"/v1/admin/overview", "admin"},
		{"/v1/account", "customer"},
		{"/v1/portfolio", "investor"},
		{"/v1/sales/pipeline", "sales_rep"},
	}
	for _, c := range cases {
		req := authedRequest(t, a, c.path, auth.Identity{SubjectID: 9, Role: c.role})
		if rec := doRequest(t, a, req); rec.Code != http.StatusOK {
			t.Fatalf("%s as %s: status = %d, body %q", c.path, c.role, rec.Code, rec.Body.String())
		}
	}
}

func TestStrictMerchantGuardServesProfile(t *testing.T) {
	store := &stubStore{binding: &merchant.Binding{ID: 5, Name: "Acme", OwnerSubjectID: 42}}
	a := newTestAPI(t, store)

	req := authedRequest(t, a, "/v1/merchant/profile", auth.Identity{SubjectID: 42, Role: "merchant"})
	rec := doRequest(t, a, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %q", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	m, ok := body["merchant"].(map[string]any)
	if !ok {
		t.Fatalf("expected a merchant object, got %v", body["merchant"])
	}
	if m["name"] != "Acme" {
		t.Fatalf("unexpected merchant: %v", m)
	}
	if store.calls != 1 {
		t.Fatalf("store queried %d times, want 1", store.calls)
	}
}

func TestStrictMerchantGuardMissingRecordIs404(t *testing.T) {
	a := newTestAPI(t, &stubStore{})
	req := authedRequest(t, a, "/v1/merchant/profile", auth.Identity{SubjectID: 42, Role: "merchant"})
	assertErrorShape(t, doRequest(t, a, req), http.StatusNotFound, "Merchant account not found")
}

func TestStrictMerchantGuardStoreFaultIs500(t *testing.T) {
	a := newTestAPI(t, &stubStore{err: errors.New("connection refused")})
	req := authedRequest(t, a, "/v1/merchant/profile", auth.Identity{SubjectID: 42, Role: "merchant"})
	assertErrorShape(t, doRequest(t, a, req), http.StatusInternalServerError, "An error occurred during authorization")
}

func TestStrictMerchantGuardUnconfiguredStoreIs500(t *testing.T) {
	a := newTestAPI(t, nil)
	req := authedRequest(t, a, "/v1/merchant/profile", auth.Identity{SubjectID: 42, Role: "merchant"})
	assertErrorShape(t, doRequest(t, a, req), http.StatusInternalServerError, "An error occurred during authorization")
}

func TestLenientCombinatorAdmitsAdminWithoutLookup(t *testing.T) {
	store := &stubStore{}
	a := newTestAPI(t, store)

	req := authedRequest(t, a, "/v1/contracts", auth.Identity{SubjectID: 1, Role: "admin"})
	rec := doRequest(t, a, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %q", rec.Code, rec.Body.String())
	}
	if store.calls != 0 {
		t.Fatalf("admin caller should not trigger a merchant lookup, got %d", store.calls)
	}
	if body := decodeBody(t, rec); body["merchant"] != nil {
		t.Fatalf("expected null merchant for admin, got %v", body["merchant"])
	}
}

func TestLenientCombinatorProceedsWithoutRecord(t *testing.T) {
	a := newTestAPI(t, &stubStore{})
	req := authedRequest(t, a, "/v1/contracts", auth.Identity{SubjectID: 42, Role: "merchant"})
	rec := doRequest(t, a, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %q", rec.Code, rec.Body.String())
	}
	if body := decodeBody(t, rec); body["merchant"] != nil {
		t.Fatalf("expected null merchant, got %v", body["merchant"])
	}
}

func TestLenientCombinatorProceedsOnStoreFault(t *testing.T) {
	a := newTestAPI(t, &stubStore{err: errors.New("connection refused")})
	req := authedRequest(t, a, "/v1/contracts", auth.Identity{SubjectID: 42, Role: "merchant"})
	if rec := doRequest(t, a, req); rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %q", rec.Code, rec.Body.String())
	}
}

func TestAuthenticateTokenAdmitsAnyPrincipal(t *testing.T) {
	a := newTestAPI(t, &stubStore{})
	for _, role := range []string{"admin", "merchant", "customer", "investor", "sales_rep", ""} {
		req := authedRequest(t, a, "/v1/me", auth.Identity{SubjectID: 42, Role: role})
		if rec := doRequest(t, a, req); rec.Code != http.StatusOK {
			t.Fatalf("role %q: status = %d, body %q", role, rec.Code, rec.Body.String())
		}
	}
}

// Chained merchant-aware guards must share one resolution per request,
// including a resolved absence.
func TestChainedGuardsHydrateOnce(t *testing.T) {
	store := &stubStore{binding: &merchant.Binding{ID: 5, OwnerSubjectID: 42}}
	a := newTestAPI(t, store)

	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	chain := a.authenticateToken()(a.isAdminOrMerchant()(a.isMerchant()(inner)))

	principal := auth.Principal{SubjectID: 42, Role: auth.RoleMerchant}
	req := httptest.NewRequest(http.MethodGet, "/v1/merchant/profile", nil)
	req = req.WithContext(auth.ContextWithPrincipal(req.Context(), principal))

	rec := httptest.NewRecorder()
	chain.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %q", rec.Code, rec.Body.String())
	}
	if store.calls != 1 {
		t.Fatalf("store queried %d times across the chain, want 1", store.calls)
	}
}

func TestChainedGuardsShareResolvedAbsence(t *testing.T) {
	store := &stubStore{}
	a := newTestAPI(t, store)

	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	chain := a.isAdminOrMerchant()(a.isMerchant()(inner))

	principal := auth.Principal{SubjectID: 42, Role: auth.RoleMerchant}
	req := httptest.NewRequest(http.MethodGet, "/v1/merchant/profile", nil)
	req = req.WithContext(auth.ContextWithPrincipal(req.Context(), principal))

	rec := httptest.NewRecorder()
	chain.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("strict guard behind the combinator should still 404, got %d", rec.Code)
	}
	if store.calls != 1 {
		t.Fatalf("store queried %d times, want 1 (absence must be cached)", store.calls)
	}
}
