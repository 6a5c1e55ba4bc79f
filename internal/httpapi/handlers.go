package httpapi

import (
	"net/http"
	"time"

	"fundbridge.io/internal/auth"
	"fundbridge.io/internal/merchant"

	"fundbridge.io/api/spec"
)

func (a *API) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "fundbridge-api",
		"version": a.version,
	})
}

func (a *API) handleReady(w http.ResponseWriter, r *http.Request) {
	if err := a.readyProbe.Check(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "not_ready",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ready",
	})
}

func (a *API) handleInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":    "fundbridge-api",
		"time":    time.Now().UTC().Format(time.RFC3339),
		"version": a.version,
	})
}

func handleOpenAPISpec(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/yaml; charset=utf-8")
	_, _ = w.Write(spec.OpenAPI)
}

func (a *API) handleAdminOverview(w http.ResponseWriter, r *http.Request) {
	principal, _ := auth.PrincipalFromContext(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"admin_id": principal.SubjectID,
		"service":  "fundbridge-api",
		"version":  a.version,
	})
}

// handleMerchantProfile runs behind the strict guard, so the binding is
// guaranteed present.
func (a *API) handleMerchantProfile(w http.ResponseWriter, r *http.Request) {
	binding, _ := merchant.BindingFromContext(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"merchant": binding,
	})
}

func (a *API) handleAccount(w http.ResponseWriter, r *http.Request) {
	principal, _ := auth.PrincipalFromContext(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{
		"success":     true,
		"customer_id": principal.SubjectID,
	})
}

func (a *API) handlePortfolio(w http.ResponseWriter, r *http.Request) {
	principal, _ := auth.PrincipalFromContext(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{
		"success":     true,
		"investor_id": principal.SubjectID,
	})
}

func (a *API) handleSalesPipeline(w http.ResponseWriter, r *http.Request) {
	principal, _ := auth.PrincipalFromContext(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"rep_id":  principal.SubjectID,
	})
}

// handleContracts runs behind the lenient combinator: the binding may be
// absent (admin caller, missing record, store fault) and must be treated
// as optional.
func (a *API) handleContracts(w http.ResponseWriter, r *http.Request) {
	principal, _ := auth.PrincipalFromContext(r.Context())
	binding, _ := merchant.BindingFromContext(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"user_id":  principal.SubjectID,
		"role":     principal.Role.String(),
		"merchant": binding,
	})
}

func (a *API) handleMe(w http.ResponseWriter, r *http.Request) {
	principal, _ := auth.PrincipalFromContext(r.Context())
	binding, _ := merchant.BindingFromContext(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"user": map[string]any{
			"id":    principal.SubjectID,
			"email": principal.Email,
			"role":  principal.Role.String(),
		},
		"merchant": binding,
	})
}
