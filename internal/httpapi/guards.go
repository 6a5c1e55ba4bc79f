package httpapi

import (
	"errors"
	"net/http"
	"slices"
	"strings"

	"fundbridge.io/internal/auth"
	"fundbridge.io/internal/merchant"
	"fundbridge.io/internal/obs"
)

// Guard outcomes recorded in metrics.
const (
	outcomeAllowed         = "allowed"
	outcomeUnauthenticated = "unauthenticated"
	outcomeForbidden       = "forbidden"
	outcomeMerchantMissing = "merchant_missing"
	outcomeError           = "error"
)

// requireRole is the generic role guard. It assumes upstream verification
// already attached a principal; guards never verify credentials
// themselves. When the requirement set includes merchant and the
// principal holds that role, the merchant binding is hydrated lazily and
// cached on the request, so chained guards query the store at most once.
func (a *API) requireRole(guardName string, required ...string) func(http.Handler) http.Handler {
	roles := make([]auth.Role, 0, len(required))
	for _, raw := range required {
		if role := auth.NormalizeRole(raw); role != "" {
			roles = append(roles, role)
		}
	}
	includesMerchant := slices.Contains(roles, auth.RoleMerchant)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := auth.PrincipalFromContext(r.Context())
			if !ok {
				a.denyUnauthenticated(w, guardName)
				return
			}
			if !slices.Contains(roles, principal.Role) {
				a.denyForbidden(w, guardName, principal, roles)
				return
			}
			if includesMerchant && principal.Role == auth.RoleMerchant {
				_, hydrated, err := a.hydrateMerchant(r, principal)
				if err != nil {
					a.denyInternal(w, guardName, principal, err)
					return
				}
				r = hydrated
			}
			obs.AuthDecision(guardName, outcomeAllowed)
			next.ServeHTTP(w, r)
		})
	}
}

func (a *API) isAdmin() func(http.Handler) http.Handler {
	return a.requireRole("isAdmin", "admin")
}

func (a *API) isCustomer() func(http.Handler) http.Handler {
	return a.requireRole("isCustomer", "customer")
}

func (a *API) isInvestor() func(http.Handler) http.Handler {
	return a.requireRole("isInvestor", "investor")
}

func (a *API) isSalesRep() func(http.Handler) http.Handler {
	return a.requireRole("isSalesRep", "sales_rep")
}

// isMerchant is the strict merchant guard: holding the role without a
// merchant record is a distinct failure (404, not 403), and a store fault
// during the required hydration surfaces as 500.
func (a *API) isMerchant() func(http.Handler) http.Handler {
	const guardName = "isMerchant"
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := auth.PrincipalFromContext(r.Context())
			if !ok {
				a.denyUnauthenticated(w, guardName)
				return
			}
			if principal.Role != auth.RoleMerchant {
				a.denyForbidden(w, guardName, principal, []auth.Role{auth.RoleMerchant})
				return
			}
			binding, hydrated, err := a.hydrateMerchant(r, principal)
			if err != nil {
				a.denyInternal(w, guardName, principal, err)
				return
			}
			if binding == nil {
				obs.AuthDecision(guardName, outcomeMerchantMissing)
				log := obs.With("auth", "guards")
				log.Warn().
					Int64("user_id", principal.SubjectID).
					Str("guard", guardName).
					Msg("merchant role without merchant record")
				respondError(w, http.StatusNotFound, "Merchant account not found")
				return
			}
			obs.AuthDecision(guardName, outcomeAllowed)
			next.ServeHTTP(w, hydrated)
		})
	}
}

// isAdminOrMerchant admits either role. Unlike isMerchant it prioritizes
// availability over strict consistency: a missing binding or a store
// fault during hydration is logged and the request proceeds.
func (a *API) isAdminOrMerchant() func(http.Handler) http.Handler {
	const guardName = "isAdminOrMerchant"
	allowed := []auth.Role{auth.RoleAdmin, auth.RoleMerchant}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := auth.PrincipalFromContext(r.Context())
			if !ok {
				a.denyUnauthenticated(w, guardName)
				return
			}
			if !slices.Contains(allowed, principal.Role) {
				a.denyForbidden(w, guardName, principal, allowed)
				return
			}
			if principal.Role == auth.RoleMerchant {
				r = a.hydrateLeniently(r, principal, guardName)
			}
			obs.AuthDecision(guardName, outcomeAllowed)
			next.ServeHTTP(w, r)
		})
	}
}

// authenticateToken admits any authenticated principal and performs the
// same non-fatal merchant hydration as the combinator. Used on mixed-role
// routes that run their own finer-grained checks downstream.
func (a *API) authenticateToken() func(http.Handler) http.Handler {
	const guardName = "authenticateToken"
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := auth.PrincipalFromContext(r.Context())
			if !ok {
				a.denyUnauthenticated(w, guardName)
				return
			}
			if principal.Role == auth.RoleMerchant {
				r = a.hydrateLeniently(r, principal, guardName)
			}
			obs.AuthDecision(guardName, outcomeAllowed)
			next.ServeHTTP(w, r)
		})
	}
}

// hydrateMerchant resolves the merchant binding for the principal,
// reusing a resolution already cached on the request. A (nil, nil) result
// means the lookup ran and the record is confirmed absent; that outcome
// is cached too, so chained guards agree without re-querying.
func (a *API) hydrateMerchant(r *http.Request, principal auth.Principal) (*merchant.Binding, *http.Request, error) {
	if binding, resolved := merchant.BindingFromContext(r.Context()); resolved {
		return binding, r, nil
	}
	if a.merchants == nil {
		return nil, r, errors.New("merchant store is not configured")
	}
	binding, err := a.merchants.FindByOwner(r.Context(), principal.SubjectID)
	if err != nil {
		if errors.Is(err, merchant.ErrNotFound) {
			r = r.WithContext(merchant.ContextWithBinding(r.Context(), nil))
			return nil, r, nil
		}
		return nil, r, err
	}
	r = r.WithContext(merchant.ContextWithBinding(r.Context(), binding))
	return binding, r, nil
}

// hydrateLeniently swallows hydration faults: the request proceeds with
// whatever could be attached. Handlers behind lenient guards must treat
// the binding as optional.
func (a *API) hydrateLeniently(r *http.Request, principal auth.Principal, guardName string) *http.Request {
	_, hydrated, err := a.hydrateMerchant(r, principal)
	if err != nil {
		log := obs.With("auth", "guards")
		log.Warn().Err(err).
			Int64("user_id", principal.SubjectID).
			Str("guard", guardName).
			Msg("merchant hydration failed, proceeding without binding")
		return r
	}
	return hydrated
}

func (a *API) denyUnauthenticated(w http.ResponseWriter, guardName string) {
	obs.AuthDecision(guardName, outcomeUnauthenticated)
	respondError(w, http.StatusUnauthorized, "Authentication required")
}

// denyForbidden names the required roles in the response; the caller's
// actual role is only logged server-side.
func (a *API) denyForbidden(w http.ResponseWriter, guardName string, principal auth.Principal, required []auth.Role) {
	obs.AuthDecision(guardName, outcomeForbidden)
	log := obs.With("auth", "guards")
	log.Warn().
		Int64("user_id", principal.SubjectID).
		Str("role", principal.Role.String()).
		Str("guard", guardName).
		Msg("role mismatch")
	respondError(w, http.StatusForbidden, forbiddenMessage(required))
}

func (a *API) denyInternal(w http.ResponseWriter, guardName string, principal auth.Principal, err error) {
	obs.AuthDecision(guardName, outcomeError)
	log := obs.With("auth", "guards")
	log.Error().Err(err).
		Int64("user_id", principal.SubjectID).
		Str("guard", guardName).
		Msg("merchant hydration failed")
	respondError(w, http.StatusInternalServerError, "An error occurred during authorization")
}

func forbiddenMessage(required []auth.Role) string {
	names := make([]string, 0, len(required))
	for _, role := range required {
		names = append(names, role.String())
	}
	return "Access denied: requires " + strings.Join(names, " or ") + " role"
}
