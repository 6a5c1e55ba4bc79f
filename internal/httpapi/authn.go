package httpapi

import (
	"net/http"
	"strings"

	"fundbridge.io/internal/auth"
	"fundbridge.io/internal/obs"
)

const (
	authHeader = "Authorization"
	bearer     = "Bearer "
)

const (
	sourceHeader       = "authorization_header"
	sourceCookie       = "cookie"
	sourceLegacyCookie = "legacy_cookie"
)

// extractToken decides where to read the credential from. Administrative
// paths prefer an explicit bearer header over cookies: admin clients are
// expected to assert a fresh token, and a stale cross-role cookie must not
// silently override it. Everywhere else the primary cookie wins, then the
// legacy cookie, then the header.
func (a *API) extractToken(r *http.Request) (token, source string) {
	header := bearerToken(r.Header.Get(authHeader))

	if a.isAdminPath(r.URL.Path) && header != "" {
		return header, sourceHeader
	}
	if c, err := r.Cookie(a.cookieName); err == nil && c.Value != "" {
		return c.Value, sourceCookie
	}
	if c, err := r.Cookie(a.legacyCookieName); err == nil && c.Value != "" {
		return c.Value, sourceLegacyCookie
	}
	if header != "" {
		return header, sourceHeader
	}
	return "", ""
}

func (a *API) isAdminPath(path string) bool {
	return strings.HasPrefix(path, a.adminPathPrefix)
}

// withAuth recovers a credential from the request, verifies it and
// attaches the resulting principal. It never rejects by itself: the
// guards own the 401 boundary, so a missing or invalid credential simply
// leaves the request unauthenticated.
func (a *API) withAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, source := a.extractToken(r)
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}

		// Source diagnostics are gated to admin paths to limit volume.
		if a.isAdminPath(r.URL.Path) {
			log := obs.With("auth", "token_extractor")
			log.Debug().
				Str("source", source).
				Str("path", r.URL.Path).
				Msg("credential source selected")
		}

		principal, err := a.tokens.Verify(token)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}

		next.ServeHTTP(w, r.WithContext(auth.ContextWithPrincipal(r.Context(), principal)))
	})
}

func bearerToken(header string) string {
	header = strings.TrimSpace(header)
	if header == "" {
		return ""
	}
	if !strings.HasPrefix(strings.ToLower(header), strings.ToLower(bearer)) {
		return ""
	}
	return strings.TrimSpace(header[len(bearer):])
}
