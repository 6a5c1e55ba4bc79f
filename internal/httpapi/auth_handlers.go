package httpapi

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"fundbridge.io/internal/auth"
	"fundbridge.io/internal/obs"
)

type issueTokenRequest struct {
	SubjectID int64           `json:"subject_id" validate:"required,gt=0"`
	Email     string          `json:"email" validate:"omitempty,email"`
	Role      string          `json:"role"`
	User      *issueTokenUser `json:"user"`
	Remember  bool            `json:"remember"`
}

// issueTokenUser is the legacy nested caller shape; only its role is read.
type issueTokenUser struct {
	Role string `json:"role"`
}

// handleIssueToken mints a credential for an identity asserted by an
// internal caller (the login flow lives upstream). The legacy nested
// user.role shape is adapted here, at the call site, so the issuer keeps
// a single canonical input.
func (a *API) handleIssueToken(w http.ResponseWriter, r *http.Request) {
	var req issueTokenRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := a.validate.Struct(req); err != nil {
		respondError(w, http.StatusBadRequest, "subject_id is required and email must be valid when present")
		return
	}

	role := strings.TrimSpace(req.Role)
	if role == "" && req.User != nil {
		role = req.User.Role
	}

	token, err := a.tokens.Issue(auth.Identity{
		SubjectID: req.SubjectID,
		Email:     req.Email,
		Role:      role,
	})
	if err != nil {
		if errors.Is(err, auth.ErrMissingSubject) {
			respondError(w, http.StatusBadRequest, "subject_id is required")
			return
		}
		log := obs.With("auth", "token_issuer")
		log.Error().Err(err).Msg("token generation failed")
		respondError(w, http.StatusInternalServerError, "token generation failed")
		return
	}

	// Cookie lifetime is decided at issuance only; "remember" is not
	// re-derivable from the token itself.
	maxAge := a.accessTTL
	if req.Remember {
		maxAge = a.rememberTTL
	}
	http.SetCookie(w, &http.Cookie{
		Name:     a.cookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   a.secureCookies,
		SameSite: http.SameSiteStrictMode,
	})

	writeJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"token":      token,
		"expires_at": time.Now().UTC().Add(a.tokens.AccessTTL()).Format(time.RFC3339),
	})
}
