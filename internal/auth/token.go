package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"fundbridge.io/internal/ids"
	"fundbridge.io/internal/obs"
)

const (
	defaultIssuer    = "fundbridge"
	defaultAccessTTL = 7 * 24 * time.Hour
)

// Identity is the single canonical input shape for issuance. Legacy
// callers that carry a nested user object adapt to this at the call site,
// not here.
type Identity struct {
	SubjectID int64
	Email     string
	Role      string
}

// Claims is the wire shape of a credential. Two subject claim names are
// carried for historical consumers; the nested user object is accepted on
// verification only.
type Claims struct {
	SubjectID       int64            `json:"userId,omitempty"`
	LegacySubjectID int64            `json:"id,omitempty"`
	Email           string           `json:"email,omitempty"`
	Role            string           `json:"role,omitempty"`
	User            *nestedUserClaim `json:"user,omitempty"`
	jwt.RegisteredClaims
}

type nestedUserClaim struct {
	Role string `json:"role,omitempty"`
}

// Service issues and verifies credentials. The signing secret is fixed at
// construction so the component tests in isolation; without an explicit
// option it falls back to the process-wide SigningSecret.
type Service struct {
	secret    []byte
	issuer    string
	accessTTL time.Duration
	now       func() time.Time
}

// ServiceOption configures Service behavior.
type ServiceOption func(*Service) error

// WithSecret fixes the signing secret instead of the process-wide one.
func WithSecret(secret []byte) ServiceOption {
	return func(s *Service) error {
		if len(secret) == 0 {
			return errors.New("auth: secret must not be empty")
		}
		s.secret = secret
		return nil
	}
}

// WithIssuer overrides the issuer claim stamped into credentials.
func WithIssuer(issuer string) ServiceOption {
	return func(s *Service) error {
		s.issuer = strings.TrimSpace(issuer)
		return nil
	}
}

// WithAccessTTL overrides the credential lifetime.
func WithAccessTTL(ttl time.Duration) ServiceOption {
	return func(s *Service) error {
		if ttl <= 0 {
			return errors.New("auth: access ttl must be positive")
		}
		s.accessTTL = ttl
		return nil
	}
}

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) ServiceOption {
	return func(s *Service) error {
		if fn != nil {
			s.now = fn
		}
		return nil
	}
}

// NewService constructs the token service.
func NewService(opts ...ServiceOption) (*Service, error) {
	svc := &Service{
		issuer:    defaultIssuer,
		accessTTL: defaultAccessTTL,
		now:       time.Now,
	}
	for _, opt := range opts {
		if err := opt(svc); err != nil {
			return nil, err
		}
	}
	if len(svc.secret) == 0 {
		svc.secret = SigningSecret()
	}
	return svc, nil
}

// AccessTTL returns the configured credential lifetime.
func (s *Service) AccessTTL() time.Duration {
	return s.accessTTL
}

// Issue builds a normalized claim set for the identity and signs it with
// HS512. An identity without a subject id is invalid. An identity without
// a role is stamped "user", signaling no explicit role asserted.
func (s *Service) Issue(identity Identity) (string, error) {
	if identity.SubjectID == 0 {
		return "", ErrMissingSubject
	}

	role := NormalizeRole(identity.Role)
	if role == "" {
		role = RoleUnspecified
	}

	now := s.now().UTC()
	claims := Claims{
		SubjectID:       identity.SubjectID,
		LegacySubjectID: identity.SubjectID,
		Email:           strings.TrimSpace(identity.Email),
		Role:            role.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTTL)),
			ID:        ids.New(),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString(s.secret)
	if err != nil {
		return "", err
	}

	log := obs.With("auth", "token_issuer")
	log.Info().
		Int64("user_id", identity.SubjectID).
		Str("role", role.String()).
		Str("token_preview", tokenPreview(signed)).
		Msg("credential issued")
	return signed, nil
}

// Verify validates signature, algorithm and expiry, then reconstructs a
// normalized Principal. HS512 is the current algorithm; HS256 remains
// accepted for tokens issued before the upgrade. All failures match
// ErrInvalidToken; the wrapped sentinels carry the distinction for
// callers that want it.
func (s *Service) Verify(tokenString string) (Principal, error) {
	log := obs.With("auth", "token_verifier")

	tokenString = strings.TrimSpace(tokenString)
	if tokenString == "" {
		return Principal{}, ErrTokenMalformed
	}

	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrUnsupportedAlgorithm
		}
		return s.secret, nil
	}, jwt.WithValidMethods([]string{
		jwt.SigningMethodHS512.Alg(),
		jwt.SigningMethodHS256.Alg(),
	}), jwt.WithTimeFunc(func() time.Time { return s.now() }))
	if err != nil {
		mapped := mapParseError(err)
		log.Debug().Err(err).Str("token_preview", tokenPreview(tokenString)).
			Msg("credential rejected")
		return Principal{}, mapped
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return Principal{}, ErrInvalidToken
	}

	if s.issuer != "" && claims.Issuer != "" && !strings.EqualFold(claims.Issuer, s.issuer) {
		log.Warn().Str("issuer", claims.Issuer).Msg("credential carries foreign issuer")
		return Principal{}, ErrInvalidToken
	}

	// Reconcile the two historical subject claim names so both are always
	// populated afterwards.
	subjectID, legacyID := claims.SubjectID, claims.LegacySubjectID
	switch {
	case subjectID == 0 && legacyID == 0:
		log.Warn().Msg("credential carries no subject claim")
		return Principal{}, ErrTokenMalformed
	case subjectID == 0:
		subjectID = legacyID
		log.Debug().Int64("user_id", subjectID).Msg("subject derived from legacy claim")
	case legacyID == 0:
		legacyID = subjectID
		log.Debug().Int64("user_id", subjectID).Msg("legacy subject derived from current claim")
	case subjectID != legacyID:
		log.Warn().
			Int64("user_id", subjectID).
			Int64("legacy_user_id", legacyID).
			Msg("conflicting subject claims, canonical claim wins")
		legacyID = subjectID
	}

	// Role cascade: explicit claim, then the legacy nested shape, then the
	// placeholder for "authenticated but role not yet known". Each step
	// normalizes first so a blank claim does not shadow the next one.
	role := NormalizeRole(claims.Role)
	if role == "" && claims.User != nil {
		role = NormalizeRole(claims.User.Role)
		log.Debug().Int64("user_id", subjectID).Msg("role taken from nested legacy claim")
	}
	if role == "" {
		role = RolePendingVerification
		log.Warn().Int64("user_id", subjectID).Msg("credential carries no role claim, assigned placeholder")
	}

	principal := Principal{
		SubjectID:       subjectID,
		LegacySubjectID: legacyID,
		Email:           strings.TrimSpace(claims.Email),
		Role:            role,
		TokenID:         claims.ID,
	}
	if claims.IssuedAt != nil {
		principal.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		principal.ExpiresAt = claims.ExpiresAt.Time
	}

	log.Debug().
		Int64("user_id", principal.SubjectID).
		Str("role", principal.Role.String()).
		Msg("credential verified")
	return principal, nil
}

func mapParseError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrTokenExpired
	case errors.Is(err, jwt.ErrTokenMalformed):
		return ErrTokenMalformed
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return ErrBadSignature
	case errors.Is(err, ErrUnsupportedAlgorithm):
		return ErrUnsupportedAlgorithm
	default:
		return ErrInvalidToken
	}
}

// tokenPreview truncates a credential for logging. Full credentials and
// the secret never reach a log line.
func tokenPreview(token string) string {
	if len(token) <= 16 {
		return token
	}
	return token[:16] + "..."
}
