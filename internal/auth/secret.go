package auth

import (
	"crypto/rand"
	"os"
	"strings"
	"sync"

	"github.com/google/uuid"

	"fundbridge.io/internal/obs"
)

const secretEnvVariable = "FUNDBRIDGE_AUTH_SECRET"

var (
	secretMu sync.Mutex
	secret   cachedSecret
)

type cachedSecret struct {
	value []byte
	ready bool
}

// SigningSecret returns the process-wide signing key. The externally
// configured secret wins; otherwise a 64-byte random secret is generated
// once and held for the process lifetime, which means every outstanding
// credential becomes unverifiable after a restart. Never fails: if random
// generation itself errors, two concatenated UUIDs stand in as weaker but
// still unpredictable material and the degradation is logged.
func SigningSecret() []byte {
	secretMu.Lock()
	defer secretMu.Unlock()
	if secret.ready {
		return secret.value
	}

	log := obs.With("auth", "secret_provider")
	if raw := strings.TrimSpace(os.Getenv(secretEnvVariable)); raw != "" {
		secret.value = []byte(raw)
		secret.ready = true
		return secret.value
	}

	buf := make([]byte, 64)
	if _, err := rand.Read(buf); err != nil {
		log.Warn().Err(err).
			Msg("random secret generation failed, falling back to concatenated uuids")
		secret.value = []byte(uuid.NewString() + uuid.NewString())
		secret.ready = true
		return secret.value
	}

	log.Warn().
		Msg("no configured signing secret, generated an ephemeral one; all sessions invalidate on restart")
	secret.value = buf
	secret.ready = true
	return secret.value
}

// ResetSecretForTests clears the cached secret. Only intended for test use.
func ResetSecretForTests() {
	secretMu.Lock()
	defer secretMu.Unlock()
	secret = cachedSecret{}
}
