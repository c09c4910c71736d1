package http

import (
	"crypto/subtle"
	"net/http"

	"golang.org/x/crypto/bcrypt"

	"github.com/codetrack-hub/codetrack-backend/config"
)

// passwordGate checks the "password" query parameter against the configured
// API secret. With no secret configured the gate is open; the deployment is
// expected to sit behind a private network in that case.
type passwordGate struct {
	password   string
	bcryptHash string
}

func newPasswordGate(cfg config.AuthConfig) *passwordGate {
	return &passwordGate{
		password:   cfg.Password,
		bcryptHash: cfg.PasswordBcryptHash,
	}
}

func (g *passwordGate) enabled() bool {
	return g.password != "" || g.bcryptHash != ""
}

func (g *passwordGate) check(candidate string) bool {
	if g.bcryptHash != "" {
		return bcrypt.CompareHashAndPassword([]byte(g.bcryptHash), []byte(candidate)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(g.password), []byte(candidate)) == 1
}

func (g *passwordGate) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if g.enabled() && !g.check(r.URL.Query().Get("password")) {
			writeJSONError(w, http.StatusUnauthorized, "invalid or missing password")
			return
		}
		next.ServeHTTP(w, r)
	})
}
