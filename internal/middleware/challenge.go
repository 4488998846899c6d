package middleware

import (
	"crypto/subtle"
	"net/http"
)

// Challenge rejects requests whose X-Challenge-Token header does not match
// the configured secret. An empty secret disables the check entirely; the
// real bot-challenge provider sits in front of this service and stamps the
// header after its own verification.
func Challenge(secret string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if secret != "" {
				token := r.Header.Get("X-Challenge-Token")
				if subtle.ConstantTimeCompare([]byte(token), []byte(secret)) != 1 {
					http.Error(w, "Forbidden: challenge verification failed", http.StatusForbidden)
					return
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}
