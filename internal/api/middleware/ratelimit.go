package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/crowdlab/crowdlab/internal/api"
	"github.com/crowdlab/crowdlab/internal/ephemeral"
)

// RateLimit enforces a fixed request window per client. Clients are
// keyed by api_key when present, otherwise by IP, so a key owner on a
// shared network gets their own budget. Every response carries the
// X-RateLimit headers.
func RateLimit(store *ephemeral.Store, limit int, window time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.URL.Query().Get("api_key")
			if key == "" {
				key = api.ClientIP(r)
			}

			remaining, reset, allowed := store.Hit(key, limit, window)
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(reset.Unix(), 10))

			if !allowed {
				api.RespondError(w, r, r.Method, targetFromPath(r.URL.Path), api.ErrRateLimited)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// targetFromPath extracts the entity segment of an API path for the
// failure envelope.
func targetFromPath(path string) string {
	trimmed := strings.TrimPrefix(path, "/api/")
	target, _, _ := strings.Cut(strings.Trim(trimmed, "/"), "/")
	if target == "" {
		return "api"
	}
	return target
}
