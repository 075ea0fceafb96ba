package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
)

// CORS allows browser clients on any origin to call the API. Preflight
// results may be cached for six hours. The allow-origin header is set
// on every response, including ones for requests without an Origin
// header, so non-browser clients see the open policy too.
func CORS() func(http.Handler) http.Handler {
	handler := cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
		MaxAge:         21600,
	})

	return func(next http.Handler) http.Handler {
		wrapped := handler(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			wrapped.ServeHTTP(w, r)
		})
	}
}
