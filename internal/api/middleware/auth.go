package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/crowdlab/crowdlab/internal/api"
	"github.com/crowdlab/crowdlab/internal/domain"
	"github.com/crowdlab/crowdlab/internal/service/auth"
	"github.com/crowdlab/crowdlab/internal/store"
)

// Authenticate resolves the request's actor from the api_key query
// parameter or a bearer token and stores it on the context. Requests
// with no credentials, or credentials that resolve to nothing, proceed
// as the anonymous actor; endpoint authorization decides what anonymous
// may do.
func Authenticate(users store.UserStore, tokens *auth.Service, logger *slog.Logger) func(http.Handler) http.Handler {
	log := logger.With(slog.String("component", "auth_middleware"))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			var actor *domain.User

			if key := r.URL.Query().Get("api_key"); key != "" {
				user, err := users.GetByAPIKey(ctx, key)
				switch {
				case err == nil:
					actor = user
				case store.IsNotFound(err):
					log.Debug("unknown api key", slog.String("path", r.URL.Path))
				default:
					log.Error("resolving api key", slog.String("error", err.Error()))
				}
			}

			if actor == nil && tokens != nil {
				if header := r.Header.Get("Authorization"); strings.HasPrefix(header, "Bearer ") {
					user, err := tokens.ResolveToken(ctx, strings.TrimPrefix(header, "Bearer "))
					if err != nil {
						log.Debug("bearer token rejected", slog.String("error", err.Error()))
					} else {
						actor = user
					}
				}
			}

			next.ServeHTTP(w, r.WithContext(api.WithActor(ctx, actor)))
		})
	}
}
