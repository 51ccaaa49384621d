package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/coreybb/taskboard/auth"
	"github.com/coreybb/taskboard/webutil"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// RequireUser rejects requests without a valid bearer token with 401 and a
// Bearer challenge. Accepted requests carry the user in their context.
func RequireUser(authenticator *auth.Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := auth.BearerToken(r.Header.Get(webutil.HeaderAuthorization))
			if !ok {
				webutil.RespondWithError(w, http.StatusUnauthorized, "Not authenticated")
				return
			}

			user, err := authenticator.Authenticate(r.Context(), token)
			if err != nil {
				if errors.Is(err, auth.ErrUnauthorized) {
					slog.Warn("Rejected bearer token",
						"path", r.URL.Path,
						"request_id", middleware.GetReqID(r.Context()),
						"error", err,
					)
					webutil.RespondWithError(w, http.StatusUnauthorized, "Invalid token")
					return
				}
				slog.Error("Failed to authenticate request",
					"path", r.URL.Path,
					"request_id", middleware.GetReqID(r.Context()),
					"error", err,
				)
				webutil.RespondWithError(w, http.StatusInternalServerError, "Internal Server Error")
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.WithUser(r.Context(), user)))
		})
	}
}

// CORS allows browser clients from the given origins to call the API with
// credentials.
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{webutil.HeaderWWWAuthenticate},
		AllowCredentials: true,
		MaxAge:           300,
	})
}
