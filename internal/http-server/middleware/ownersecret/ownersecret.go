package ownersecret

import (
	"crypto/subtle"
	"log/slog"
	"net/http"

	"groupsight/lib/api/response"
	"groupsight/lib/sl"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
)

const headerName = "X-Admin-Secret"

// New guards owner endpoints with a shared secret header.
func New(log *slog.Logger, secret string) func(next http.Handler) http.Handler {
	mod := sl.Module("middleware.ownersecret")
	log.With(mod).Info("owner secret middleware initialized")

	return func(next http.Handler) http.Handler {

		fn := func(w http.ResponseWriter, r *http.Request) {
			logger := log.With(
				mod,
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			provided := r.Header.Get(headerName)
			if secret == "" || subtle.ConstantTimeCompare([]byte(provided), []byte(secret)) != 1 {
				logger.Warn("owner secret rejected")
				render.Status(r, http.StatusForbidden)
				render.JSON(w, r, response.Error("Forbidden"))
				return
			}

			next.ServeHTTP(w, r)
		}

		return http.HandlerFunc(fn)
	}
}
