// Package owner serves the service-owner admin API, guarded by the shared
// secret middleware.
package owner

import (
	"log/slog"
	"net/http"
	"strconv"

	"groupsight/entity"
	"groupsight/lib/api/response"
	"groupsight/lib/sl"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
)

type Core interface {
	TenantsPage(search string, limit, offset int) ([]*entity.TenantSummary, error)
	Usage() (*entity.Usage, error)
	RecentChatEvents(chatId int64, limit int64) ([]*entity.MemberEvent, error)
}

// Tenants lists workspaces: GET /tenants?search=&limit=&offset=.
func Tenants(logger *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := requestLog(logger, r)

		query := r.URL.Query()
		limit, _ := strconv.Atoi(query.Get("limit"))
		offset, _ := strconv.Atoi(query.Get("offset"))

		rows, err := handler.TenantsPage(query.Get("search"), limit, offset)
		if err != nil {
			log.Error("listing tenants", sl.Err(err))
			render.Status(r, 500)
			render.JSON(w, r, response.Error("Request failed"))
			return
		}
		render.JSON(w, r, response.Ok(rows))
	}
}

func Usage(logger *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := requestLog(logger, r)

		usage, err := handler.Usage()
		if err != nil {
			log.Error("collecting usage", sl.Err(err))
			render.Status(r, 500)
			render.JSON(w, r, response.Error("Request failed"))
			return
		}
		render.JSON(w, r, response.Ok(usage))
	}
}

// Events returns the raw member event trail for a chat: GET /events?chat=&limit=.
func Events(logger *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := requestLog(logger, r)

		query := r.URL.Query()
		chatId, err := strconv.ParseInt(query.Get("chat"), 10, 64)
		if err != nil {
			render.Status(r, 400)
			render.JSON(w, r, response.Error("Invalid chat id"))
			return
		}
		limit, _ := strconv.ParseInt(query.Get("limit"), 10, 64)
		if limit <= 0 {
			limit = 50
		}
		if limit > 500 {
			limit = 500
		}

		events, err := handler.RecentChatEvents(chatId, limit)
		if err != nil {
			log.Error("loading member events", sl.Chat(chatId), sl.Err(err))
			render.Status(r, 500)
			render.JSON(w, r, response.Error("Request failed"))
			return
		}
		render.JSON(w, r, response.Ok(events))
	}
}

func requestLog(logger *slog.Logger, r *http.Request) *slog.Logger {
	return logger.With(
		sl.Module("http.handlers.owner"),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)
}
