// Package miniapp serves the Telegram WebApp API. Every handler expects an
// authenticated user in the request context, put there by the authenticate
// middleware after init-data validation.
package miniapp

import (
	"log/slog"
	"net/http"
	"strconv"

	"groupsight/entity"
	"groupsight/impl/core"
	"groupsight/lib/api/cont"
	"groupsight/lib/api/response"
	"groupsight/lib/sl"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
)

type Core interface {
	UserDashboard(tgId int64) (*core.Dashboard, error)
	ActivePlans() ([]*entity.Plan, error)
	BotUsername() string
	SubscriptionStatus(tgId int64) (entity.SubscriptionStatus, *entity.Subscription, error)
	UserTenant(tgId int64) (string, error)
	TenantChats(tenantId string) ([]*entity.Chat, error)
	ChatForUser(tgId, chatId int64) (*entity.Chat, error)
	DailyStats(chatId int64, days int) ([]entity.DailyStat, error)
	WeeklyStats(chatId int64, weeks int) ([]entity.PeriodStat, error)
	MonthlyStats(chatId int64, months int) ([]entity.PeriodStat, error)
	ActivitySeries(chatId int64, days int) ([]entity.ActivityStat, error)
	TopCampaigns(chatId int64, limit int) ([]entity.CampaignStat, error)
	DailyReportCSV(chatId int64, days int) ([]byte, error)
}

// PlanCard is a plan plus the deep link that opens the purchase flow in chat.
// Stars cannot be charged inside the web view, so the card links out.
type PlanCard struct {
	*entity.Plan
	DeepLink string `json:"deep_link"`
}

func Dashboard(logger *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := requestLog(logger, r)
		user := cont.GetUser(r.Context())

		dashboard, err := handler.UserDashboard(user.TgId)
		if err != nil {
			log.Error("assembling dashboard", sl.Err(err))
			render.Status(r, 500)
			render.JSON(w, r, response.Error("Request failed"))
			return
		}
		render.JSON(w, r, response.Ok(dashboard))
	}
}

func Plans(logger *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := requestLog(logger, r)

		plans, err := handler.ActivePlans()
		if err != nil {
			log.Error("listing plans", sl.Err(err))
			render.Status(r, 500)
			render.JSON(w, r, response.Error("Request failed"))
			return
		}

		cards := make([]PlanCard, 0, len(plans))
		for _, plan := range plans {
			cards = append(cards, PlanCard{
				Plan:     plan,
				DeepLink: plan.DeepLink(handler.BotUsername()),
			})
		}
		render.JSON(w, r, response.Ok(cards))
	}
}

func Subscription(logger *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := requestLog(logger, r)
		user := cont.GetUser(r.Context())

		status, sub, err := handler.SubscriptionStatus(user.TgId)
		if err != nil {
			log.Error("resolving subscription", sl.Err(err))
			render.Status(r, 500)
			render.JSON(w, r, response.Error("Request failed"))
			return
		}

		payload := map[string]interface{}{"status": status}
		if sub != nil {
			payload["plan"] = sub.Plan
			payload["expires_at"] = sub.ExpiresAt
		}
		render.JSON(w, r, response.Ok(payload))
	}
}

func Chats(logger *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := requestLog(logger, r)
		user := cont.GetUser(r.Context())

		tenantId, err := handler.UserTenant(user.TgId)
		if err != nil {
			log.Error("resolving tenant", sl.Err(err))
			render.Status(r, 500)
			render.JSON(w, r, response.Error("Request failed"))
			return
		}
		chats, err := handler.TenantChats(tenantId)
		if err != nil {
			log.Error("listing chats", sl.Err(err))
			render.Status(r, 500)
			render.JSON(w, r, response.Error("Request failed"))
			return
		}
		render.JSON(w, r, response.Ok(chats))
	}
}

// Stats serves the daily, weekly or monthly series of one owned chat.
// The period is a route parameter; the span comes from the query string.
func Stats(logger *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := requestLog(logger, r)

		chat, ok := ownedChat(w, r, log, handler)
		if !ok {
			return
		}

		period := chi.URLParam(r, "period")
		span, _ := strconv.Atoi(r.URL.Query().Get("span"))

		var payload interface{}
		var err error
		switch period {
		case "daily":
			payload, err = handler.DailyStats(chat.TgChatId, span)
		case "weekly":
			payload, err = handler.WeeklyStats(chat.TgChatId, span)
		case "monthly":
			payload, err = handler.MonthlyStats(chat.TgChatId, span)
		case "activity":
			payload, err = handler.ActivitySeries(chat.TgChatId, span)
		default:
			render.Status(r, 400)
			render.JSON(w, r, response.Error("Unknown period"))
			return
		}
		if err != nil {
			log.Error("loading stats", sl.Chat(chat.TgChatId), sl.Err(err))
			render.Status(r, 500)
			render.JSON(w, r, response.Error("Request failed"))
			return
		}
		render.JSON(w, r, response.Ok(payload))
	}
}

func CampaignsTop(logger *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := requestLog(logger, r)

		chat, ok := ownedChat(w, r, log, handler)
		if !ok {
			return
		}
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

		top, err := handler.TopCampaigns(chat.TgChatId, limit)
		if err != nil {
			log.Error("loading top campaigns", sl.Chat(chat.TgChatId), sl.Err(err))
			render.Status(r, 500)
			render.JSON(w, r, response.Error("Request failed"))
			return
		}
		render.JSON(w, r, response.Ok(top))
	}
}

// ReportCSV streams the daily report as a CSV attachment.
func ReportCSV(logger *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := requestLog(logger, r)

		chat, ok := ownedChat(w, r, log, handler)
		if !ok {
			return
		}
		days, _ := strconv.Atoi(r.URL.Query().Get("days"))

		data, err := handler.DailyReportCSV(chat.TgChatId, days)
		if err != nil {
			log.Error("rendering report", sl.Chat(chat.TgChatId), sl.Err(err))
			render.Status(r, 500)
			render.JSON(w, r, response.Error("Request failed"))
			return
		}

		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="report.csv"`)
		_, _ = w.Write(data)
	}
}

// ownedChat parses the chat id route parameter and verifies the chat belongs
// to the authenticated user. Writes the error response itself.
func ownedChat(w http.ResponseWriter, r *http.Request, log *slog.Logger, handler Core) (*entity.Chat, bool) {
	user := cont.GetUser(r.Context())

	chatId, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		render.Status(r, 400)
		render.JSON(w, r, response.Error("Invalid chat id"))
		return nil, false
	}

	chat, err := handler.ChatForUser(user.TgId, chatId)
	if err != nil {
		log.Error("checking chat ownership", sl.Chat(chatId), sl.Err(err))
		render.Status(r, 500)
		render.JSON(w, r, response.Error("Request failed"))
		return nil, false
	}
	if chat == nil {
		render.Status(r, 404)
		render.JSON(w, r, response.Error("Chat not found"))
		return nil, false
	}
	return chat, true
}

func requestLog(logger *slog.Logger, r *http.Request) *slog.Logger {
	return logger.With(
		sl.Module("http.handlers.miniapp"),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)
}
