package bot

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"

	"groupsight/entity"
	"groupsight/lib/sl"

	tgbotapi "github.com/PaulSonOfLars/gotgbot/v2"
	"github.com/PaulSonOfLars/gotgbot/v2/ext"
)

func (t *TgBot) start(_ *tgbotapi.Bot, ctx *ext.Context) error {
	if ctx.EffectiveChat.Type != "private" {
		return nil
	}
	userId := ctx.EffectiveUser.Id

	_, err := t.svc.RegisterUser(entityUser(ctx.EffectiveUser))
	if err != nil {
		t.reportError(userId, "/start", err)
		return nil
	}

	// Bot-wide required membership comes before anything else.
	required, err := t.db.RequiredTargets()
	if err != nil {
		t.reportError(userId, "/start", err)
		return nil
	}
	if missing := t.missingTargets(required, userId); len(missing) > 0 {
		text := "To use the bot, join the chats below first."
		_ = t.sendWithKeyboard(userId, text, buildRequiredKeyboard(missing))
		return nil
	}

	// Deep link: /start BUY_PRO or /start BUY_PRO_<CODE> opens an invoice.
	args := commandArgs(ctx.EffectiveMessage)
	if len(args) > 0 {
		if planCode := entity.ParseStartPayload(args[0]); planCode != "" {
			if err = t.sendInvoice(userId, planCode); err != nil {
				t.reportError(userId, "/start buy", err)
			}
			return nil
		}
	}

	// One-time phone gate: the contact keyboard comes before the dashboard.
	stored, err := t.db.GetUser(userId)
	if err != nil {
		t.reportError(userId, "/start", err)
		return nil
	}
	if stored == nil || !stored.HasPhone() {
		t.requestPhone(userId)
		return nil
	}

	t.sendWelcome(userId)
	return nil
}

func (t *TgBot) requestPhone(userId int64) {
	keyboard := tgbotapi.ReplyKeyboardMarkup{
		Keyboard: [][]tgbotapi.KeyboardButton{
			{{Text: "Share my phone", RequestContact: true}},
		},
		ResizeKeyboard:  true,
		OneTimeKeyboard: true,
	}
	_, err := t.api.SendMessage(userId,
		"One step left: share your phone number with the button below.",
		&tgbotapi.SendMessageOpts{ReplyMarkup: keyboard},
	)
	if err != nil {
		t.log.Warn("sending phone request", sl.User(userId), sl.Err(err))
	}
}

func (t *TgBot) sendWelcome(userId int64) {
	text := "Welcome! Add me to a group or channel as admin and I'll track joins, " +
		"leaves and campaign links. Use /link inside a group to attach it here."
	if t.config.WebAppUrl != "" {
		_ = t.sendWithKeyboard(userId, text, buildWebAppKeyboard(t.config.WebAppUrl))
		return
	}
	t.plainResponse(userId, text)
}

// region shows or sets the user's country: /region, /region Germany, /region DE.
func (t *TgBot) region(_ *tgbotapi.Bot, ctx *ext.Context) error {
	if ctx.EffectiveChat.Type != "private" {
		return nil
	}
	userId := ctx.EffectiveUser.Id

	args := commandArgs(ctx.EffectiveMessage)
	if len(args) == 0 {
		user, err := t.db.GetUser(userId)
		if err != nil {
			t.reportError(userId, "/region", err)
			return nil
		}
		if user == nil || user.Region == "" {
			t.plainResponse(userId, "No country set. Use /region <country> to set one.")
			return nil
		}
		t.plainResponse(userId, fmt.Sprintf("Your country: %s (%s)", Sanitize(user.RegionName()), user.Region))
		return nil
	}

	code, err := t.svc.SaveRegion(userId, strings.Join(args, " "))
	if err != nil {
		t.plainResponse(userId, "I don't know that country. Try a name like Germany or a code like DE.")
		return nil
	}
	t.plainResponse(userId, "Country set to "+code)
	return nil
}

func (t *TgBot) help(_ *tgbotapi.Bot, ctx *ext.Context) error {
	chatId := ctx.EffectiveChat.Id
	lines := []string{
		"<b>Commands:</b>",
		"/start — register and open the dashboard",
		"/link — attach this group to your workspace (run inside the group)",
		"/stats [weekly|monthly|activity] — join/leave and activity numbers",
		"/region <country> — set your country",
		"/export [days] — daily report as CSV",
		"/campaign <name> — create a tracked invite link",
		"/campaigns — list campaign links",
		"/topcampaigns — best campaigns of the last 30 days",
		"/gate — manage the force-join gate (group admins, Pro)",
		"/plans — subscription plans",
		"/status — your subscription",
	}
	if t.requireOwner(ctx.EffectiveUser.Id) {
		lines = append(lines,
			"",
			"<b>Owner:</b>",
			"/tenants [query] — list workspaces",
			"/usage — service counters",
			"/require add|remove|list — bot-wide required chats",
			"/allplans — manage plans",
			"/setprice CODE STARS — change a plan price",
			"/toggleplan CODE — enable or disable a plan",
			"/broadcast — message all users",
			"/massdm <days> [any|yes|no] — message a filtered audience",
		)
	}
	t.plainResponse(chatId, strings.Join(lines, "\n"))
	return nil
}

func (t *TgBot) status(_ *tgbotapi.Bot, ctx *ext.Context) error {
	userId := ctx.EffectiveUser.Id
	status, sub, err := t.svc.SubscriptionStatus(userId)
	if err != nil {
		t.reportError(userId, "/status", err)
		return nil
	}

	text := fmt.Sprintf("Subscription: <b>%s</b>", status)
	if status == entity.StatusPro && sub != nil {
		text += fmt.Sprintf("\nPlan: %s\nExpires: %s", Sanitize(sub.Plan), sub.ExpiresAt.Format("2006-01-02 15:04 MST"))
	} else if status == entity.StatusFree {
		text += "\nUpgrade with /plans to unlock Force Join and advanced reports."
	}
	t.plainResponse(ctx.EffectiveChat.Id, text)
	return nil
}

func (t *TgBot) plans(_ *tgbotapi.Bot, ctx *ext.Context) error {
	userId := ctx.EffectiveUser.Id
	plans, err := t.svc.ActivePlans()
	if err != nil {
		t.reportError(userId, "/plans", err)
		return nil
	}

	lines := []string{"<b>Plans:</b>"}
	for _, plan := range plans {
		lines = append(lines, fmt.Sprintf("• %s — %d ⭐ / %d days", Sanitize(plan.Title), plan.PriceStars, plan.DurationDays))
	}
	_ = t.sendWithKeyboard(ctx.EffectiveChat.Id, strings.Join(lines, "\n"), buildPlansKeyboard(plans))
	return nil
}

// link attaches the current group or channel to the issuer's workspace.
func (t *TgBot) link(_ *tgbotapi.Bot, ctx *ext.Context) error {
	chat := ctx.EffectiveChat
	userId := ctx.EffectiveUser.Id

	if chat.Type == "private" {
		t.plainResponse(chat.Id, "Run /link inside the group or channel you want to track.")
		return nil
	}
	if !t.requireChatAdmin(chat.Id, userId) {
		t.plainResponse(chat.Id, "Only chat admins can link a chat.")
		return nil
	}

	linked := &entity.Chat{
		TgChatId: chat.Id,
		Title:    chat.Title,
		Type:     entity.ChatType(chat.Type),
	}
	err := t.svc.LinkChat(linked, userId)
	if err != nil {
		t.reportError(chat.Id, "/link", err)
		return nil
	}
	t.log.Info("linked chat", sl.Chat(chat.Id), sl.User(userId))
	t.plainResponse(chat.Id, fmt.Sprintf("Linked <b>%s</b>. Stats start collecting now.", Sanitize(chat.Title)))
	return nil
}

// statsChat resolves which chat a stats command refers to: the current group,
// or the first linked chat when asked in DM.
func (t *TgBot) statsChat(ctx *ext.Context) (int64, error) {
	chat := ctx.EffectiveChat
	if chat.Type != "private" {
		return chat.Id, nil
	}
	tenantId, err := t.svc.UserTenant(ctx.EffectiveUser.Id)
	if err != nil {
		return 0, err
	}
	chats, err := t.svc.TenantChats(tenantId)
	if err != nil {
		return 0, err
	}
	if len(chats) == 0 {
		return 0, fmt.Errorf("no linked chats")
	}
	return chats[0].TgChatId, nil
}

func (t *TgBot) stats(_ *tgbotapi.Bot, ctx *ext.Context) error {
	replyTo := ctx.EffectiveChat.Id
	chatId, err := t.statsChat(ctx)
	if err != nil {
		t.plainResponse(replyTo, "No linked chats yet. Add me to a group and run /link there.")
		return nil
	}

	args := commandArgs(ctx.EffectiveMessage)
	period := "daily"
	if len(args) > 0 {
		period = args[0]
	}

	var lines []string
	switch period {
	case "weekly":
		if !t.requirePro(ctx.EffectiveUser.Id) {
			t.plainResponse(replyTo, "Weekly breakdowns are a Pro feature. See /plans.")
			return nil
		}
		rows, err := t.svc.WeeklyStats(chatId, 12)
		if err != nil {
			t.reportError(replyTo, "/stats weekly", err)
			return nil
		}
		lines = append(lines, "<b>Weekly joins/leaves:</b>")
		for _, row := range rows {
			lines = append(lines, fmt.Sprintf("%s  +%d / -%d  (net %+d)", row.Period, row.Joins, row.Leaves, row.Net))
		}
	case "monthly":
		if !t.requirePro(ctx.EffectiveUser.Id) {
			t.plainResponse(replyTo, "Monthly breakdowns are a Pro feature. See /plans.")
			return nil
		}
		rows, err := t.svc.MonthlyStats(chatId, 12)
		if err != nil {
			t.reportError(replyTo, "/stats monthly", err)
			return nil
		}
		lines = append(lines, "<b>Monthly joins/leaves:</b>")
		for _, row := range rows {
			lines = append(lines, fmt.Sprintf("%s  +%d / -%d  (net %+d)", row.Period, row.Joins, row.Leaves, row.Net))
		}
	case "activity":
		rows, err := t.svc.ActivitySeries(chatId, 7)
		if err != nil {
			t.reportError(replyTo, "/stats activity", err)
			return nil
		}
		lines = append(lines, "<b>Last 7 days activity:</b>")
		for _, row := range rows {
			lines = append(lines, fmt.Sprintf("%s  %d messages / %d active", row.Day, row.Messages, row.ActiveUsers))
		}
	default:
		rows, err := t.svc.DailyStats(chatId, 7)
		if err != nil {
			t.reportError(replyTo, "/stats", err)
			return nil
		}
		lines = append(lines, "<b>Last 7 days:</b>")
		for _, row := range rows {
			lines = append(lines, fmt.Sprintf("%s  +%d / -%d  (net %+d)", row.Day, row.Joins, row.Leaves, row.Net()))
		}
	}
	t.plainResponse(replyTo, strings.Join(lines, "\n"))
	return nil
}

// export sends the daily report as a CSV document.
func (t *TgBot) export(_ *tgbotapi.Bot, ctx *ext.Context) error {
	replyTo := ctx.EffectiveChat.Id
	chatId, err := t.statsChat(ctx)
	if err != nil {
		t.plainResponse(replyTo, "No linked chats yet. Add me to a group and run /link there.")
		return nil
	}

	days := 30
	if args := commandArgs(ctx.EffectiveMessage); len(args) > 0 {
		if n, err := strconv.Atoi(args[0]); err == nil && n > 0 {
			days = n
		}
	}

	data, err := t.svc.DailyReportCSV(chatId, days)
	if err != nil {
		t.reportError(replyTo, "/export", err)
		return nil
	}

	name := fmt.Sprintf("report_%d_%s.csv", chatId, time.Now().UTC().Format("20060102"))
	_, err = t.api.SendDocument(replyTo, tgbotapi.InputFileByReader(name, bytes.NewReader(data)), nil)
	if err != nil {
		t.reportError(replyTo, "/export send", err)
	}
	return nil
}
