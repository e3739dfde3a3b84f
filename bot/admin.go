package bot

import (
	"fmt"
	"strconv"
	"strings"

	"groupsight/entity"

	tgbotapi "github.com/PaulSonOfLars/gotgbot/v2"
	"github.com/PaulSonOfLars/gotgbot/v2/ext"
)

// Owner compose states: the next DM text message completes the action.
const (
	stateBroadcast = "broadcast"
	stateMassDm    = "massdm"
)

const tenantsPageSize = 20

// tenants lists workspaces, optionally filtered: /tenants [query] [page].
func (t *TgBot) tenants(_ *tgbotapi.Bot, ctx *ext.Context) error {
	userId := ctx.EffectiveUser.Id
	if !t.requireOwner(userId) {
		return nil
	}

	args := commandArgs(ctx.EffectiveMessage)
	search := ""
	page := 0
	if len(args) > 0 {
		if n, err := strconv.Atoi(args[len(args)-1]); err == nil {
			page = n - 1
			args = args[:len(args)-1]
		}
		search = strings.Join(args, " ")
	}
	if page < 0 {
		page = 0
	}

	rows, err := t.svc.TenantsPage(search, tenantsPageSize, page*tenantsPageSize)
	if err != nil {
		t.reportError(userId, "/tenants", err)
		return nil
	}
	if len(rows) == 0 {
		t.plainResponse(userId, "No tenants found.")
		return nil
	}

	lines := []string{fmt.Sprintf("<b>Tenants (page %d):</b>", page+1)}
	for _, row := range rows {
		lines = append(lines, fmt.Sprintf(
			"• %s — owner %d, chats %d, plan %s",
			Sanitize(row.Name), row.OwnerTgId, row.ChatCount, Sanitize(row.Plan),
		))
	}
	t.plainResponse(userId, strings.Join(lines, "\n"))
	return nil
}

func (t *TgBot) usage(_ *tgbotapi.Bot, ctx *ext.Context) error {
	userId := ctx.EffectiveUser.Id
	if !t.requireOwner(userId) {
		return nil
	}

	usage, err := t.svc.Usage()
	if err != nil {
		t.reportError(userId, "/usage", err)
		return nil
	}
	t.plainResponse(userId, fmt.Sprintf(
		"<b>Usage:</b>\nTenants: %d\nUsers: %d\nPremium users: %d\nChats: %d",
		usage.Tenants, usage.Users, usage.PremiumUsers, usage.Chats,
	))
	return nil
}

// require manages the bot-wide required membership list.
func (t *TgBot) require(_ *tgbotapi.Bot, ctx *ext.Context) error {
	userId := ctx.EffectiveUser.Id
	if !t.requireOwner(userId) {
		return nil
	}

	args := commandArgs(ctx.EffectiveMessage)
	if len(args) == 0 || args[0] == "list" {
		targets, err := t.db.RequiredTargets()
		if err != nil {
			t.reportError(userId, "/require", err)
			return nil
		}
		if len(targets) == 0 {
			t.plainResponse(userId, "No required chats. Use /require add @chat.")
			return nil
		}
		t.plainResponse(userId, "<b>Required chats:</b>\n• "+strings.Join(targets, "\n• "))
		return nil
	}

	if len(args) < 2 {
		t.plainResponse(userId, "Usage: /require add|remove @chat")
		return nil
	}
	switch args[0] {
	case "add":
		if err := t.db.AddRequiredTarget(args[1], userId); err != nil {
			t.reportError(userId, "/require add", err)
			return nil
		}
		t.plainResponse(userId, "Added required chat "+Sanitize(args[1]))
	case "remove":
		if err := t.db.RemoveRequiredTarget(args[1]); err != nil {
			t.reportError(userId, "/require remove", err)
			return nil
		}
		t.plainResponse(userId, "Removed required chat "+Sanitize(args[1]))
	default:
		t.plainResponse(userId, "Usage: /require add|remove|list")
	}
	return nil
}

func (t *TgBot) allPlans(_ *tgbotapi.Bot, ctx *ext.Context) error {
	userId := ctx.EffectiveUser.Id
	if !t.requireOwner(userId) {
		return nil
	}

	plans, err := t.db.AllPlans()
	if err != nil {
		t.reportError(userId, "/allplans", err)
		return nil
	}
	lines := []string{"<b>All plans</b> (tap to toggle):"}
	for _, plan := range plans {
		lines = append(lines, fmt.Sprintf("• %s — %d ⭐ / %d days, active=%v",
			plan.Code, plan.PriceStars, plan.DurationDays, plan.Active))
	}
	_ = t.sendWithKeyboard(userId, strings.Join(lines, "\n"), buildPlanAdminKeyboard(plans))
	return nil
}

func (t *TgBot) setPrice(_ *tgbotapi.Bot, ctx *ext.Context) error {
	userId := ctx.EffectiveUser.Id
	if !t.requireOwner(userId) {
		return nil
	}

	args := commandArgs(ctx.EffectiveMessage)
	if len(args) != 2 {
		t.plainResponse(userId, "Usage: /setprice CODE STARS")
		return nil
	}
	price, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil || price < 0 {
		t.plainResponse(userId, "Price must be a non-negative number of stars.")
		return nil
	}

	if err = t.db.SetPlanPrice(args[0], price); err != nil {
		t.reportError(userId, "/setprice", err)
		return nil
	}
	t.plainResponse(userId, fmt.Sprintf("Plan %s now costs %d ⭐", Sanitize(args[0]), price))
	return nil
}

func (t *TgBot) togglePlan(_ *tgbotapi.Bot, ctx *ext.Context) error {
	userId := ctx.EffectiveUser.Id
	if !t.requireOwner(userId) {
		return nil
	}

	args := commandArgs(ctx.EffectiveMessage)
	if len(args) != 1 {
		t.plainResponse(userId, "Usage: /toggleplan CODE")
		return nil
	}
	if err := t.db.TogglePlan(args[0]); err != nil {
		t.reportError(userId, "/toggleplan", err)
		return nil
	}
	t.plainResponse(userId, "Toggled plan "+Sanitize(args[0]))
	return nil
}

// broadcast arms the compose state; the next DM text goes to all known users.
func (t *TgBot) broadcast(_ *tgbotapi.Bot, ctx *ext.Context) error {
	userId := ctx.EffectiveUser.Id
	if !t.requireOwner(userId) {
		return nil
	}

	ids, err := t.db.AllUserIds()
	if err != nil {
		t.reportError(userId, "/broadcast", err)
		return nil
	}

	t.mu.Lock()
	t.ownerState = stateBroadcast
	t.ownerAud = nil
	t.mu.Unlock()

	t.plainResponse(userId, fmt.Sprintf(
		"Broadcast armed for %d users. Send the message text, or /cancel.", len(ids),
	))
	return nil
}

// massDm arms a filtered broadcast: /massdm <days> [any|yes|no] [limit].
func (t *TgBot) massDm(_ *tgbotapi.Bot, ctx *ext.Context) error {
	userId := ctx.EffectiveUser.Id
	if !t.requireOwner(userId) {
		return nil
	}

	args := commandArgs(ctx.EffectiveMessage)
	if len(args) == 0 {
		t.plainResponse(userId, "Usage: /massdm <active within days> [any|yes|no] [limit]")
		return nil
	}
	days, err := strconv.Atoi(args[0])
	if err != nil || days < 1 || days > 365 {
		t.plainResponse(userId, "Days must be between 1 and 365.")
		return nil
	}

	filter := &entity.AudienceFilter{
		OwnerTgId:      userId,
		LastActiveDays: days,
		Phone:          entity.PhoneAny,
		Limit:          10000,
	}
	if len(args) > 1 {
		switch args[1] {
		case "any", "yes", "no":
			filter.Phone = entity.PhoneFilter(args[1])
		default:
			t.plainResponse(userId, "Phone filter must be any, yes or no.")
			return nil
		}
	}
	if len(args) > 2 {
		if limit, err := strconv.Atoi(args[2]); err == nil && limit > 0 && limit <= 10000 {
			filter.Limit = limit
		}
	}

	count, err := t.db.CountAudience(filter)
	if err != nil {
		t.reportError(userId, "/massdm", err)
		return nil
	}

	t.mu.Lock()
	t.ownerState = stateMassDm
	t.ownerAud = filter
	t.mu.Unlock()

	t.plainResponse(userId, fmt.Sprintf(
		"Audience matched %d users. Send the message text, or /cancel.", count,
	))
	return nil
}

func (t *TgBot) cancel(_ *tgbotapi.Bot, ctx *ext.Context) error {
	userId := ctx.EffectiveUser.Id
	if !t.requireOwner(userId) {
		return nil
	}

	t.mu.Lock()
	armed := t.ownerState != ""
	t.ownerState = ""
	t.ownerAud = nil
	t.mu.Unlock()

	if armed {
		t.plainResponse(userId, "Cancelled.")
	}
	return nil
}

// onOwnerText completes an armed compose action with the received text.
func (t *TgBot) onOwnerText(userId int64, text string) error {
	t.mu.Lock()
	state := t.ownerState
	filter := t.ownerAud
	t.ownerState = ""
	t.ownerAud = nil
	t.mu.Unlock()

	if state == "" || strings.HasPrefix(text, "/") {
		return nil
	}

	var ids []int64
	var err error
	switch state {
	case stateBroadcast:
		ids, err = t.db.AllUserIds()
	case stateMassDm:
		ids, err = t.db.AudienceUserIds(filter)
	default:
		return nil
	}
	if err != nil {
		t.reportError(userId, "collecting recipients", err)
		return nil
	}
	if len(ids) == 0 {
		t.plainResponse(userId, "Nobody to send to.")
		return nil
	}

	t.broadcaster.Send(ids, text, userId)
	t.plainResponse(userId, fmt.Sprintf("Sending to %d users…", len(ids)))
	return nil
}
