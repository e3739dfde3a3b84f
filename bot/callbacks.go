package bot

import (
	"fmt"
	"strings"

	"groupsight/entity"
	"groupsight/lib/sl"

	tgbotapi "github.com/PaulSonOfLars/gotgbot/v2"
	"github.com/PaulSonOfLars/gotgbot/v2/ext"
)

// Callback data prefixes for inline keyboard buttons.
// Telegram limits callback data to 64 bytes, so prefixes are kept short.
const (
	cbBuy        = "buy:" // buy:<plan code>
	cbVerify     = "vf:"  // vf:ok — re-check gate membership
	cbPlanToggle = "pt:"  // pt:<plan code> — owner toggles plan availability
)

// --- Keyboard builders ---

// buildPlansKeyboard creates one buy button per active plan.
func buildPlansKeyboard(plans []*entity.Plan) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(plans))
	for _, plan := range plans {
		rows = append(rows, []tgbotapi.InlineKeyboardButton{{
			Text:         fmt.Sprintf("%s — %d ⭐", plan.Title, plan.PriceStars),
			CallbackData: cbBuy + plan.Code,
		}})
	}
	return tgbotapi.InlineKeyboardMarkup{InlineKeyboard: rows}
}

// buildGateKeyboard lists join buttons for every missing target plus a
// verification button to re-check membership.
func buildGateKeyboard(targets []*entity.GateTarget) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(targets)+1)
	for _, target := range targets {
		rows = append(rows, []tgbotapi.InlineKeyboardButton{{
			Text: "Join " + target.Target,
			Url:  target.ButtonUrl(),
		}})
	}
	rows = append(rows, []tgbotapi.InlineKeyboardButton{{
		Text:         "I've joined ✅",
		CallbackData: cbVerify + "ok",
	}})
	return tgbotapi.InlineKeyboardMarkup{InlineKeyboard: rows}
}

// buildRequiredKeyboard is the DM variant for bot-wide required targets.
func buildRequiredKeyboard(targets []string) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(targets)+1)
	for _, target := range targets {
		gate := entity.GateTarget{Target: target}
		rows = append(rows, []tgbotapi.InlineKeyboardButton{{
			Text: "Join " + target,
			Url:  gate.ButtonUrl(),
		}})
	}
	rows = append(rows, []tgbotapi.InlineKeyboardButton{{
		Text:         "I've joined ✅",
		CallbackData: cbVerify + "ok",
	}})
	return tgbotapi.InlineKeyboardMarkup{InlineKeyboard: rows}
}

// buildWebAppKeyboard opens the mini-app dashboard.
func buildWebAppKeyboard(url string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.InlineKeyboardMarkup{
		InlineKeyboard: [][]tgbotapi.InlineKeyboardButton{{{
			Text:   "Open dashboard",
			WebApp: &tgbotapi.WebAppInfo{Url: url},
		}}},
	}
}

// buildPlanAdminKeyboard creates owner toggle buttons for every plan.
func buildPlanAdminKeyboard(plans []*entity.Plan) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(plans))
	for _, plan := range plans {
		state := "off"
		if plan.Active {
			state = "on"
		}
		rows = append(rows, []tgbotapi.InlineKeyboardButton{{
			Text:         fmt.Sprintf("%s (%d ⭐, %s)", plan.Code, plan.PriceStars, state),
			CallbackData: cbPlanToggle + plan.Code,
		}})
	}
	return tgbotapi.InlineKeyboardMarkup{InlineKeyboard: rows}
}

// --- Callback handlers ---

func (t *TgBot) onBuyCallback(_ *tgbotapi.Bot, ctx *ext.Context) error {
	cb := ctx.CallbackQuery
	code := strings.TrimPrefix(cb.Data, cbBuy)
	userId := cb.From.Id

	err := t.sendInvoice(userId, code)
	if err != nil {
		t.log.Warn("sending invoice", sl.User(userId), sl.Err(err))
		_, _ = cb.Answer(t.api, &tgbotapi.AnswerCallbackQueryOpts{
			Text:      "Could not start payment, try again later",
			ShowAlert: true,
		})
		return nil
	}
	_, _ = cb.Answer(t.api, nil)
	return nil
}

func (t *TgBot) onPlanToggleCallback(_ *tgbotapi.Bot, ctx *ext.Context) error {
	cb := ctx.CallbackQuery
	if !t.requireOwner(cb.From.Id) {
		_, _ = cb.Answer(t.api, &tgbotapi.AnswerCallbackQueryOpts{Text: "Owner only"})
		return nil
	}

	code := strings.TrimPrefix(cb.Data, cbPlanToggle)
	err := t.db.TogglePlan(code)
	if err != nil {
		t.reportError(cb.From.Id, "toggle plan", err)
		return nil
	}

	plans, err := t.db.AllPlans()
	if err == nil && ctx.EffectiveMessage != nil {
		keyboard := buildPlanAdminKeyboard(plans)
		_, _, _ = ctx.EffectiveMessage.EditReplyMarkup(t.api, &tgbotapi.EditMessageReplyMarkupOpts{
			ReplyMarkup: keyboard,
		})
	}
	_, _ = cb.Answer(t.api, &tgbotapi.AnswerCallbackQueryOpts{Text: "Toggled " + code})
	return nil
}
