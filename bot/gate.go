package bot

import (
	"fmt"
	"strings"
	"time"

	"groupsight/entity"
	"groupsight/internal/metrics"
	"groupsight/lib/sl"

	tgbotapi "github.com/PaulSonOfLars/gotgbot/v2"
	"github.com/PaulSonOfLars/gotgbot/v2/ext"
)

// fullPermissions lifts a gate restriction. Info/pin rights stay with the
// group's own defaults.
var fullPermissions = tgbotapi.ChatPermissions{
	CanSendMessages:       true,
	CanSendAudios:         true,
	CanSendDocuments:      true,
	CanSendPhotos:         true,
	CanSendVideos:         true,
	CanSendVideoNotes:     true,
	CanSendVoiceNotes:     true,
	CanSendPolls:          true,
	CanSendOtherMessages:  true,
	CanAddWebPagePreviews: true,
	CanInviteUsers:        true,
}

// enforceGate restricts a fresh group member until they join every gate
// target. The member gets the join keyboard in DM, or in the group when
// their DMs are closed.
func (t *TgBot) enforceGate(chat tgbotapi.Chat, member *tgbotapi.User) {
	targets, err := t.db.GroupTargets(chat.Id)
	if err != nil {
		t.log.Warn("loading gate targets", sl.Chat(chat.Id), sl.Err(err))
		return
	}
	if len(targets) == 0 {
		return
	}

	_, err = t.api.RestrictChatMember(chat.Id, member.Id, tgbotapi.ChatPermissions{}, nil)
	if err != nil {
		t.log.Warn("restricting member", sl.Chat(chat.Id), sl.User(member.Id), sl.Err(err))
		return
	}
	if err = t.db.UpsertPending(chat.Id, member.Id, t.config.VerifyTTL); err != nil {
		t.log.Warn("saving pending verification", sl.Chat(chat.Id), sl.User(member.Id), sl.Err(err))
	}

	text := fmt.Sprintf(
		"To write in <b>%s</b> you need to join the chats below first. You have %d seconds.",
		Sanitize(chat.Title), int(t.config.VerifyTTL.Seconds()),
	)
	keyboard := buildGateKeyboard(targets)
	if err = t.sendWithKeyboard(member.Id, text, keyboard); err != nil {
		// DMs closed: fall back to a group mention.
		mention := fmt.Sprintf(`<a href="tg://user?id=%d">%s</a>, `, member.Id, Sanitize(member.FirstName))
		_ = t.sendWithKeyboard(chat.Id, mention+text, keyboard)
	}
}

// onVerifyCallback re-checks gate and required-membership targets and lifts
// restrictions in every chat where the user was pending.
func (t *TgBot) onVerifyCallback(_ *tgbotapi.Bot, ctx *ext.Context) error {
	cb := ctx.CallbackQuery
	userId := cb.From.Id

	var targets []string
	required, err := t.db.RequiredTargets()
	if err != nil {
		t.reportError(userId, "verify", err)
		return nil
	}
	targets = append(targets, required...)

	pendingChats, err := t.db.PendingChats(userId)
	if err != nil {
		t.reportError(userId, "verify", err)
		return nil
	}
	for _, chatId := range pendingChats {
		gates, err := t.db.GroupTargets(chatId)
		if err != nil {
			t.log.Warn("loading gate targets", sl.Chat(chatId), sl.Err(err))
			continue
		}
		for _, gate := range gates {
			targets = append(targets, gate.Target)
		}
	}

	missing := t.missingTargets(dedupe(targets), userId)
	if len(missing) > 0 {
		_, _ = cb.Answer(t.api, &tgbotapi.AnswerCallbackQueryOpts{
			Text:      "Not yet: " + strings.Join(missing, ", "),
			ShowAlert: true,
		})
		return nil
	}

	chatIds, err := t.db.MarkVerified(userId)
	if err != nil {
		t.reportError(userId, "verify", err)
		return nil
	}
	for _, chatId := range chatIds {
		_, err = t.api.RestrictChatMember(chatId, userId, fullPermissions, nil)
		if err != nil {
			t.log.Warn("lifting restriction", sl.Chat(chatId), sl.User(userId), sl.Err(err))
		}
	}

	_, _ = cb.Answer(t.api, &tgbotapi.AnswerCallbackQueryOpts{Text: "Verified ✅"})
	if cb.Message != nil {
		t.plainResponse(cb.From.Id, "You're verified. Welcome!")
	}
	return nil
}

// SweepExpired kicks members who missed their verification deadline.
// The ban is followed by an unban, so the member can come back through a
// fresh invite and verify again. Called by the scheduler once a minute.
func (t *TgBot) SweepExpired() {
	pending, err := t.svc.ExpiredUnverified(t.config.SweepBatch)
	if err != nil {
		t.log.Error("loading expired verifications", sl.Err(err))
		return
	}
	for _, p := range expiredToKick(pending, time.Now().UTC()) {
		_, err = t.api.BanChatMember(p.ChatId, p.UserId, nil)
		if err != nil {
			t.log.Warn("banning unverified member", sl.Chat(p.ChatId), sl.User(p.UserId), sl.Err(err))
		} else {
			_, err = t.api.UnbanChatMember(p.ChatId, p.UserId, &tgbotapi.UnbanChatMemberOpts{OnlyIfBanned: true})
			if err != nil {
				t.log.Warn("unbanning kicked member", sl.Chat(p.ChatId), sl.User(p.UserId), sl.Err(err))
			}
			metrics.GateBans.Inc()
		}
		if err = t.svc.ResolvePending(p.ChatId, p.UserId); err != nil {
			t.log.Warn("resolving pending verification", sl.Chat(p.ChatId), sl.User(p.UserId), sl.Err(err))
		}
	}
	if len(pending) > 0 {
		t.log.Info("gate sweep finished", "processed", len(pending))
	}
}

// expiredToKick filters pending entries down to the ones past their deadline
// and still unverified.
func expiredToKick(pending []*entity.PendingVerification, now time.Time) []*entity.PendingVerification {
	var out []*entity.PendingVerification
	for _, p := range pending {
		if p.ShouldBan(now) {
			out = append(out, p)
		}
	}
	return out
}

// gate manages the force-join targets of a group:
//
//	/gate                 — list targets
//	/gate add @chat [url] — add a target, optionally with a custom join link
//	/gate remove @chat    — remove one target
//	/gate clear           — remove all targets
func (t *TgBot) gate(_ *tgbotapi.Bot, ctx *ext.Context) error {
	msg := ctx.EffectiveMessage
	chat := ctx.EffectiveChat
	userId := ctx.EffectiveUser.Id

	if chat.Type != "group" && chat.Type != "supergroup" {
		t.plainResponse(chat.Id, "Run /gate inside the group you want to protect.")
		return nil
	}
	if !t.requireChatAdmin(chat.Id, userId) {
		t.plainResponse(chat.Id, "Only group admins can manage the gate.")
		return nil
	}

	args := commandArgs(msg)
	if len(args) == 0 {
		targets, err := t.db.GroupTargets(chat.Id)
		if err != nil {
			t.reportError(chat.Id, "/gate", err)
			return nil
		}
		if len(targets) == 0 {
			t.plainResponse(chat.Id, "No gate targets configured. Use /gate add @chat to add one.")
			return nil
		}
		lines := make([]string, 0, len(targets)+1)
		lines = append(lines, "<b>Gate targets:</b>")
		for _, target := range targets {
			lines = append(lines, "• "+Sanitize(target.Target))
		}
		t.plainResponse(chat.Id, strings.Join(lines, "\n"))
		return nil
	}

	if !t.requirePro(userId) {
		t.plainResponse(chat.Id, "Force Join is a Pro feature. See /plans in my DM.")
		return nil
	}

	switch args[0] {
	case "add":
		if len(args) < 2 {
			t.plainResponse(chat.Id, "Usage: /gate add @chat [invite url]")
			return nil
		}
		target := &entity.GateTarget{
			ChatId: chat.Id,
			Target: args[1],
			SetBy:  userId,
		}
		if len(args) > 2 {
			target.JoinUrl = args[2]
		}
		if err := t.db.AddGroupTarget(target); err != nil {
			t.reportError(chat.Id, "/gate add", err)
			return nil
		}
		t.plainResponse(chat.Id, "Added gate target "+Sanitize(args[1]))
	case "remove":
		if len(args) < 2 {
			t.plainResponse(chat.Id, "Usage: /gate remove @chat")
			return nil
		}
		if err := t.db.RemoveGroupTarget(chat.Id, args[1]); err != nil {
			t.reportError(chat.Id, "/gate remove", err)
			return nil
		}
		t.plainResponse(chat.Id, "Removed gate target "+Sanitize(args[1]))
	case "clear":
		if err := t.db.ClearGroupTargets(chat.Id); err != nil {
			t.reportError(chat.Id, "/gate clear", err)
			return nil
		}
		t.plainResponse(chat.Id, "All gate targets removed.")
	default:
		t.plainResponse(chat.Id, "Usage: /gate [add|remove|clear]")
	}
	return nil
}

func dedupe(values []string) []string {
	seen := make(map[string]bool, len(values))
	var out []string
	for _, v := range values {
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}
