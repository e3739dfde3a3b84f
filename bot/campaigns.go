package bot

import (
	"fmt"
	"strings"

	"groupsight/entity"
	"groupsight/lib/sl"

	tgbotapi "github.com/PaulSonOfLars/gotgbot/v2"
	"github.com/PaulSonOfLars/gotgbot/v2/ext"
)

// campaignNew creates a named invite link for the current group or channel.
// Joins through the link are attributed to the campaign.
func (t *TgBot) campaignNew(_ *tgbotapi.Bot, ctx *ext.Context) error {
	chat := ctx.EffectiveChat
	userId := ctx.EffectiveUser.Id

	if chat.Type == "private" {
		t.plainResponse(chat.Id, "Run /campaign inside the group or channel.")
		return nil
	}
	if !t.requireChatAdmin(chat.Id, userId) {
		t.plainResponse(chat.Id, "Only chat admins can create campaign links.")
		return nil
	}
	args := commandArgs(ctx.EffectiveMessage)
	if len(args) == 0 {
		t.plainResponse(chat.Id, "Usage: /campaign <name> or /campaign clear")
		return nil
	}
	// Clearing stays available after a subscription lapses.
	if len(args) == 1 && strings.EqualFold(args[0], "clear") {
		if err := t.db.ClearCampaignLinks(chat.Id); err != nil {
			t.reportError(chat.Id, "/campaign clear", err)
			return nil
		}
		t.log.Info("campaign links cleared", sl.Chat(chat.Id), sl.User(userId))
		t.plainResponse(chat.Id, "Campaign links cleared. Old invite links keep working but are no longer attributed.")
		return nil
	}
	if !t.requirePro(userId) {
		t.plainResponse(chat.Id, "Campaign links are a Pro feature. See /plans in my DM.")
		return nil
	}
	name := strings.Join(args, " ")

	invite, err := t.api.CreateChatInviteLink(chat.Id, &tgbotapi.CreateChatInviteLinkOpts{
		Name: name,
	})
	if err != nil {
		t.reportError(chat.Id, "/campaign", err)
		return nil
	}

	link := &entity.CampaignLink{
		ChatId:       chat.Id,
		InviteLink:   invite.InviteLink,
		CampaignName: name,
		CreatedBy:    userId,
	}
	if err = t.db.UpsertCampaignLink(link); err != nil {
		t.reportError(chat.Id, "/campaign save", err)
		return nil
	}
	t.log.Info("campaign link created", sl.Chat(chat.Id), sl.User(userId), "campaign", name)

	// The link goes to DM so it does not leak into the group history.
	text := fmt.Sprintf("Campaign <b>%s</b> for %s:\n%s", Sanitize(name), Sanitize(chat.Title), invite.InviteLink)
	_, err = t.api.SendMessage(userId, text, &tgbotapi.SendMessageOpts{ParseMode: "HTML"})
	if err != nil {
		t.plainResponse(chat.Id, text)
		return nil
	}
	t.plainResponse(chat.Id, "Campaign link created, check your DM.")
	return nil
}

func (t *TgBot) campaignList(_ *tgbotapi.Bot, ctx *ext.Context) error {
	replyTo := ctx.EffectiveChat.Id
	chatId, err := t.statsChat(ctx)
	if err != nil {
		t.plainResponse(replyTo, "No linked chats yet. Add me to a group and run /link there.")
		return nil
	}

	links, err := t.db.CampaignLinks(chatId)
	if err != nil {
		t.reportError(replyTo, "/campaigns", err)
		return nil
	}
	if len(links) == 0 {
		t.plainResponse(replyTo, "No campaign links yet. Create one with /campaign <name>.")
		return nil
	}

	lines := []string{"<b>Campaign links:</b>"}
	for _, link := range links {
		lines = append(lines, fmt.Sprintf("• %s\n  %s", Sanitize(link.CampaignName), link.InviteLink))
	}
	t.plainResponse(replyTo, strings.Join(lines, "\n"))
	return nil
}

func (t *TgBot) campaignTop(_ *tgbotapi.Bot, ctx *ext.Context) error {
	replyTo := ctx.EffectiveChat.Id
	chatId, err := t.statsChat(ctx)
	if err != nil {
		t.plainResponse(replyTo, "No linked chats yet. Add me to a group and run /link there.")
		return nil
	}

	top, err := t.svc.TopCampaigns(chatId, 5)
	if err != nil {
		t.reportError(replyTo, "/topcampaigns", err)
		return nil
	}
	if len(top) == 0 {
		t.plainResponse(replyTo, "No campaign joins in the last 30 days.")
		return nil
	}

	lines := []string{"<b>Top campaigns (30 days):</b>"}
	for i, stat := range top {
		lines = append(lines, fmt.Sprintf("%d. %s — %d joins", i+1, Sanitize(stat.CampaignName), stat.Joins))
	}
	t.plainResponse(replyTo, strings.Join(lines, "\n"))
	return nil
}
