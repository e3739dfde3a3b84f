package bot

import (
	"time"

	"groupsight/entity"
	"groupsight/lib/sl"

	tgbotapi "github.com/PaulSonOfLars/gotgbot/v2"
	"github.com/PaulSonOfLars/gotgbot/v2/ext"
)

// isPresent treats restricted members with is_member set as present.
func isPresent(member tgbotapi.ChatMember) bool {
	merged := member.MergeChatMember()
	switch merged.Status {
	case "creator", "administrator", "member":
		return true
	case "restricted":
		return merged.IsMember
	}
	return false
}

// onChatMember handles chat_member updates, the single source of truth for
// joins and leaves. Telegram only delivers them while the bot administers
// the chat; onServiceMessage covers the rest.
func (t *TgBot) onChatMember(_ *tgbotapi.Bot, ctx *ext.Context) error {
	update := ctx.ChatMember
	if update == nil {
		return nil
	}
	chat := update.Chat
	if chat.Type == "private" {
		return nil
	}

	was := isPresent(update.OldChatMember)
	now := isPresent(update.NewChatMember)
	if was == now {
		return nil
	}

	member := update.NewChatMember.MergeChatMember().User
	if member.IsBot {
		return nil
	}

	if now {
		inviteLink := ""
		if update.InviteLink != nil {
			inviteLink = update.InviteLink.InviteLink
		}
		t.handleJoin(chat, &member, inviteLink)
		return nil
	}

	err := t.svc.TrackLeave(chat.Id, member.Id, time.Now().UTC())
	if err != nil {
		t.log.Warn("tracking leave", sl.Chat(chat.Id), sl.User(member.Id), sl.Err(err))
	}
	return nil
}

func (t *TgBot) handleJoin(chat tgbotapi.Chat, member *tgbotapi.User, inviteLink string) {
	user := entityUser(member)
	campaign, err := t.svc.TrackJoin(chat.Id, user, inviteLink, time.Now().UTC())
	if err != nil {
		t.log.Warn("tracking join", sl.Chat(chat.Id), sl.User(member.Id), sl.Err(err))
		return
	}
	if campaign != "" {
		t.log.Info("campaign join",
			sl.Chat(chat.Id), sl.User(member.Id),
			"campaign", campaign,
		)
	}

	// Channels have no force-join gate; members cannot be restricted there.
	if chat.Type == "channel" {
		return
	}
	t.enforceGate(chat, member)
}

// onMyChatMember tracks the bot's own rights per chat and links the chat to
// the inviting user's workspace when the bot is added.
func (t *TgBot) onMyChatMember(_ *tgbotapi.Bot, ctx *ext.Context) error {
	update := ctx.MyChatMember
	if update == nil {
		return nil
	}
	chat := update.Chat
	if chat.Type == "private" {
		return nil
	}

	merged := update.NewChatMember.MergeChatMember()
	t.mu.Lock()
	t.selfAdmin[chat.Id] = merged.Status == "administrator"
	t.mu.Unlock()

	switch merged.Status {
	case "left", "kicked":
		t.log.Info("removed from chat", sl.Chat(chat.Id))
		return nil
	}

	// Freshly added: attach the chat to the adder's workspace.
	wasPresent := isPresent(update.OldChatMember)
	if wasPresent {
		return nil
	}

	linked := &entity.Chat{
		TgChatId: chat.Id,
		Title:    chat.Title,
		Type:     entity.ChatType(chat.Type),
	}
	err := t.svc.LinkChat(linked, update.From.Id)
	if err != nil {
		t.log.Warn("linking chat on add", sl.Chat(chat.Id), sl.User(update.From.Id), sl.Err(err))
		return nil
	}
	t.log.Info("linked chat",
		sl.Chat(chat.Id), sl.User(update.From.Id),
		"title", chat.Title, "type", chat.Type,
	)
	return nil
}

// onServiceMessage is the fallback join/leave source for chats where the bot
// is a plain member and chat_member updates never arrive. Invite links are
// not available on service messages, so these joins carry no attribution.
func (t *TgBot) onServiceMessage(_ *tgbotapi.Bot, ctx *ext.Context) error {
	msg := ctx.EffectiveMessage
	if msg == nil || msg.Chat.Type == "private" {
		return nil
	}
	if t.isSelfAdmin(msg.Chat.Id) {
		return nil
	}

	ts := time.Now().UTC()
	for i := range msg.NewChatMembers {
		member := msg.NewChatMembers[i]
		if member.IsBot {
			continue
		}
		t.handleJoin(msg.Chat, &member, "")
	}
	if msg.LeftChatMember != nil && !msg.LeftChatMember.IsBot {
		err := t.svc.TrackLeave(msg.Chat.Id, msg.LeftChatMember.Id, ts)
		if err != nil {
			t.log.Warn("tracking leave", sl.Chat(msg.Chat.Id), sl.User(msg.LeftChatMember.Id), sl.Err(err))
		}
	}
	return nil
}

// isSelfAdmin reports whether the bot administers the chat, resolving and
// caching the answer on first sight of the chat.
func (t *TgBot) isSelfAdmin(chatId int64) bool {
	t.mu.RLock()
	admin, known := t.selfAdmin[chatId]
	t.mu.RUnlock()
	if known {
		return admin
	}

	me := t.api.User
	member, err := t.api.GetChatMember(chatId, me.Id, nil)
	if err != nil {
		t.log.Warn("resolving own rights", sl.Chat(chatId), sl.Err(err))
		return false
	}
	admin = member.MergeChatMember().Status == "administrator"

	t.mu.Lock()
	t.selfAdmin[chatId] = admin
	t.mu.Unlock()
	return admin
}

// onContact stores a phone number shared through the contact keyboard.
// Only the sender's own contact counts.
func (t *TgBot) onContact(_ *tgbotapi.Bot, ctx *ext.Context) error {
	msg := ctx.EffectiveMessage
	if msg == nil || msg.Contact == nil || ctx.EffectiveUser == nil {
		return nil
	}
	userId := ctx.EffectiveUser.Id
	if msg.Contact.UserId != userId {
		t.plainResponse(userId, "Please share your own contact with the button, not someone else's.")
		return nil
	}

	if err := t.svc.SaveContact(userId, msg.Contact.PhoneNumber); err != nil {
		t.reportError(userId, "contact", err)
		return nil
	}
	t.log.Info("phone captured", sl.User(userId))

	_, err := t.api.SendMessage(userId, "Thanks, saved.", &tgbotapi.SendMessageOpts{
		ReplyMarkup: tgbotapi.ReplyKeyboardRemove{RemoveKeyboard: true},
	})
	if err != nil {
		t.log.Warn("removing contact keyboard", sl.User(userId), sl.Err(err))
	}
	t.sendWelcome(userId)
	return nil
}

// onGroupText counts a group message for the daily activity series. Commands
// are dispatched before this handler and are not counted.
func (t *TgBot) onGroupText(_ *tgbotapi.Bot, ctx *ext.Context) error {
	msg := ctx.EffectiveMessage
	if msg == nil || ctx.EffectiveUser == nil || ctx.EffectiveUser.IsBot {
		return nil
	}
	t.svc.TrackActivity(msg.Chat.Id, ctx.EffectiveUser.Id, time.Now().UTC())
	return nil
}

// onPrivateText routes plain DM text: owner compose states first, otherwise
// it only refreshes the sender's activity timestamp.
func (t *TgBot) onPrivateText(_ *tgbotapi.Bot, ctx *ext.Context) error {
	msg := ctx.EffectiveMessage
	if msg == nil || ctx.EffectiveUser == nil {
		return nil
	}
	userId := ctx.EffectiveUser.Id
	t.svc.Seen(userId)

	if !t.requireOwner(userId) {
		return nil
	}
	return t.onOwnerText(userId, msg.Text)
}
