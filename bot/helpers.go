package bot

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"unicode/utf8"

	"groupsight/entity"
	"groupsight/lib/sl"

	tgbotapi "github.com/PaulSonOfLars/gotgbot/v2"
)

const maxTelegramMessageLen = 4096

func (t *TgBot) plainResponse(chatId int64, text string) {
	if text == "" {
		t.log.With("id", chatId).Debug("empty message")
		return
	}

	_, err := t.api.SendMessage(chatId, text, &tgbotapi.SendMessageOpts{
		ParseMode: "HTML",
	})
	if err != nil {
		t.log.With(slog.Int64("id", chatId)).Warn("sending message", sl.Err(err))
		_, err = t.api.SendMessage(chatId, text, &tgbotapi.SendMessageOpts{})
		if err != nil {
			t.log.With(slog.Int64("id", chatId)).Error("sending safe message", sl.Err(err))
		}
	}
}

// sendWithKeyboard sends a message with an inline keyboard attached.
func (t *TgBot) sendWithKeyboard(chatId int64, text string, keyboard tgbotapi.InlineKeyboardMarkup) error {
	if text == "" {
		return nil
	}
	_, err := t.api.SendMessage(chatId, text, &tgbotapi.SendMessageOpts{
		ParseMode:   "HTML",
		ReplyMarkup: keyboard,
	})
	if err != nil {
		t.log.With(slog.Int64("id", chatId)).Warn("sending message with keyboard", sl.Err(err))
		_, err = t.api.SendMessage(chatId, text, &tgbotapi.SendMessageOpts{
			ReplyMarkup: keyboard,
		})
	}
	return err
}

// Sanitize escapes characters Telegram treats as HTML markup.
func Sanitize(input string) string {
	replacer := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	return replacer.Replace(input)
}

func splitMessage(text string, maxLen int) []string {
	if len(text) <= maxLen {
		return []string{text}
	}
	var parts []string
	for len(text) > 0 {
		if len(text) <= maxLen {
			parts = append(parts, text)
			break
		}
		// Try to split at newline, otherwise back off to a rune boundary.
		cutAt := maxLen
		nlIdx := strings.LastIndex(text[:maxLen], "\n")
		if nlIdx > 0 {
			cutAt = nlIdx + 1
		} else {
			for cutAt > 0 && !utf8.RuneStart(text[cutAt]) {
				cutAt--
			}
			if cutAt == 0 {
				cutAt = maxLen
			}
		}
		parts = append(parts, text[:cutAt])
		text = text[cutAt:]
	}
	return parts
}

// entityUser converts a Telegram API user into the stored representation.
func entityUser(from *tgbotapi.User) *entity.User {
	if from == nil {
		return nil
	}
	return &entity.User{
		TgId:         from.Id,
		FirstName:    from.FirstName,
		LastName:     from.LastName,
		Username:     from.Username,
		LanguageCode: from.LanguageCode,
		IsPremium:    from.IsPremium,
	}
}

// commandArgs returns the words after the command itself.
func commandArgs(msg *tgbotapi.Message) []string {
	fields := strings.Fields(msg.Text)
	if len(fields) < 2 {
		return nil
	}
	return fields[1:]
}

func (t *TgBot) requireOwner(userId int64) bool {
	return t.svc.IsOwner(userId)
}

// requireChatAdmin reports whether the user administers the given chat.
func (t *TgBot) requireChatAdmin(chatId, userId int64) bool {
	member, err := t.api.GetChatMember(chatId, userId, nil)
	if err != nil {
		t.log.Warn("checking chat admin", sl.Chat(chatId), sl.User(userId), sl.Err(err))
		return false
	}
	status := member.MergeChatMember().Status
	return status == "creator" || status == "administrator"
}

// requirePro reports whether the user's subscription resolves to Pro.
func (t *TgBot) requirePro(userId int64) bool {
	status, _, err := t.svc.SubscriptionStatus(userId)
	if err != nil {
		t.log.Warn("checking subscription", sl.User(userId), sl.Err(err))
		return false
	}
	return status == entity.StatusPro
}

// isMemberOf checks whether the user belongs to a target chat or channel.
// Targets are "@username" strings, which the typed API cannot address, so
// the check goes through a raw getChatMember call.
func (t *TgBot) isMemberOf(target string, userId int64) (bool, error) {
	params := map[string]string{
		"chat_id": target,
		"user_id": strconv.FormatInt(userId, 10),
	}
	raw, err := t.api.Request("getChatMember", params, nil, nil)
	if err != nil {
		return false, fmt.Errorf("getChatMember %s: %w", target, err)
	}
	var res struct {
		Status string `json:"status"`
	}
	if err = json.Unmarshal(raw, &res); err != nil {
		return false, fmt.Errorf("decoding getChatMember response: %w", err)
	}
	switch res.Status {
	case "creator", "administrator", "member":
		return true, nil
	case "restricted":
		var restricted struct {
			IsMember bool `json:"is_member"`
		}
		_ = json.Unmarshal(raw, &restricted)
		return restricted.IsMember, nil
	}
	return false, nil
}

// missingTargets returns the targets the user has not joined yet.
// A target that cannot be checked counts as missing.
func (t *TgBot) missingTargets(targets []string, userId int64) []string {
	var missing []string
	for _, target := range targets {
		ok, err := t.isMemberOf(target, userId)
		if err != nil {
			t.log.Warn("checking target membership", slog.String("target", target), sl.User(userId), sl.Err(err))
		}
		if !ok {
			missing = append(missing, target)
		}
	}
	return missing
}

// reportError logs the error, notifies the owner, and sends a neutral message to the user.
func (t *TgBot) reportError(chatId int64, command string, err error) {
	t.log.Error("bot command failed",
		slog.String("command", command),
		slog.Int64("user_id", chatId),
		sl.Err(err),
	)
	t.NotifyOwner(fmt.Sprintf("Command %s failed\nUser: %d\nError: %s", command, chatId, err.Error()))
	t.plainResponse(chatId, "Something went wrong. Please try again later.")
}
