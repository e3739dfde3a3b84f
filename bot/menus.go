package bot

import (
	tgbotapi "github.com/PaulSonOfLars/gotgbot/v2"
)

// Command lists for Telegram's menu button. The default scope covers every
// user; the owner gets an extended menu in their DM chat scope.

var commandsDefault = []tgbotapi.BotCommand{
	{Command: "start", Description: "Register and open the dashboard"},
	{Command: "link", Description: "Attach this group to your workspace"},
	{Command: "stats", Description: "Join/leave numbers"},
	{Command: "export", Description: "Daily report as CSV"},
	{Command: "campaign", Description: "Create a tracked invite link"},
	{Command: "campaigns", Description: "List campaign links"},
	{Command: "topcampaigns", Description: "Best campaigns of the last 30 days"},
	{Command: "gate", Description: "Manage the force-join gate"},
	{Command: "plans", Description: "Subscription plans"},
	{Command: "status", Description: "Your subscription"},
	{Command: "region", Description: "Set your country"},
	{Command: "help", Description: "Show available commands"},
}

var commandsOwner = append(append([]tgbotapi.BotCommand{}, commandsDefault...),
	tgbotapi.BotCommand{Command: "tenants", Description: "List workspaces"},
	tgbotapi.BotCommand{Command: "usage", Description: "Service counters"},
	tgbotapi.BotCommand{Command: "require", Description: "Bot-wide required chats"},
	tgbotapi.BotCommand{Command: "allplans", Description: "Manage plans"},
	tgbotapi.BotCommand{Command: "broadcast", Description: "Message all users"},
	tgbotapi.BotCommand{Command: "massdm", Description: "Message a filtered audience"},
)

func (t *TgBot) setDefaultCommands() {
	_, err := t.api.SetMyCommands(commandsDefault, &tgbotapi.SetMyCommandsOpts{
		Scope: tgbotapi.BotCommandScopeDefault{},
	})
	if err != nil {
		t.log.Warn("setting default commands", "error", err)
	}
}

func (t *TgBot) setOwnerCommands() {
	if t.config.OwnerId == 0 {
		return
	}
	_, err := t.api.SetMyCommands(commandsOwner, &tgbotapi.SetMyCommandsOpts{
		Scope: tgbotapi.BotCommandScopeChat{ChatId: t.config.OwnerId},
	})
	if err != nil {
		t.log.Warn("setting owner commands", "error", err)
	}
}
