package core

import (
	"log/slog"
	"time"

	"groupsight/entity"
	"groupsight/lib/sl"
)

// MemberCounter reports the current member count of a chat.
// Satisfied by the bot's getChatMemberCount call.
type MemberCounter func(chatId int64) (int, error)

// SnapshotChannels stores today's member count for every linked channel.
// Chats that fail to answer are skipped; the loop keeps going.
func (c *Core) SnapshotChannels(count MemberCounter) {
	channels, err := c.db.AllChannels()
	if err != nil {
		c.log.Error("listing channels for snapshot", sl.Err(err))
		return
	}
	day := time.Now().UTC()
	stored := 0
	for _, chatId := range channels {
		members, err := count(chatId)
		if err != nil {
			c.log.Warn("counting channel members", sl.Chat(chatId), sl.Err(err))
			continue
		}
		if err = c.db.UpsertChannelCount(chatId, day, members); err != nil {
			c.log.Warn("storing channel count", sl.Chat(chatId), sl.Err(err))
			continue
		}
		stored++
	}
	c.log.Debug("channel snapshot done",
		slog.Int("channels", len(channels)),
		slog.Int("stored", stored),
	)
}

// ExpiringSubscriptions lists subscriptions running out within the window.
func (c *Core) ExpiringSubscriptions(within time.Duration) ([]*entity.Subscription, error) {
	return c.db.ExpiringSubscriptions(within)
}

// ExpiredUnverified lists gate members who missed their deadline.
func (c *Core) ExpiredUnverified(limit int) ([]*entity.PendingVerification, error) {
	return c.db.ExpiredUnverified(limit)
}

// ResolvePending drops a pending row once the member was banned or cleared.
func (c *Core) ResolvePending(chatId, userId int64) error {
	return c.db.DeletePending(chatId, userId)
}
