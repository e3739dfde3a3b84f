package core

import (
	"fmt"
	"strings"
	"time"

	"groupsight/entity"
	"groupsight/internal/metrics"
	"groupsight/lib/sl"
)

// TrackJoin records a member join: the user row is upserted, the daily
// counter and membership index are updated, and the event is archived.
// Returns the campaign name when the join arrived through a tracked link.
func (c *Core) TrackJoin(chatId int64, user *entity.User, inviteLink string, now time.Time) (string, error) {
	if user == nil {
		return "", fmt.Errorf("user is nil")
	}
	if err := c.db.UpsertUser(user); err != nil {
		return "", fmt.Errorf("upserting user: %w", err)
	}
	if err := c.db.IncJoin(chatId, now); err != nil {
		return "", fmt.Errorf("incrementing join counter: %w", err)
	}
	if err := c.db.UpsertChatUserIndex(chatId, user.TgId, true, now); err != nil {
		c.log.Warn("updating membership index", sl.Chat(chatId), sl.User(user.TgId), sl.Err(err))
	}

	event := &entity.MemberEvent{
		ChatId:     chatId,
		TgId:       user.TgId,
		HappenedAt: now,
		Kind:       entity.EventJoin,
		InviteLink: inviteLink,
	}
	if err := c.db.RecordEvent(event); err != nil {
		c.log.Warn("recording join event", sl.Chat(chatId), sl.User(user.TgId), sl.Err(err))
	}
	c.archiveEvent(event)
	metrics.Joins.Inc()

	campaign, err := c.attributeJoin(chatId, user.TgId, inviteLink)
	if err != nil {
		c.log.Warn("attributing campaign join", sl.Chat(chatId), sl.Err(err))
		return "", nil
	}
	return campaign, nil
}

// TrackLeave records a member leaving or being removed.
func (c *Core) TrackLeave(chatId, tgId int64, now time.Time) error {
	if err := c.db.IncLeave(chatId, now); err != nil {
		return fmt.Errorf("incrementing leave counter: %w", err)
	}
	if err := c.db.UpsertChatUserIndex(chatId, tgId, false, now); err != nil {
		c.log.Warn("updating membership index", sl.Chat(chatId), sl.User(tgId), sl.Err(err))
	}

	event := &entity.MemberEvent{
		ChatId:     chatId,
		TgId:       tgId,
		HappenedAt: now,
		Kind:       entity.EventLeave,
	}
	if err := c.db.RecordEvent(event); err != nil {
		c.log.Warn("recording leave event", sl.Chat(chatId), sl.User(tgId), sl.Err(err))
	}
	c.archiveEvent(event)
	metrics.Leaves.Inc()

	return nil
}

// attributeJoin resolves the invite link to a campaign and counts the join.
// An empty campaign name means the link is not tracked.
func (c *Core) attributeJoin(chatId, userId int64, inviteLink string) (string, error) {
	if inviteLink == "" {
		return "", nil
	}
	campaign, err := c.db.CampaignByInviteLink(chatId, inviteLink)
	if err != nil {
		return "", err
	}
	if campaign == "" {
		return "", nil
	}
	if err = c.db.RecordCampaignJoin(chatId, userId, campaign); err != nil {
		return "", err
	}
	metrics.CampaignJoins.Inc()
	return campaign, nil
}

// Seen refreshes a user's last-activity timestamp. Errors only log.
func (c *Core) Seen(tgId int64) {
	if err := c.db.TouchSeen(tgId); err != nil {
		c.log.Warn("touching last seen", sl.User(tgId), sl.Err(err))
	}
}

// TrackActivity counts a group message in the daily activity series and
// refreshes the sender's membership index, which feeds the active-within-days
// audience filter. Errors only log; message handling must not fail on it.
func (c *Core) TrackActivity(chatId, tgId int64, now time.Time) {
	if err := c.db.IncMessage(chatId, tgId, now); err != nil {
		c.log.Warn("counting message", sl.Chat(chatId), sl.User(tgId), sl.Err(err))
	}
	if err := c.db.UpsertChatUserIndex(chatId, tgId, true, now); err != nil {
		c.log.Warn("updating membership index", sl.Chat(chatId), sl.User(tgId), sl.Err(err))
	}
}

// SaveContact stores a phone number shared through a contact message.
func (c *Core) SaveContact(tgId int64, phone string) error {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return fmt.Errorf("empty phone number")
	}
	if !strings.HasPrefix(phone, "+") {
		phone = "+" + phone
	}
	return c.db.SetUserPhone(tgId, phone)
}

// SaveRegion validates a country name or code and stores the alpha-2 code,
// returning it.
func (c *Core) SaveRegion(tgId int64, region string) (string, error) {
	user := &entity.User{TgId: tgId}
	if err := user.SetRegion(region); err != nil {
		return "", err
	}
	if user.Region == "" {
		return "", fmt.Errorf("empty region")
	}
	if err := c.db.SetUserRegion(tgId, user.Region); err != nil {
		return "", err
	}
	return user.Region, nil
}
