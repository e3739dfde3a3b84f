package entity

import "time"

type ChatType string

const (
	ChatGroup      ChatType = "group"
	ChatSupergroup ChatType = "supergroup"
	ChatChannel    ChatType = "channel"
)

// Chat is a Telegram group or channel linked to a tenant.
type Chat struct {
	TgChatId int64     `json:"tg_chat_id" bson:"tg_chat_id"`
	TenantId string    `json:"tenant_id" bson:"tenant_id"`
	Title    string    `json:"title" bson:"title"`
	Type     ChatType  `json:"type" bson:"type"`
	LinkedAt time.Time `json:"linked_at" bson:"linked_at"`
}

func (c *Chat) IsChannel() bool {
	return c.Type == ChatChannel
}

func (c *Chat) IsGroup() bool {
	return c.Type == ChatGroup || c.Type == ChatSupergroup
}

func (c *Chat) DisplayTitle() string {
	if c.Title == "" {
		return "—"
	}
	return c.Title
}
