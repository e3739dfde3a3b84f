package core

import (
	"fmt"

	"groupsight/entity"
)

// RegisterUser upserts the user, makes sure a personal tenant exists and
// returns its id.
func (c *Core) RegisterUser(user *entity.User) (string, error) {
	if err := c.db.UpsertUser(user); err != nil {
		return "", fmt.Errorf("upsert user: %w", err)
	}
	name := user.FirstName
	if name == "" {
		name = user.Username
	}
	tenantId, err := c.db.EnsurePersonalTenant(user.TgId, name)
	if err != nil {
		return "", err
	}
	if err = c.db.LinkUserTenant(user.TgId, tenantId); err != nil {
		return "", fmt.Errorf("link tenant: %w", err)
	}
	return tenantId, nil
}

func (c *Core) UserTenant(tgId int64) (string, error) {
	return c.db.UserTenant(tgId)
}

// LinkChat attaches a chat to the owner's personal tenant.
func (c *Core) LinkChat(chat *entity.Chat, ownerTgId int64) error {
	tenantId, err := c.db.EnsurePersonalTenant(ownerTgId, "")
	if err != nil {
		return err
	}
	if err = c.db.LinkUserTenant(ownerTgId, tenantId); err != nil {
		return err
	}
	chat.TenantId = tenantId
	return c.db.UpsertChat(chat)
}

func (c *Core) TenantChats(tenantId string) ([]*entity.Chat, error) {
	return c.db.TenantChats(tenantId)
}

// ChatForUser returns the chat when it belongs to the user's workspace,
// nil otherwise. The mini-app API uses it to fence stats queries.
func (c *Core) ChatForUser(tgId, chatId int64) (*entity.Chat, error) {
	tenantId, err := c.db.UserTenant(tgId)
	if err != nil {
		return nil, err
	}
	if tenantId == "" {
		return nil, nil
	}
	chats, err := c.db.TenantChats(tenantId)
	if err != nil {
		return nil, err
	}
	for _, chat := range chats {
		if chat.TgChatId == chatId {
			return chat, nil
		}
	}
	return nil, nil
}

func (c *Core) TenantsPage(search string, limit, offset int) ([]*entity.TenantSummary, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return c.db.TenantsPage(search, limit, offset)
}

// Usage collects the owner-panel counters.
func (c *Core) Usage() (*entity.Usage, error) {
	tenants, err := c.db.CountTenants()
	if err != nil {
		return nil, err
	}
	users, err := c.db.CountUsers()
	if err != nil {
		return nil, err
	}
	premium, err := c.db.CountPremiumUsers()
	if err != nil {
		return nil, err
	}
	chats, err := c.db.CountChats()
	if err != nil {
		return nil, err
	}
	return &entity.Usage{
		Tenants:      tenants,
		Users:        users,
		PremiumUsers: premium,
		Chats:        chats,
	}, nil
}
