package database

import (
	"fmt"
	"time"

	"groupsight/entity"
)

func (s *MySql) UpsertChat(chat *entity.Chat) error {
	query := fmt.Sprintf(
		`INSERT INTO %s (tg_chat_id, tenant_id, title, type, linked_at)
                   VALUES (?, ?, ?, ?, ?)
                   ON DUPLICATE KEY UPDATE
                     tenant_id = VALUES(tenant_id),
                     title     = VALUES(title),
                     type      = VALUES(type),
                     linked_at = VALUES(linked_at)`,
		s.table("chats"),
	)
	_, err := s.db.Exec(query, chat.TgChatId, chat.TenantId, chat.Title, chat.Type, time.Now().UTC())
	return err
}

func (s *MySql) TenantChats(tenantId string) ([]*entity.Chat, error) {
	query := fmt.Sprintf(
		`SELECT tg_chat_id, tenant_id, title, type, linked_at
                   FROM %s WHERE tenant_id = ? ORDER BY linked_at DESC`,
		s.table("chats"),
	)
	rows, err := s.db.Query(query, tenantId)
	if err != nil {
		return nil, fmt.Errorf("select tenant chats: %w", err)
	}
	defer rows.Close()

	var chats []*entity.Chat
	for rows.Next() {
		var chat entity.Chat
		if err = rows.Scan(&chat.TgChatId, &chat.TenantId, &chat.Title, &chat.Type, &chat.LinkedAt); err != nil {
			return nil, err
		}
		chats = append(chats, &chat)
	}
	return chats, rows.Err()
}

// AllChannels lists chat ids of linked channels, for member-count snapshots.
func (s *MySql) AllChannels() ([]int64, error) {
	query := fmt.Sprintf("SELECT tg_chat_id FROM %s WHERE type = ?", s.table("chats"))
	rows, err := s.db.Query(query, entity.ChatChannel)
	if err != nil {
		return nil, fmt.Errorf("select channels: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err = rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *MySql) CountChats() (int, error) {
	var count int
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s", s.table("chats"))
	err := s.db.QueryRow(query).Scan(&count)
	return count, err
}
