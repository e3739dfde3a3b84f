package database

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"groupsight/entity"

	"github.com/google/uuid"
)

// UpsertCampaignLink stores a campaign link; invite_link is unique, so
// re-registering a link just renames its campaign.
func (s *MySql) UpsertCampaignLink(link *entity.CampaignLink) error {
	if link.Id == "" {
		link.Id = uuid.NewString()
	}
	if link.TenantId == "" {
		tenantId, err := s.chatTenant(link.ChatId)
		if err != nil {
			return err
		}
		link.TenantId = tenantId
	}
	query := fmt.Sprintf(
		`INSERT INTO %s (id, tenant_id, chat_id, invite_link, campaign_name, created_by, created_at)
                   VALUES (?, ?, ?, ?, ?, ?, ?)
                   ON DUPLICATE KEY UPDATE
                     campaign_name = VALUES(campaign_name),
                     created_by    = VALUES(created_by)`,
		s.table("campaign_links"),
	)
	_, err := s.db.Exec(query,
		link.Id, link.TenantId, link.ChatId, link.InviteLink,
		link.CampaignName, link.CreatedBy, time.Now().UTC(),
	)
	return err
}

func (s *MySql) chatTenant(chatId int64) (string, error) {
	var tenantId string
	query := fmt.Sprintf("SELECT tenant_id FROM %s WHERE tg_chat_id = ?", s.table("chats"))
	err := s.db.QueryRow(query, chatId).Scan(&tenantId)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("select chat tenant: %w", err)
	}
	return tenantId, nil
}

func (s *MySql) CampaignLinks(chatId int64) ([]*entity.CampaignLink, error) {
	query := fmt.Sprintf(
		`SELECT id, tenant_id, chat_id, invite_link, campaign_name, created_by, created_at
                   FROM %s WHERE chat_id = ? ORDER BY created_at DESC`,
		s.table("campaign_links"),
	)
	rows, err := s.db.Query(query, chatId)
	if err != nil {
		return nil, fmt.Errorf("select campaign links: %w", err)
	}
	defer rows.Close()

	var links []*entity.CampaignLink
	for rows.Next() {
		var link entity.CampaignLink
		if err = rows.Scan(
			&link.Id, &link.TenantId, &link.ChatId, &link.InviteLink,
			&link.CampaignName, &link.CreatedBy, &link.CreatedAt,
		); err != nil {
			return nil, err
		}
		links = append(links, &link)
	}
	return links, rows.Err()
}

func (s *MySql) ClearCampaignLinks(chatId int64) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE chat_id = ?", s.table("campaign_links"))
	_, err := s.db.Exec(query, chatId)
	return err
}

// CampaignByInviteLink maps an invite URL to its campaign name. Tries the
// exact URL first, then falls back to the invite-code suffix so attribution
// survives Telegram reporting the link in a different format.
func (s *MySql) CampaignByInviteLink(chatId int64, inviteURL string) (string, error) {
	var name string
	query := fmt.Sprintf(
		`SELECT campaign_name FROM %s
                   WHERE chat_id = ? AND invite_link = ?
                   ORDER BY created_at DESC LIMIT 1`,
		s.table("campaign_links"),
	)
	err := s.db.QueryRow(query, chatId, inviteURL).Scan(&name)
	if err == nil {
		return name, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("select campaign: %w", err)
	}

	code := entity.ExtractInviteCode(inviteURL)
	if code == "" {
		return "", nil
	}
	query = fmt.Sprintf(
		`SELECT campaign_name FROM %s
                   WHERE chat_id = ? AND invite_link LIKE CONCAT('%%', ?)
                   ORDER BY created_at DESC LIMIT 1`,
		s.table("campaign_links"),
	)
	err = s.db.QueryRow(query, chatId, code).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("select campaign by code: %w", err)
	}
	return name, nil
}

func (s *MySql) RecordCampaignJoin(chatId, userId int64, campaignName string) error {
	stmt, err := s.stmtRecordCampaignJoin()
	if err != nil {
		return err
	}
	_, err = stmt.Exec(chatId, userId, campaignName, time.Now().UTC())
	return err
}

// TopCampaigns returns campaigns by join count over the trailing 30 days.
func (s *MySql) TopCampaigns(chatId int64, limit int) ([]entity.CampaignStat, error) {
	query := fmt.Sprintf(
		`SELECT campaign_name, COUNT(*)
                   FROM %s
                   WHERE chat_id = ? AND happened_at >= DATE_SUB(NOW(), INTERVAL 30 DAY)
                   GROUP BY campaign_name
                   ORDER BY 2 DESC, campaign_name
                   LIMIT ?`,
		s.table("campaign_joins"),
	)
	rows, err := s.db.Query(query, chatId, limit)
	if err != nil {
		return nil, fmt.Errorf("select top campaigns: %w", err)
	}
	defer rows.Close()

	var stats []entity.CampaignStat
	for rows.Next() {
		var stat entity.CampaignStat
		if err = rows.Scan(&stat.CampaignName, &stat.Joins); err != nil {
			return nil, err
		}
		stats = append(stats, stat)
	}
	return stats, rows.Err()
}
