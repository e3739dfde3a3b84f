package database

import (
	"fmt"

	"groupsight/entity"
)

// ensureSchema creates missing tables on startup. Statements are idempotent,
// so a restart against an existing database is a no-op.
func (s *MySql) ensureSchema() error {
	tables := map[string]string{
		"tenants": `(
			id CHAR(36) NOT NULL,
			owner_tg_id BIGINT NOT NULL,
			name VARCHAR(128) NOT NULL,
			created_at DATETIME NOT NULL,
			PRIMARY KEY (id),
			UNIQUE KEY owner_tg_id (owner_tg_id)
		)`,
		"user_tenants": `(
			tg_id BIGINT NOT NULL,
			tenant_id CHAR(36) NOT NULL,
			PRIMARY KEY (tg_id)
		)`,
		"users": `(
			tg_id BIGINT NOT NULL,
			first_name VARCHAR(128) NOT NULL DEFAULT '',
			last_name VARCHAR(128) NOT NULL DEFAULT '',
			username VARCHAR(64) NOT NULL DEFAULT '',
			language_code VARCHAR(16) NOT NULL DEFAULT '',
			phone VARCHAR(32) NOT NULL DEFAULT '',
			region VARCHAR(8) NOT NULL DEFAULT '',
			is_premium TINYINT(1) NOT NULL DEFAULT 0,
			last_seen_at DATETIME NOT NULL,
			created_at DATETIME NOT NULL,
			PRIMARY KEY (tg_id)
		)`,
		"chats": `(
			tg_chat_id BIGINT NOT NULL,
			tenant_id CHAR(36) NOT NULL,
			title VARCHAR(255) NOT NULL DEFAULT '',
			type VARCHAR(16) NOT NULL DEFAULT 'group',
			linked_at DATETIME NOT NULL,
			PRIMARY KEY (tg_chat_id),
			KEY tenant_id (tenant_id)
		)`,
		"member_events": `(
			id BIGINT NOT NULL AUTO_INCREMENT,
			chat_id BIGINT NOT NULL,
			tg_id BIGINT NOT NULL,
			happened_at DATETIME NOT NULL,
			kind VARCHAR(8) NOT NULL,
			invite_link VARCHAR(255) NOT NULL DEFAULT '',
			PRIMARY KEY (id),
			UNIQUE KEY event (chat_id, tg_id, happened_at, kind)
		)`,
		"chat_members_daily": `(
			chat_id BIGINT NOT NULL,
			day DATE NOT NULL,
			joins INT NOT NULL DEFAULT 0,
			leaves INT NOT NULL DEFAULT 0,
			PRIMARY KEY (chat_id, day)
		)`,
		"chat_user_index": `(
			chat_id BIGINT NOT NULL,
			tg_id BIGINT NOT NULL,
			first_seen_at DATETIME NOT NULL,
			last_seen_at DATETIME NOT NULL,
			is_member TINYINT(1) NOT NULL DEFAULT 0,
			PRIMARY KEY (chat_id, tg_id)
		)`,
		"messages_daily": `(
			chat_id BIGINT NOT NULL,
			day DATE NOT NULL,
			messages INT NOT NULL DEFAULT 0,
			PRIMARY KEY (chat_id, day)
		)`,
		"active_users_daily": `(
			chat_id BIGINT NOT NULL,
			day DATE NOT NULL,
			tg_id BIGINT NOT NULL,
			PRIMARY KEY (chat_id, day, tg_id)
		)`,
		"channel_member_counts": `(
			chat_id BIGINT NOT NULL,
			day DATE NOT NULL,
			member_count INT NOT NULL DEFAULT 0,
			PRIMARY KEY (chat_id, day)
		)`,
		"campaign_links": `(
			id CHAR(36) NOT NULL,
			tenant_id CHAR(36) NOT NULL DEFAULT '',
			chat_id BIGINT NOT NULL,
			invite_link VARCHAR(255) NOT NULL,
			campaign_name VARCHAR(64) NOT NULL,
			created_by BIGINT NOT NULL,
			created_at DATETIME NOT NULL,
			PRIMARY KEY (id),
			UNIQUE KEY invite_link (invite_link),
			KEY chat_id (chat_id)
		)`,
		"campaign_joins": `(
			id BIGINT NOT NULL AUTO_INCREMENT,
			chat_id BIGINT NOT NULL,
			user_id BIGINT NOT NULL,
			campaign_name VARCHAR(64) NOT NULL,
			happened_at DATETIME NOT NULL,
			PRIMARY KEY (id),
			KEY chat_time (chat_id, happened_at)
		)`,
		"group_gate_targets": `(
			chat_id BIGINT NOT NULL,
			target VARCHAR(255) NOT NULL,
			join_url VARCHAR(255) NOT NULL DEFAULT '',
			set_by BIGINT NOT NULL DEFAULT 0,
			set_at DATETIME NOT NULL,
			PRIMARY KEY (chat_id, target)
		)`,
		"required_membership": `(
			target VARCHAR(255) NOT NULL,
			added_by BIGINT NOT NULL DEFAULT 0,
			added_at DATETIME NOT NULL,
			PRIMARY KEY (target)
		)`,
		"pending_verifications": `(
			chat_id BIGINT NOT NULL,
			user_id BIGINT NOT NULL,
			deadline DATETIME NOT NULL,
			verified TINYINT(1) NOT NULL DEFAULT 0,
			PRIMARY KEY (chat_id, user_id)
		)`,
		"plans": `(
			code VARCHAR(32) NOT NULL,
			title VARCHAR(128) NOT NULL,
			description VARCHAR(255) NOT NULL DEFAULT '',
			price_stars BIGINT NOT NULL DEFAULT 0,
			duration_days INT NOT NULL,
			is_active TINYINT(1) NOT NULL DEFAULT 1,
			updated_at DATETIME NOT NULL,
			PRIMARY KEY (code)
		)`,
		"subscriptions": `(
			tg_id BIGINT NOT NULL,
			plan VARCHAR(32) NOT NULL,
			started_at DATETIME NOT NULL,
			expires_at DATETIME NOT NULL,
			PRIMARY KEY (tg_id)
		)`,
		"payments": `(
			id CHAR(36) NOT NULL,
			tenant_id CHAR(36) NOT NULL DEFAULT '',
			tg_user_id BIGINT NOT NULL,
			amount BIGINT NOT NULL,
			currency VARCHAR(8) NOT NULL,
			method VARCHAR(16) NOT NULL,
			provider_payload TEXT,
			status VARCHAR(16) NOT NULL,
			created_at DATETIME NOT NULL,
			PRIMARY KEY (id)
		)`,
	}

	for name, definition := range tables {
		query := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s %s", s.table(name), definition)
		if _, err := s.db.Exec(query); err != nil {
			return fmt.Errorf("create table %s: %w", name, err)
		}
	}
	return nil
}

// seedPlans inserts the default plan set when the plans table is empty.
func (s *MySql) seedPlans() error {
	var count int
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s", s.table("plans"))
	if err := s.db.QueryRow(query).Scan(&count); err != nil {
		return fmt.Errorf("count plans: %w", err)
	}
	if count > 0 {
		return nil
	}
	for _, plan := range entity.DefaultPlans() {
		if err := s.UpsertPlan(plan); err != nil {
			return fmt.Errorf("seed plan %s: %w", plan.Code, err)
		}
	}
	return nil
}
