package database

import (
	"database/sql"
	"fmt"
)

func (s *MySql) prepareStmt(name, query string) (*sql.Stmt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if stmt, ok := s.statements[name]; ok {
		return stmt, nil
	}

	stmt, err := s.db.Prepare(query)
	if err != nil {
		return nil, fmt.Errorf("prepare statement [%s]: %w", name, err)
	}

	s.statements[name] = stmt
	return stmt, nil
}

func (s *MySql) closeStmt() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for name, stmt := range s.statements {
		_ = stmt.Close()
		delete(s.statements, name)
	}
}

func (s *MySql) stmtIncJoin() (*sql.Stmt, error) {
	query := fmt.Sprintf(
		`INSERT INTO %s (chat_id, day, joins, leaves)
                   VALUES (?, ?, 1, 0)
                   ON DUPLICATE KEY UPDATE joins = joins + 1`,
		s.table("chat_members_daily"),
	)
	return s.prepareStmt("incJoin", query)
}

func (s *MySql) stmtIncLeave() (*sql.Stmt, error) {
	query := fmt.Sprintf(
		`INSERT INTO %s (chat_id, day, joins, leaves)
                   VALUES (?, ?, 0, 1)
                   ON DUPLICATE KEY UPDATE leaves = leaves + 1`,
		s.table("chat_members_daily"),
	)
	return s.prepareStmt("incLeave", query)
}

func (s *MySql) stmtRecordEvent() (*sql.Stmt, error) {
	query := fmt.Sprintf(
		`INSERT IGNORE INTO %s (chat_id, tg_id, happened_at, kind, invite_link)
                   VALUES (?, ?, ?, ?, ?)`,
		s.table("member_events"),
	)
	return s.prepareStmt("recordEvent", query)
}

func (s *MySql) stmtUpsertChatUserIndex() (*sql.Stmt, error) {
	query := fmt.Sprintf(
		`INSERT INTO %s (chat_id, tg_id, first_seen_at, last_seen_at, is_member)
                   VALUES (?, ?, ?, ?, ?)
                   ON DUPLICATE KEY UPDATE
                     last_seen_at = VALUES(last_seen_at),
                     is_member = VALUES(is_member)`,
		s.table("chat_user_index"),
	)
	return s.prepareStmt("upsertChatUserIndex", query)
}

func (s *MySql) stmtIncMessage() (*sql.Stmt, error) {
	query := fmt.Sprintf(
		`INSERT INTO %s (chat_id, day, messages)
                   VALUES (?, ?, 1)
                   ON DUPLICATE KEY UPDATE messages = messages + 1`,
		s.table("messages_daily"),
	)
	return s.prepareStmt("incMessage", query)
}

func (s *MySql) stmtMarkActive() (*sql.Stmt, error) {
	query := fmt.Sprintf(
		`INSERT IGNORE INTO %s (chat_id, day, tg_id) VALUES (?, ?, ?)`,
		s.table("active_users_daily"),
	)
	return s.prepareStmt("markActive", query)
}

func (s *MySql) stmtRecordCampaignJoin() (*sql.Stmt, error) {
	query := fmt.Sprintf(
		`INSERT INTO %s (chat_id, user_id, campaign_name, happened_at)
                   VALUES (?, ?, ?, ?)`,
		s.table("campaign_joins"),
	)
	return s.prepareStmt("recordCampaignJoin", query)
}

func (s *MySql) stmtTouchSeen() (*sql.Stmt, error) {
	query := fmt.Sprintf(
		`UPDATE %s SET last_seen_at = ? WHERE tg_id = ?`,
		s.table("users"),
	)
	return s.prepareStmt("touchSeen", query)
}
