package database

import (
	"fmt"
	"strings"
	"time"

	"groupsight/entity"
)

// --- Per-group force-join targets ---

func (s *MySql) GroupTargets(chatId int64) ([]*entity.GateTarget, error) {
	query := fmt.Sprintf(
		`SELECT chat_id, target, join_url, set_by, set_at
                   FROM %s WHERE chat_id = ? ORDER BY set_at ASC`,
		s.table("group_gate_targets"),
	)
	rows, err := s.db.Query(query, chatId)
	if err != nil {
		return nil, fmt.Errorf("select gate targets: %w", err)
	}
	defer rows.Close()

	var targets []*entity.GateTarget
	for rows.Next() {
		var target entity.GateTarget
		if err = rows.Scan(&target.ChatId, &target.Target, &target.JoinUrl, &target.SetBy, &target.SetAt); err != nil {
			return nil, err
		}
		targets = append(targets, &target)
	}
	return targets, rows.Err()
}

func (s *MySql) AddGroupTarget(target *entity.GateTarget) error {
	target.Target = strings.TrimSpace(target.Target)
	if target.Target == "" {
		return nil
	}
	query := fmt.Sprintf(
		`INSERT INTO %s (chat_id, target, join_url, set_by, set_at)
                   VALUES (?, ?, ?, ?, ?)
                   ON DUPLICATE KEY UPDATE
                     join_url = VALUES(join_url),
                     set_by   = VALUES(set_by),
                     set_at   = VALUES(set_at)`,
		s.table("group_gate_targets"),
	)
	_, err := s.db.Exec(query, target.ChatId, target.Target, target.JoinUrl, target.SetBy, time.Now().UTC())
	return err
}

func (s *MySql) RemoveGroupTarget(chatId int64, target string) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE chat_id = ? AND target = ?", s.table("group_gate_targets"))
	_, err := s.db.Exec(query, chatId, strings.TrimSpace(target))
	return err
}

func (s *MySql) ClearGroupTargets(chatId int64) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE chat_id = ?", s.table("group_gate_targets"))
	_, err := s.db.Exec(query, chatId)
	return err
}

// --- Bot-wide required membership (DM gate) ---

func (s *MySql) RequiredTargets() ([]string, error) {
	query := fmt.Sprintf("SELECT target FROM %s ORDER BY added_at ASC", s.table("required_membership"))
	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("select required targets: %w", err)
	}
	defer rows.Close()

	var targets []string
	for rows.Next() {
		var target string
		if err = rows.Scan(&target); err != nil {
			return nil, err
		}
		targets = append(targets, target)
	}
	return targets, rows.Err()
}

func (s *MySql) AddRequiredTarget(target string, addedBy int64) error {
	target = strings.TrimSpace(target)
	if target == "" {
		return nil
	}
	query := fmt.Sprintf(
		`INSERT IGNORE INTO %s (target, added_by, added_at) VALUES (?, ?, ?)`,
		s.table("required_membership"),
	)
	_, err := s.db.Exec(query, target, addedBy, time.Now().UTC())
	return err
}

func (s *MySql) RemoveRequiredTarget(target string) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE target = ?", s.table("required_membership"))
	_, err := s.db.Exec(query, strings.TrimSpace(target))
	return err
}

// --- Pending verifications ---

func (s *MySql) UpsertPending(chatId, userId int64, ttl time.Duration) error {
	deadline := time.Now().UTC().Add(ttl)
	query := fmt.Sprintf(
		`INSERT INTO %s (chat_id, user_id, deadline, verified)
                   VALUES (?, ?, ?, 0)
                   ON DUPLICATE KEY UPDATE
                     deadline = VALUES(deadline),
                     verified = 0`,
		s.table("pending_verifications"),
	)
	_, err := s.db.Exec(query, chatId, userId, deadline)
	return err
}

// MarkVerified flips all live pending rows of the user and returns the
// affected chat ids so restrictions can be lifted everywhere at once.
func (s *MySql) MarkVerified(userId int64) ([]int64, error) {
	query := fmt.Sprintf(
		`SELECT chat_id FROM %s
                   WHERE user_id = ? AND verified = 0 AND deadline >= ?`,
		s.table("pending_verifications"),
	)
	now := time.Now().UTC()
	rows, err := s.db.Query(query, userId, now)
	if err != nil {
		return nil, fmt.Errorf("select pending: %w", err)
	}
	var chatIds []int64
	for rows.Next() {
		var id int64
		if err = rows.Scan(&id); err != nil {
			rows.Close()
			return nil, err
		}
		chatIds = append(chatIds, id)
	}
	rows.Close()
	if err = rows.Err(); err != nil {
		return nil, err
	}
	if len(chatIds) == 0 {
		return nil, nil
	}

	query = fmt.Sprintf(
		`UPDATE %s SET verified = 1
                   WHERE user_id = ? AND verified = 0 AND deadline >= ?`,
		s.table("pending_verifications"),
	)
	if _, err = s.db.Exec(query, userId, now); err != nil {
		return nil, fmt.Errorf("mark verified: %w", err)
	}
	return chatIds, nil
}

// PendingChats lists chats where the user still has an unverified pending row.
func (s *MySql) PendingChats(userId int64) ([]int64, error) {
	query := fmt.Sprintf(
		`SELECT chat_id FROM %s WHERE user_id = ? AND verified = 0`,
		s.table("pending_verifications"),
	)
	rows, err := s.db.Query(query, userId)
	if err != nil {
		return nil, fmt.Errorf("select pending chats: %w", err)
	}
	defer rows.Close()

	var chatIds []int64
	for rows.Next() {
		var id int64
		if err = rows.Scan(&id); err != nil {
			return nil, err
		}
		chatIds = append(chatIds, id)
	}
	return chatIds, rows.Err()
}

// ExpiredUnverified lists members who missed their deadline, capped at limit.
func (s *MySql) ExpiredUnverified(limit int) ([]*entity.PendingVerification, error) {
	query := fmt.Sprintf(
		`SELECT chat_id, user_id, deadline, verified FROM %s
                   WHERE verified = 0 AND deadline < ? LIMIT ?`,
		s.table("pending_verifications"),
	)
	rows, err := s.db.Query(query, time.Now().UTC(), limit)
	if err != nil {
		return nil, fmt.Errorf("select expired pending: %w", err)
	}
	defer rows.Close()

	var pending []*entity.PendingVerification
	for rows.Next() {
		var p entity.PendingVerification
		if err = rows.Scan(&p.ChatId, &p.UserId, &p.Deadline, &p.Verified); err != nil {
			return nil, err
		}
		pending = append(pending, &p)
	}
	return pending, rows.Err()
}

func (s *MySql) DeletePending(chatId, userId int64) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE chat_id = ? AND user_id = ?", s.table("pending_verifications"))
	_, err := s.db.Exec(query, chatId, userId)
	return err
}
