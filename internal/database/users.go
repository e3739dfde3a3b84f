package database

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"groupsight/entity"
)

// UpsertUser stores a user row. NULLIF/COALESCE keeps previously stored
// values when the incoming field is empty, notably the phone number.
func (s *MySql) UpsertUser(user *entity.User) error {
	now := time.Now().UTC()
	query := fmt.Sprintf(
		`INSERT INTO %s
                   (tg_id, first_name, last_name, username, language_code, phone, region, is_premium, last_seen_at, created_at)
                   VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
                   ON DUPLICATE KEY UPDATE
                     first_name    = COALESCE(NULLIF(VALUES(first_name), ''), first_name),
                     last_name     = COALESCE(NULLIF(VALUES(last_name), ''), last_name),
                     username      = COALESCE(NULLIF(VALUES(username), ''), username),
                     language_code = COALESCE(NULLIF(VALUES(language_code), ''), language_code),
                     phone         = COALESCE(NULLIF(VALUES(phone), ''), phone),
                     region        = COALESCE(NULLIF(VALUES(region), ''), region),
                     is_premium    = VALUES(is_premium),
                     last_seen_at  = VALUES(last_seen_at)`,
		s.table("users"),
	)
	_, err := s.db.Exec(query,
		user.TgId, user.FirstName, user.LastName, user.Username,
		user.LanguageCode, user.Phone, user.Region, user.IsPremium, now, now,
	)
	return err
}

func (s *MySql) GetUser(tgId int64) (*entity.User, error) {
	var user entity.User
	query := fmt.Sprintf(
		`SELECT tg_id, first_name, last_name, username, language_code, phone, region, is_premium, last_seen_at, created_at
                   FROM %s WHERE tg_id = ?`,
		s.table("users"),
	)
	err := s.db.QueryRow(query, tgId).Scan(
		&user.TgId, &user.FirstName, &user.LastName, &user.Username,
		&user.LanguageCode, &user.Phone, &user.Region, &user.IsPremium,
		&user.LastSeenAt, &user.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select user: %w", err)
	}
	return &user, nil
}

// SetUserPhone stores a phone number shared through a contact message.
func (s *MySql) SetUserPhone(tgId int64, phone string) error {
	query := fmt.Sprintf("UPDATE %s SET phone = ? WHERE tg_id = ?", s.table("users"))
	_, err := s.db.Exec(query, phone, tgId)
	return err
}

// SetUserRegion stores an ISO alpha-2 country code.
func (s *MySql) SetUserRegion(tgId int64, region string) error {
	query := fmt.Sprintf("UPDATE %s SET region = ? WHERE tg_id = ?", s.table("users"))
	_, err := s.db.Exec(query, region, tgId)
	return err
}

func (s *MySql) TouchSeen(tgId int64) error {
	stmt, err := s.stmtTouchSeen()
	if err != nil {
		return err
	}
	_, err = stmt.Exec(time.Now().UTC(), tgId)
	return err
}

func (s *MySql) CountUsers() (int, error) {
	var count int
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s", s.table("users"))
	err := s.db.QueryRow(query).Scan(&count)
	return count, err
}

func (s *MySql) CountPremiumUsers() (int, error) {
	var count int
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE is_premium = 1", s.table("users"))
	err := s.db.QueryRow(query).Scan(&count)
	return count, err
}

func (s *MySql) AllUserIds() ([]int64, error) {
	query := fmt.Sprintf("SELECT tg_id FROM %s", s.table("users"))
	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("select user ids: %w", err)
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
