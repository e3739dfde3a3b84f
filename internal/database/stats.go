package database

import (
	"fmt"
	"time"

	"groupsight/entity"
)

func (s *MySql) IncJoin(chatId int64, day time.Time) error {
	stmt, err := s.stmtIncJoin()
	if err != nil {
		return err
	}
	_, err = stmt.Exec(chatId, day.UTC().Format("2006-01-02"))
	return err
}

func (s *MySql) IncLeave(chatId int64, day time.Time) error {
	stmt, err := s.stmtIncLeave()
	if err != nil {
		return err
	}
	_, err = stmt.Exec(chatId, day.UTC().Format("2006-01-02"))
	return err
}

func (s *MySql) RecordEvent(event *entity.MemberEvent) error {
	stmt, err := s.stmtRecordEvent()
	if err != nil {
		return err
	}
	_, err = stmt.Exec(event.ChatId, event.TgId, event.HappenedAt.UTC(), event.Kind, event.InviteLink)
	return err
}

func (s *MySql) UpsertChatUserIndex(chatId, tgId int64, isMember bool, ts time.Time) error {
	stmt, err := s.stmtUpsertChatUserIndex()
	if err != nil {
		return err
	}
	_, err = stmt.Exec(chatId, tgId, ts.UTC(), ts.UTC(), isMember)
	return err
}

// IncMessage counts one group message: the daily message counter and the
// per-day active-user set.
func (s *MySql) IncMessage(chatId, tgId int64, day time.Time) error {
	d := day.UTC().Format("2006-01-02")
	stmt, err := s.stmtIncMessage()
	if err != nil {
		return err
	}
	if _, err = stmt.Exec(chatId, d); err != nil {
		return err
	}
	stmt, err = s.stmtMarkActive()
	if err != nil {
		return err
	}
	_, err = stmt.Exec(chatId, d, tgId)
	return err
}

// ActivityLastDays returns messages and distinct active users per day for the
// trailing window, newest first, with missing days filled with zeros.
func (s *MySql) ActivityLastDays(chatId int64, days int) ([]entity.ActivityStat, error) {
	msgQuery := fmt.Sprintf(
		`SELECT DATE_FORMAT(day, '%%Y-%%m-%%d'), messages
                   FROM %s
                   WHERE chat_id = ? AND day >= DATE_SUB(CURDATE(), INTERVAL ? DAY)`,
		s.table("messages_daily"),
	)
	messages, err := s.countsByDay(msgQuery, chatId, days-1)
	if err != nil {
		return nil, fmt.Errorf("select message counts: %w", err)
	}

	dauQuery := fmt.Sprintf(
		`SELECT DATE_FORMAT(day, '%%Y-%%m-%%d'), COUNT(*)
                   FROM %s
                   WHERE chat_id = ? AND day >= DATE_SUB(CURDATE(), INTERVAL ? DAY)
                   GROUP BY 1`,
		s.table("active_users_daily"),
	)
	active, err := s.countsByDay(dauQuery, chatId, days-1)
	if err != nil {
		return nil, fmt.Errorf("select active users: %w", err)
	}

	return FillActivityDays(messages, active, time.Now().UTC(), days), nil
}

func (s *MySql) countsByDay(query string, chatId int64, span int) (map[string]int, error) {
	rows, err := s.db.Query(query, chatId, span)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var day string
		var count int
		if err = rows.Scan(&day, &count); err != nil {
			return nil, err
		}
		counts[day] = count
	}
	return counts, rows.Err()
}

func (s *MySql) UpsertChannelCount(chatId int64, day time.Time, count int) error {
	query := fmt.Sprintf(
		`INSERT INTO %s (chat_id, day, member_count)
                   VALUES (?, ?, ?)
                   ON DUPLICATE KEY UPDATE member_count = VALUES(member_count)`,
		s.table("channel_member_counts"),
	)
	_, err := s.db.Exec(query, chatId, day.UTC().Format("2006-01-02"), count)
	return err
}

// LastDays returns joins/leaves for the trailing window, newest first,
// with missing days filled with zeros.
func (s *MySql) LastDays(chatId int64, days int) ([]entity.DailyStat, error) {
	query := fmt.Sprintf(
		`SELECT DATE_FORMAT(day, '%%Y-%%m-%%d'), joins, leaves
                   FROM %s
                   WHERE chat_id = ? AND day >= DATE_SUB(CURDATE(), INTERVAL ? DAY)`,
		s.table("chat_members_daily"),
	)
	rows, err := s.db.Query(query, chatId, days-1)
	if err != nil {
		return nil, fmt.Errorf("select daily stats: %w", err)
	}
	defer rows.Close()

	counted := make(map[string]entity.DailyStat, days)
	for rows.Next() {
		var stat entity.DailyStat
		if err = rows.Scan(&stat.Day, &stat.Joins, &stat.Leaves); err != nil {
			return nil, err
		}
		counted[stat.Day] = stat
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}

	return FillDays(counted, time.Now().UTC(), days), nil
}

// WeeklyStats aggregates joins/leaves by ISO week, newest first.
func (s *MySql) WeeklyStats(chatId int64, weeks int) ([]entity.PeriodStat, error) {
	query := fmt.Sprintf(
		`SELECT DATE_FORMAT(day, '%%x-%%v'), SUM(joins), SUM(leaves)
                   FROM %s
                   WHERE chat_id = ? AND day >= DATE_SUB(CURDATE(), INTERVAL ? WEEK)
                   GROUP BY 1 ORDER BY 1 DESC`,
		s.table("chat_members_daily"),
	)
	return s.periodStats(query, chatId, weeks)
}

// MonthlyStats aggregates joins/leaves by calendar month, newest first.
func (s *MySql) MonthlyStats(chatId int64, months int) ([]entity.PeriodStat, error) {
	query := fmt.Sprintf(
		`SELECT DATE_FORMAT(day, '%%Y-%%m'), SUM(joins), SUM(leaves)
                   FROM %s
                   WHERE chat_id = ? AND day >= DATE_SUB(DATE_FORMAT(CURDATE(), '%%Y-%%m-01'), INTERVAL ? MONTH)
                   GROUP BY 1 ORDER BY 1 DESC`,
		s.table("chat_members_daily"),
	)
	return s.periodStats(query, chatId, months-1)
}

func (s *MySql) periodStats(query string, chatId int64, span int) ([]entity.PeriodStat, error) {
	rows, err := s.db.Query(query, chatId, span)
	if err != nil {
		return nil, fmt.Errorf("select period stats: %w", err)
	}
	defer rows.Close()

	var stats []entity.PeriodStat
	for rows.Next() {
		var stat entity.PeriodStat
		if err = rows.Scan(&stat.Period, &stat.Joins, &stat.Leaves); err != nil {
			return nil, err
		}
		stat.Net = stat.Joins - stat.Leaves
		stats = append(stats, stat)
	}
	return stats, rows.Err()
}
