package database

import (
	"fmt"

	"groupsight/entity"
)

// audienceWhere selects current members of the owner's tenant chats who were
// active within the filter window, with an optional phone filter.
const audienceWhere = `
  FROM %s cui
  JOIN %s c  ON c.tg_chat_id = cui.chat_id
  JOIN %s ut ON ut.tenant_id = c.tenant_id AND ut.tg_id = ?
  LEFT JOIN %s u ON u.tg_id = cui.tg_id
  WHERE cui.is_member = 1
    AND cui.last_seen_at >= DATE_SUB(NOW(), INTERVAL ? DAY)
    AND (? = 'any'
      OR (? = 'yes' AND u.phone <> '')
      OR (? = 'no'  AND (u.phone IS NULL OR u.phone = '')))`

func (s *MySql) audienceTables() []interface{} {
	return []interface{}{
		s.table("chat_user_index"), s.table("chats"),
		s.table("user_tenants"), s.table("users"),
	}
}

func (s *MySql) CountAudience(filter *entity.AudienceFilter) (int, error) {
	query := fmt.Sprintf("SELECT COUNT(DISTINCT cui.tg_id)"+audienceWhere, s.audienceTables()...)
	var count int
	err := s.db.QueryRow(query,
		filter.OwnerTgId, filter.LastActiveDays,
		filter.Phone, filter.Phone, filter.Phone,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count audience: %w", err)
	}
	return count, nil
}

func (s *MySql) AudienceUserIds(filter *entity.AudienceFilter) ([]int64, error) {
	query := fmt.Sprintf("SELECT DISTINCT cui.tg_id"+audienceWhere+" LIMIT ?", s.audienceTables()...)
	rows, err := s.db.Query(query,
		filter.OwnerTgId, filter.LastActiveDays,
		filter.Phone, filter.Phone, filter.Phone, filter.Limit,
	)
	if err != nil {
		return nil, fmt.Errorf("select audience: %w", err)
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
