package database

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"groupsight/entity"

	"github.com/google/uuid"
)

// EnsurePersonalTenant returns the tenant owned by the given user, creating
// one when missing.
func (s *MySql) EnsurePersonalTenant(ownerTgId int64, name string) (string, error) {
	var id string
	query := fmt.Sprintf("SELECT id FROM %s WHERE owner_tg_id = ?", s.table("tenants"))
	err := s.db.QueryRow(query, ownerTgId).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("select tenant: %w", err)
	}

	if name == "" {
		name = fmt.Sprintf("Tenant %d", ownerTgId)
	}
	id = uuid.NewString()
	query = fmt.Sprintf(
		"INSERT INTO %s (id, owner_tg_id, name, created_at) VALUES (?, ?, ?, ?)",
		s.table("tenants"),
	)
	if _, err = s.db.Exec(query, id, ownerTgId, name, time.Now().UTC()); err != nil {
		return "", fmt.Errorf("insert tenant: %w", err)
	}
	return id, nil
}

func (s *MySql) LinkUserTenant(tgId int64, tenantId string) error {
	query := fmt.Sprintf(
		`INSERT INTO %s (tg_id, tenant_id) VALUES (?, ?)
                   ON DUPLICATE KEY UPDATE tenant_id = VALUES(tenant_id)`,
		s.table("user_tenants"),
	)
	_, err := s.db.Exec(query, tgId, tenantId)
	return err
}

// UserTenant returns the tenant id linked to the user, or empty string.
func (s *MySql) UserTenant(tgId int64) (string, error) {
	var id string
	query := fmt.Sprintf("SELECT tenant_id FROM %s WHERE tg_id = ?", s.table("user_tenants"))
	err := s.db.QueryRow(query, tgId).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("select user tenant: %w", err)
	}
	return id, nil
}

func (s *MySql) Tenant(tenantId string) (*entity.Tenant, error) {
	var tenant entity.Tenant
	query := fmt.Sprintf(
		"SELECT id, owner_tg_id, name, created_at FROM %s WHERE id = ?",
		s.table("tenants"),
	)
	err := s.db.QueryRow(query, tenantId).Scan(
		&tenant.Id, &tenant.OwnerTgId, &tenant.Name, &tenant.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select tenant: %w", err)
	}
	return &tenant, nil
}

// TenantsPage lists tenants with chat counts and the latest plan across any
// linked user, newest first. An empty search matches everything.
func (s *MySql) TenantsPage(search string, limit, offset int) ([]*entity.TenantSummary, error) {
	query := fmt.Sprintf(
		`SELECT t.id, t.name, t.owner_tg_id, DATE_FORMAT(t.created_at, '%%Y-%%m-%%d'),
                   COALESCE(cc.chat_count, 0),
                   LOWER(COALESCE(
                     (SELECT sub.plan FROM %s ut
                        JOIN %s sub ON sub.tg_id = ut.tg_id
                        WHERE ut.tenant_id = t.id
                        ORDER BY sub.started_at DESC LIMIT 1),
                     'inactive'))
                   FROM %s t
                   LEFT JOIN (
                     SELECT tenant_id, COUNT(*) AS chat_count FROM %s GROUP BY tenant_id
                   ) cc ON cc.tenant_id = t.id
                   WHERE (? = ''
                     OR t.name LIKE CONCAT('%%', ?, '%%')
                     OR CAST(t.owner_tg_id AS CHAR) LIKE CONCAT('%%', ?, '%%')
                     OR t.id LIKE CONCAT('%%', ?, '%%'))
                   ORDER BY t.created_at DESC
                   LIMIT ? OFFSET ?`,
		s.table("user_tenants"), s.table("subscriptions"),
		s.table("tenants"), s.table("chats"),
	)
	rows, err := s.db.Query(query, search, search, search, search, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("select tenants: %w", err)
	}
	defer rows.Close()

	var tenants []*entity.TenantSummary
	for rows.Next() {
		var t entity.TenantSummary
		if err = rows.Scan(&t.Id, &t.Name, &t.OwnerTgId, &t.CreatedAt, &t.ChatCount, &t.Plan); err != nil {
			return nil, err
		}
		tenants = append(tenants, &t)
	}
	return tenants, rows.Err()
}

func (s *MySql) CountTenants() (int, error) {
	var count int
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s", s.table("tenants"))
	err := s.db.QueryRow(query).Scan(&count)
	return count, err
}
