package database

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"groupsight/entity"

	"github.com/google/uuid"
)

const planColumns = "code, title, description, price_stars, duration_days, is_active"

func (s *MySql) scanPlans(rows *sql.Rows) ([]*entity.Plan, error) {
	defer rows.Close()
	var plans []*entity.Plan
	for rows.Next() {
		var plan entity.Plan
		if err := rows.Scan(
			&plan.Code, &plan.Title, &plan.Description,
			&plan.PriceStars, &plan.DurationDays, &plan.Active,
		); err != nil {
			return nil, err
		}
		plans = append(plans, &plan)
	}
	return plans, rows.Err()
}

// ActivePlans returns active plans, cheapest first.
func (s *MySql) ActivePlans() ([]*entity.Plan, error) {
	query := fmt.Sprintf(
		`SELECT %s FROM %s WHERE is_active = 1
                   ORDER BY price_stars ASC, duration_days ASC, code ASC`,
		planColumns, s.table("plans"),
	)
	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("select active plans: %w", err)
	}
	return s.scanPlans(rows)
}

func (s *MySql) AllPlans() ([]*entity.Plan, error) {
	query := fmt.Sprintf(
		`SELECT %s FROM %s
                   ORDER BY is_active DESC, price_stars ASC, duration_days ASC, code ASC`,
		planColumns, s.table("plans"),
	)
	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("select plans: %w", err)
	}
	return s.scanPlans(rows)
}

func (s *MySql) PlanByCode(code string) (*entity.Plan, error) {
	var plan entity.Plan
	query := fmt.Sprintf("SELECT %s FROM %s WHERE code = ?", planColumns, s.table("plans"))
	err := s.db.QueryRow(query, code).Scan(
		&plan.Code, &plan.Title, &plan.Description,
		&plan.PriceStars, &plan.DurationDays, &plan.Active,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select plan: %w", err)
	}
	return &plan, nil
}

// SetPlanPrice updates a plan price; negative values are clamped to zero.
func (s *MySql) SetPlanPrice(code string, priceStars int64) error {
	if priceStars < 0 {
		priceStars = 0
	}
	query := fmt.Sprintf(
		"UPDATE %s SET price_stars = ?, updated_at = ? WHERE code = ?",
		s.table("plans"),
	)
	result, err := s.db.Exec(query, priceStars, time.Now().UTC(), code)
	if err != nil {
		return err
	}
	affected, _ := result.RowsAffected()
	if affected == 0 {
		return fmt.Errorf("plan not found: %s", code)
	}
	return nil
}

func (s *MySql) TogglePlan(code string) error {
	query := fmt.Sprintf(
		"UPDATE %s SET is_active = NOT is_active, updated_at = ? WHERE code = ?",
		s.table("plans"),
	)
	result, err := s.db.Exec(query, time.Now().UTC(), code)
	if err != nil {
		return err
	}
	affected, _ := result.RowsAffected()
	if affected == 0 {
		return fmt.Errorf("plan not found: %s", code)
	}
	return nil
}

func (s *MySql) UpsertPlan(plan *entity.Plan) error {
	query := fmt.Sprintf(
		`INSERT INTO %s (code, title, description, price_stars, duration_days, is_active, updated_at)
                   VALUES (?, ?, ?, ?, ?, ?, ?)
                   ON DUPLICATE KEY UPDATE
                     title         = VALUES(title),
                     description   = VALUES(description),
                     price_stars   = VALUES(price_stars),
                     duration_days = VALUES(duration_days),
                     is_active     = VALUES(is_active),
                     updated_at    = VALUES(updated_at)`,
		s.table("plans"),
	)
	_, err := s.db.Exec(query,
		plan.Code, plan.Title, plan.Description,
		plan.PriceStars, plan.DurationDays, plan.Active, time.Now().UTC(),
	)
	return err
}

// --- Subscriptions ---

func (s *MySql) Subscription(tgId int64) (*entity.Subscription, error) {
	var sub entity.Subscription
	query := fmt.Sprintf(
		"SELECT tg_id, plan, started_at, expires_at FROM %s WHERE tg_id = ?",
		s.table("subscriptions"),
	)
	err := s.db.QueryRow(query, tgId).Scan(&sub.TgId, &sub.Plan, &sub.StartedAt, &sub.ExpiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select subscription: %w", err)
	}
	return &sub, nil
}

// ExtendSubscription starts or extends the user's subscription: the new
// expiry counts from the current expiry when still active, otherwise from
// now. Returns the stored row.
func (s *MySql) ExtendSubscription(tgId int64, planCode string, days int) (*entity.Subscription, error) {
	now := time.Now().UTC()
	current, err := s.Subscription(tgId)
	if err != nil {
		return nil, err
	}
	expires := current.ExtendedExpiry(now, days)

	query := fmt.Sprintf(
		`INSERT INTO %s (tg_id, plan, started_at, expires_at)
                   VALUES (?, ?, ?, ?)
                   ON DUPLICATE KEY UPDATE
                     plan       = VALUES(plan),
                     started_at = VALUES(started_at),
                     expires_at = VALUES(expires_at)`,
		s.table("subscriptions"),
	)
	if _, err = s.db.Exec(query, tgId, planCode, now, expires); err != nil {
		return nil, fmt.Errorf("upsert subscription: %w", err)
	}
	return &entity.Subscription{TgId: tgId, Plan: planCode, StartedAt: now, ExpiresAt: expires}, nil
}

// ExpiringSubscriptions lists still-active subscriptions that run out within
// the given window, for renewal reminders.
func (s *MySql) ExpiringSubscriptions(within time.Duration) ([]*entity.Subscription, error) {
	now := time.Now().UTC()
	query := fmt.Sprintf(
		`SELECT tg_id, plan, started_at, expires_at FROM %s
                   WHERE expires_at > ? AND expires_at <= ?`,
		s.table("subscriptions"),
	)
	rows, err := s.db.Query(query, now, now.Add(within))
	if err != nil {
		return nil, fmt.Errorf("select expiring subscriptions: %w", err)
	}
	defer rows.Close()

	var subs []*entity.Subscription
	for rows.Next() {
		var sub entity.Subscription
		if err = rows.Scan(&sub.TgId, &sub.Plan, &sub.StartedAt, &sub.ExpiresAt); err != nil {
			return nil, err
		}
		subs = append(subs, &sub)
	}
	return subs, rows.Err()
}

// SavePayment writes the audit row for a completed payment.
func (s *MySql) SavePayment(payment *entity.Payment) error {
	if payment.Id == "" {
		payment.Id = uuid.NewString()
	}
	if payment.CreatedAt.IsZero() {
		payment.CreatedAt = time.Now().UTC()
	}
	payload, err := json.Marshal(payment.ProviderPayload)
	if err != nil {
		payload = []byte("{}")
	}
	query := fmt.Sprintf(
		`INSERT INTO %s (id, tenant_id, tg_user_id, amount, currency, method, provider_payload, status, created_at)
                   VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.table("payments"),
	)
	_, err = s.db.Exec(query,
		payment.Id, payment.TenantId, payment.TgUserId, payment.Amount,
		payment.Currency, payment.Method, string(payload), payment.Status, payment.CreatedAt,
	)
	return err
}
