package entity

import "time"

// Subscription keeps a single row per user; payments extend ExpiresAt from
// whichever is later, the current expiry or now.
type Subscription struct {
	TgId      int64     `json:"tg_id" bson:"tg_id"`
	Plan      string    `json:"plan" bson:"plan"`
	StartedAt time.Time `json:"started_at" bson:"started_at"`
	ExpiresAt time.Time `json:"expires_at" bson:"expires_at"`
}

func (s *Subscription) Active(now time.Time) bool {
	return s != nil && s.ExpiresAt.After(now)
}

// ExtendedExpiry computes the expiry after buying duration more days.
func (s *Subscription) ExtendedExpiry(now time.Time, days int) time.Time {
	base := now
	if s != nil && s.ExpiresAt.After(now) {
		base = s.ExpiresAt
	}
	return base.AddDate(0, 0, days)
}

// SubscriptionStatus is the label shown to users and the mini-app.
type SubscriptionStatus string

const (
	StatusFree SubscriptionStatus = "Free"
	StatusPro  SubscriptionStatus = "Pro"
)
