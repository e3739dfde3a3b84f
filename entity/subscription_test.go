package entity

import (
	"testing"
	"time"
)

func TestSubscriptionActive(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	var nilSub *Subscription
	if nilSub.Active(now) {
		t.Error("nil subscription must not be active")
	}
	expired := &Subscription{ExpiresAt: now.Add(-time.Hour)}
	if expired.Active(now) {
		t.Error("expired subscription must not be active")
	}
	live := &Subscription{ExpiresAt: now.Add(time.Hour)}
	if !live.Active(now) {
		t.Error("future expiry must be active")
	}
}

func TestExtendedExpiry(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	cases := map[string]struct {
		sub  *Subscription
		days int
		want time.Time
	}{
		"no subscription counts from now": {
			sub:  nil,
			days: 30,
			want: now.AddDate(0, 0, 30),
		},
		"expired counts from now": {
			sub:  &Subscription{ExpiresAt: now.AddDate(0, 0, -10)},
			days: 7,
			want: now.AddDate(0, 0, 7),
		},
		"active stacks on current expiry": {
			sub:  &Subscription{ExpiresAt: now.AddDate(0, 0, 5)},
			days: 30,
			want: now.AddDate(0, 0, 35),
		},
	}

	for name, tc := range cases {
		tc := tc
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			got := tc.sub.ExtendedExpiry(now, tc.days)
			if !got.Equal(tc.want) {
				t.Errorf("ExtendedExpiry = %s, want %s", got, tc.want)
			}
		})
	}
}
