package entity

import (
	"testing"
	"time"
)

func TestShouldBan(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	cases := map[string]struct {
		pending *PendingVerification
		want    bool
	}{
		"nil":              {nil, false},
		"verified":         {&PendingVerification{Deadline: now.Add(-time.Minute), Verified: true}, false},
		"still in window":  {&PendingVerification{Deadline: now.Add(time.Minute)}, false},
		"missed deadline":  {&PendingVerification{Deadline: now.Add(-time.Second)}, true},
		"exactly deadline": {&PendingVerification{Deadline: now}, false},
	}

	for name, tc := range cases {
		tc := tc
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			if got := tc.pending.ShouldBan(now); got != tc.want {
				t.Errorf("ShouldBan = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestButtonUrl(t *testing.T) {
	t.Parallel()

	cases := map[string]struct {
		target GateTarget
		want   string
	}{
		"username":      {GateTarget{Target: "@news_channel"}, "https://t.me/news_channel"},
		"explicit url":  {GateTarget{Target: "@news", JoinUrl: "https://t.me/+abc"}, "https://t.me/+abc"},
		"invite target": {GateTarget{Target: "https://t.me/+xyz"}, "https://t.me/+xyz"},
	}

	for name, tc := range cases {
		tc := tc
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			if got := tc.target.ButtonUrl(); got != tc.want {
				t.Errorf("ButtonUrl = %q, want %q", got, tc.want)
			}
		})
	}
}
