package bot

import (
	"testing"
	"time"

	"groupsight/entity"
)

func TestExpiredToKick(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	pending := []*entity.PendingVerification{
		{ChatId: -100, UserId: 1, Deadline: now.Add(-time.Minute)},
		{ChatId: -100, UserId: 2, Deadline: now.Add(-time.Minute), Verified: true},
		{ChatId: -100, UserId: 3, Deadline: now.Add(time.Minute)},
		{ChatId: -200, UserId: 4, Deadline: now.Add(-time.Hour)},
	}

	got := expiredToKick(pending, now)
	if len(got) != 2 {
		t.Fatalf("kick list length = %d, want 2", len(got))
	}
	if got[0].UserId != 1 || got[1].UserId != 4 {
		t.Errorf("kick list = [%d %d], want [1 4]", got[0].UserId, got[1].UserId)
	}
}

func TestExpiredToKickEmpty(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC()
	if got := expiredToKick(nil, now); got != nil {
		t.Errorf("expected nil for empty input, got %v", got)
	}
}
