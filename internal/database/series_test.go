package database

import (
	"testing"
	"time"

	"groupsight/entity"

	"github.com/google/go-cmp/cmp"
)

func TestFillDays(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 10, 15, 30, 0, 0, time.UTC)
	counted := map[string]entity.DailyStat{
		"2025-03-10": {Day: "2025-03-10", Joins: 4, Leaves: 1},
		"2025-03-08": {Day: "2025-03-08", Joins: 2, Leaves: 2},
	}

	want := []entity.DailyStat{
		{Day: "2025-03-10", Joins: 4, Leaves: 1},
		{Day: "2025-03-09"},
		{Day: "2025-03-08", Joins: 2, Leaves: 2},
		{Day: "2025-03-07"},
	}
	got := FillDays(counted, now, 4)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("FillDays mismatch (-want +got):\n%s", diff)
	}
}

func TestFillActivityDays(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 10, 15, 30, 0, 0, time.UTC)
	messages := map[string]int{
		"2025-03-10": 12,
		"2025-03-08": 3,
	}
	active := map[string]int{
		"2025-03-10": 5,
	}

	want := []entity.ActivityStat{
		{Day: "2025-03-10", Messages: 12, ActiveUsers: 5},
		{Day: "2025-03-09"},
		{Day: "2025-03-08", Messages: 3},
	}
	got := FillActivityDays(messages, active, now, 3)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("FillActivityDays mismatch (-want +got):\n%s", diff)
	}

	if got := FillActivityDays(nil, nil, now, 0); got != nil {
		t.Errorf("expected nil for zero window, got %v", got)
	}
}

func TestFillDaysEmpty(t *testing.T) {
	t.Parallel()

	if got := FillDays(nil, time.Now(), 0); got != nil {
		t.Errorf("expected nil for zero window, got %v", got)
	}

	got := FillDays(nil, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), 2)
	want := []entity.DailyStat{{Day: "2025-01-01"}, {Day: "2024-12-31"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("FillDays mismatch (-want +got):\n%s", diff)
	}
}
