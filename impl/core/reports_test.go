package core

import (
	"testing"

	"groupsight/entity"

	"github.com/google/go-cmp/cmp"
)

func TestRenderDailyCSV(t *testing.T) {
	t.Parallel()

	stats := []entity.DailyStat{
		{Day: "2025-03-10", Joins: 5, Leaves: 2},
		{Day: "2025-03-09"},
	}
	got, err := RenderDailyCSV(stats)
	if err != nil {
		t.Fatalf("RenderDailyCSV: %v", err)
	}
	want := "day,joins,leaves,net\n2025-03-10,5,2,3\n2025-03-09,0,0,0\n"
	if diff := cmp.Diff(want, string(got)); diff != "" {
		t.Errorf("csv mismatch (-want +got):\n%s", diff)
	}
}

func TestRenderDailyCSVEmpty(t *testing.T) {
	t.Parallel()

	got, err := RenderDailyCSV(nil)
	if err != nil {
		t.Fatalf("RenderDailyCSV: %v", err)
	}
	if string(got) != "day,joins,leaves,net\n" {
		t.Errorf("expected header only, got %q", got)
	}
}
