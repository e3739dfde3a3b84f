package database

import (
	"time"

	"groupsight/entity"
)

// FillDays expands a sparse day→stat map into a dense window of the trailing
// `days` calendar days ending at `now`, newest first. Days without a row
// come back zero-valued. MySQL has no generate_series, so the zero fill
// happens here.
func FillDays(counted map[string]entity.DailyStat, now time.Time, days int) []entity.DailyStat {
	if days <= 0 {
		return nil
	}
	out := make([]entity.DailyStat, 0, days)
	for i := 0; i < days; i++ {
		day := now.AddDate(0, 0, -i).Format("2006-01-02")
		stat, ok := counted[day]
		if !ok {
			stat = entity.DailyStat{Day: day}
		}
		stat.Day = day
		out = append(out, stat)
	}
	return out
}

// FillActivityDays merges per-day message and active-user counts into a dense
// trailing window ending at `now`, newest first.
func FillActivityDays(messages, active map[string]int, now time.Time, days int) []entity.ActivityStat {
	if days <= 0 {
		return nil
	}
	out := make([]entity.ActivityStat, 0, days)
	for i := 0; i < days; i++ {
		day := now.AddDate(0, 0, -i).Format("2006-01-02")
		out = append(out, entity.ActivityStat{
			Day:         day,
			Messages:    messages[day],
			ActiveUsers: active[day],
		})
	}
	return out
}
