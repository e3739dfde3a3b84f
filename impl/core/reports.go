package core

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"

	"groupsight/entity"
)

// Dashboard is the payload behind the mini-app main screen.
type Dashboard struct {
	Status       entity.SubscriptionStatus `json:"status"`
	ExpiresAt    string                    `json:"expires_at,omitempty"`
	Chats        []*entity.Chat            `json:"chats"`
	Series       []entity.DailyStat        `json:"series"`
	TopCampaigns []entity.CampaignStat     `json:"top_campaigns"`
}

// UserDashboard assembles the tenant overview for a mini-app user: linked
// chats, the 30-day join/leave series of the newest chat and its top
// campaigns.
func (c *Core) UserDashboard(tgId int64) (*Dashboard, error) {
	status, sub, err := c.SubscriptionStatus(tgId)
	if err != nil {
		return nil, err
	}
	dashboard := &Dashboard{Status: status}
	if sub != nil && !sub.ExpiresAt.IsZero() {
		dashboard.ExpiresAt = sub.ExpiresAt.Format("2006-01-02")
	}

	tenantId, err := c.db.UserTenant(tgId)
	if err != nil {
		return nil, err
	}
	if tenantId == "" {
		return dashboard, nil
	}

	chats, err := c.db.TenantChats(tenantId)
	if err != nil {
		return nil, err
	}
	dashboard.Chats = chats
	if len(chats) == 0 {
		return dashboard, nil
	}

	primary := chats[0].TgChatId
	if dashboard.Series, err = c.db.LastDays(primary, 30); err != nil {
		return nil, err
	}
	if dashboard.TopCampaigns, err = c.db.TopCampaigns(primary, 5); err != nil {
		return nil, err
	}
	return dashboard, nil
}

func (c *Core) DailyStats(chatId int64, days int) ([]entity.DailyStat, error) {
	if days <= 0 || days > 365 {
		days = 30
	}
	return c.db.LastDays(chatId, days)
}

func (c *Core) WeeklyStats(chatId int64, weeks int) ([]entity.PeriodStat, error) {
	if weeks <= 0 || weeks > 52 {
		weeks = 12
	}
	return c.db.WeeklyStats(chatId, weeks)
}

func (c *Core) MonthlyStats(chatId int64, months int) ([]entity.PeriodStat, error) {
	if months <= 0 || months > 24 {
		months = 12
	}
	return c.db.MonthlyStats(chatId, months)
}

func (c *Core) ActivitySeries(chatId int64, days int) ([]entity.ActivityStat, error) {
	if days <= 0 || days > 365 {
		days = 30
	}
	return c.db.ActivityLastDays(chatId, days)
}

func (c *Core) TopCampaigns(chatId int64, limit int) ([]entity.CampaignStat, error) {
	if limit <= 0 || limit > 30 {
		limit = 5
	}
	return c.db.TopCampaigns(chatId, limit)
}

// DailyReportCSV renders the daily join/leave series as a CSV export.
func (c *Core) DailyReportCSV(chatId int64, days int) ([]byte, error) {
	stats, err := c.DailyStats(chatId, days)
	if err != nil {
		return nil, err
	}
	return RenderDailyCSV(stats)
}

// RenderDailyCSV writes day,joins,leaves,net rows with a header line.
func RenderDailyCSV(stats []entity.DailyStat) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write([]string{"day", "joins", "leaves", "net"}); err != nil {
		return nil, err
	}
	for _, stat := range stats {
		record := []string{
			stat.Day,
			strconv.Itoa(stat.Joins),
			strconv.Itoa(stat.Leaves),
			strconv.Itoa(stat.Net()),
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("render csv: %w", err)
	}
	return buf.Bytes(), nil
}
