package entity

import "time"

type EventKind string

const (
	EventJoin  EventKind = "join"
	EventLeave EventKind = "leave"
)

// MemberEvent is one join or leave in the per-chat event stream.
type MemberEvent struct {
	ChatId     int64     `json:"chat_id" bson:"chat_id"`
	TgId       int64     `json:"tg_id" bson:"tg_id"`
	HappenedAt time.Time `json:"happened_at" bson:"happened_at"`
	Kind       EventKind `json:"kind" bson:"kind"`
	InviteLink string    `json:"invite_link,omitempty" bson:"invite_link,omitempty"`
}

// DailyStat is the per-chat per-day join/leave counter row.
type DailyStat struct {
	Day    string `json:"day"`
	Joins  int    `json:"joins"`
	Leaves int    `json:"leaves"`
}

func (d DailyStat) Net() int {
	return d.Joins - d.Leaves
}

// PeriodStat is an aggregated joins/leaves row, keyed by ISO week or month.
type PeriodStat struct {
	Period string `json:"period"`
	Joins  int    `json:"joins"`
	Leaves int    `json:"leaves"`
	Net    int    `json:"net"`
}

// ActivityStat is the per-chat per-day message and active-user counter row.
type ActivityStat struct {
	Day         string `json:"day"`
	Messages    int    `json:"messages"`
	ActiveUsers int    `json:"active_users"`
}

// ChannelCount is a daily member-count snapshot for channels, where
// join/leave updates alone undercount the audience.
type ChannelCount struct {
	ChatId      int64  `json:"chat_id"`
	Day         string `json:"day"`
	MemberCount int    `json:"member_count"`
}
