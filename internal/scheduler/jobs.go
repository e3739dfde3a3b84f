package scheduler

import (
	"context"
	"fmt"
	"time"

	"groupsight/entity"
	"groupsight/impl/core"
)

// Sweeper bans gate members who missed their verification deadline.
// Implemented by bot.TgBot.
type Sweeper interface {
	SweepExpired()
}

// GateSweepJob runs the verification deadline sweep once a minute.
type GateSweepJob struct {
	Bot          Sweeper
	ScheduleExpr string // empty = default "* * * * *"
}

var _ Job = (*GateSweepJob)(nil)

func (j *GateSweepJob) Name() string { return "gate_sweep" }

func (j *GateSweepJob) Schedule() string {
	if j.ScheduleExpr != "" {
		return j.ScheduleExpr
	}
	return "* * * * *"
}

func (j *GateSweepJob) Run(ctx context.Context) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	j.Bot.SweepExpired()
	return nil
}

// Snapshotter stores member counts for linked channels.
// Implemented by impl/core.Core.
type Snapshotter interface {
	SnapshotChannels(count core.MemberCounter)
}

// ChannelSnapshotJob samples channel member counts, since join/leave events
// alone undercount channel audiences.
type ChannelSnapshotJob struct {
	Core         Snapshotter
	Counter      core.MemberCounter
	EveryMinutes int // 0 = default 30
}

var _ Job = (*ChannelSnapshotJob)(nil)

func (j *ChannelSnapshotJob) Name() string { return "channel_snapshot" }

func (j *ChannelSnapshotJob) Schedule() string {
	every := j.EveryMinutes
	if every <= 0 {
		every = 30
	}
	return fmt.Sprintf("*/%d * * * *", every)
}

func (j *ChannelSnapshotJob) Run(ctx context.Context) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	j.Core.SnapshotChannels(j.Counter)
	return nil
}

// SubscriptionSource lists subscriptions about to run out.
// Implemented by impl/core.Core.
type SubscriptionSource interface {
	ExpiringSubscriptions(within time.Duration) ([]*entity.Subscription, error)
}

// Sender delivers a DM to a user. Implemented by bot.TgBot.
type Sender interface {
	SendTo(userId int64, text string)
}

// ExpiryNoticeJob reminds users whose Pro access runs out within three days.
// Runs each morning; a user gets at most one notice per day.
type ExpiryNoticeJob struct {
	Subs         SubscriptionSource
	Bot          Sender
	Within       time.Duration // 0 = default 72h
	ScheduleExpr string        // empty = default "0 9 * * *"
}

var _ Job = (*ExpiryNoticeJob)(nil)

func (j *ExpiryNoticeJob) Name() string { return "expiry_notice" }

func (j *ExpiryNoticeJob) Schedule() string {
	if j.ScheduleExpr != "" {
		return j.ScheduleExpr
	}
	return "0 9 * * *"
}

func (j *ExpiryNoticeJob) Run(ctx context.Context) error {
	within := j.Within
	if within == 0 {
		within = 72 * time.Hour
	}
	subs, err := j.Subs.ExpiringSubscriptions(within)
	if err != nil {
		return fmt.Errorf("listing expiring subscriptions: %w", err)
	}
	for _, sub := range subs {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		j.Bot.SendTo(sub.TgId, fmt.Sprintf(
			"Your Pro access expires on %s. Renew with /plans to keep Force Join and advanced reports.",
			sub.ExpiresAt.Format("2006-01-02"),
		))
	}
	return nil
}
