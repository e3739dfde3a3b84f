package scheduler

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"groupsight/entity"

	"github.com/google/go-cmp/cmp"
)

type noopJob struct {
	name string
}

func (j *noopJob) Name() string                  { return j.name }
func (j *noopJob) Schedule() string              { return "* * * * *" }
func (j *noopJob) Run(ctx context.Context) error { return nil }

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRegisterJobDuplicate(t *testing.T) {
	t.Parallel()

	s := New(testLogger())
	if err := s.RegisterJob(&noopJob{name: "sweep"}); err != nil {
		t.Fatalf("first registration: %v", err)
	}
	if err := s.RegisterJob(&noopJob{name: "sweep"}); err == nil {
		t.Error("expected duplicate name error")
	}
	if err := s.RegisterJob(&noopJob{name: "other"}); err != nil {
		t.Errorf("distinct name rejected: %v", err)
	}
}

func TestJobSchedules(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		job  Job
		want string
	}{
		"gate sweep default":   {&GateSweepJob{}, "* * * * *"},
		"gate sweep override":  {&GateSweepJob{ScheduleExpr: "*/5 * * * *"}, "*/5 * * * *"},
		"snapshot default":     {&ChannelSnapshotJob{}, "*/30 * * * *"},
		"snapshot every 10":    {&ChannelSnapshotJob{EveryMinutes: 10}, "*/10 * * * *"},
		"expiry default":       {&ExpiryNoticeJob{}, "0 9 * * *"},
		"expiry override":      {&ExpiryNoticeJob{ScheduleExpr: "30 8 * * *"}, "30 8 * * *"},
	}
	for name, tc := range tests {
		tc := tc
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			if got := tc.job.Schedule(); got != tc.want {
				t.Errorf("Schedule() = %q, want %q", got, tc.want)
			}
		})
	}
}

type fakeSubs struct {
	subs []*entity.Subscription
	err  error
}

func (f *fakeSubs) ExpiringSubscriptions(within time.Duration) ([]*entity.Subscription, error) {
	return f.subs, f.err
}

type recordingSender struct {
	sent []int64
}

func (r *recordingSender) SendTo(userId int64, text string) {
	r.sent = append(r.sent, userId)
}

func TestExpiryNoticeJob(t *testing.T) {
	t.Parallel()

	expires := time.Now().Add(48 * time.Hour)
	subs := &fakeSubs{subs: []*entity.Subscription{
		{TgId: 11, ExpiresAt: expires},
		{TgId: 22, ExpiresAt: expires},
	}}
	sender := &recordingSender{}
	job := &ExpiryNoticeJob{Subs: subs, Bot: sender}

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if diff := cmp.Diff([]int64{11, 22}, sender.sent); diff != "" {
		t.Errorf("notified users mismatch (-want +got):\n%s", diff)
	}
}

func TestExpiryNoticeJobSourceError(t *testing.T) {
	t.Parallel()

	job := &ExpiryNoticeJob{
		Subs: &fakeSubs{err: fmt.Errorf("db down")},
		Bot:  &recordingSender{},
	}
	if err := job.Run(context.Background()); err == nil {
		t.Error("expected error from subscription source")
	}
}

func TestExpiryNoticeJobCancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sender := &recordingSender{}
	job := &ExpiryNoticeJob{
		Subs: &fakeSubs{subs: []*entity.Subscription{{TgId: 11, ExpiresAt: time.Now()}}},
		Bot:  sender,
	}
	if err := job.Run(ctx); err == nil {
		t.Error("expected context error")
	}
	if len(sender.sent) != 0 {
		t.Errorf("cancelled run still sent %d notices", len(sender.sent))
	}
}
