package bot

import (
	"fmt"
	"sync"
	"time"

	"groupsight/internal/metrics"
	"groupsight/lib/sl"

	tgbotapi "github.com/PaulSonOfLars/gotgbot/v2"
)

// BroadcastRun is the audit record of one delivery, archived when done.
type BroadcastRun struct {
	StartedAt  time.Time `json:"started_at" bson:"started_at"`
	FinishedAt time.Time `json:"finished_at" bson:"finished_at"`
	Recipients int       `json:"recipients" bson:"recipients"`
	Sent       int       `json:"sent" bson:"sent"`
	Failed     int       `json:"failed" bson:"failed"`
	StartedBy  int64     `json:"started_by" bson:"started_by"`
	Text       string    `json:"text" bson:"text"`
}

// Broadcaster delivers a message to many users in chunks, pausing between
// chunks to stay under Telegram's rate limits. One run at a time.
type Broadcaster struct {
	bot    *TgBot
	chunk  int
	pause  time.Duration
	mu     sync.Mutex
	active bool
	stopCh chan struct{}
}

func NewBroadcaster(bot *TgBot, chunk int, pause time.Duration) *Broadcaster {
	return &Broadcaster{
		bot:    bot,
		chunk:  chunk,
		pause:  pause,
		stopCh: make(chan struct{}),
	}
}

// Send starts a delivery in the background. A second call while a run is in
// progress is rejected with a DM to the caller.
func (b *Broadcaster) Send(ids []int64, text string, startedBy int64) {
	b.mu.Lock()
	if b.active {
		b.mu.Unlock()
		b.bot.plainResponse(startedBy, "A broadcast is already running, wait for it to finish.")
		return
	}
	b.active = true
	b.mu.Unlock()

	go b.run(ids, text, startedBy)
}

func (b *Broadcaster) run(ids []int64, text string, startedBy int64) {
	defer func() {
		b.mu.Lock()
		b.active = false
		b.mu.Unlock()
	}()

	result := BroadcastRun{
		StartedAt:  time.Now().UTC(),
		Recipients: len(ids),
		StartedBy:  startedBy,
		Text:       text,
	}

	batches := chunkIds(ids, b.chunk)
	for i, batch := range batches {
		for _, id := range batch {
			_, err := b.bot.api.SendMessage(id, text, &tgbotapi.SendMessageOpts{ParseMode: "HTML"})
			if err != nil {
				result.Failed++
				metrics.BroadcastFailed.Inc()
				b.bot.log.Debug("broadcast delivery failed", sl.User(id), sl.Err(err))
				continue
			}
			result.Sent++
			metrics.BroadcastSent.Inc()
		}
		if i == len(batches)-1 {
			break
		}
		select {
		case <-b.stopCh:
			b.finish(result, startedBy, true)
			return
		case <-time.After(b.pause):
		}
	}

	b.finish(result, startedBy, false)
}

func (b *Broadcaster) finish(result BroadcastRun, startedBy int64, aborted bool) {
	result.FinishedAt = time.Now().UTC()
	b.bot.svc.ArchiveBroadcast(&result)
	b.bot.log.Info("broadcast finished",
		"recipients", result.Recipients,
		"sent", result.Sent,
		"failed", result.Failed,
		"aborted", aborted,
	)

	summary := fmt.Sprintf("Broadcast done: %d sent, %d failed of %d.", result.Sent, result.Failed, result.Recipients)
	if aborted {
		summary = fmt.Sprintf("Broadcast aborted: %d sent, %d failed of %d.", result.Sent, result.Failed, result.Recipients)
	}
	b.bot.plainResponse(startedBy, summary)
}

// Stop aborts a running delivery. Safe to call once, on shutdown.
func (b *Broadcaster) Stop() {
	close(b.stopCh)
}

// chunkIds splits recipients into batches of at most size.
func chunkIds(ids []int64, size int) [][]int64 {
	if size <= 0 || len(ids) == 0 {
		return nil
	}
	batches := make([][]int64, 0, (len(ids)+size-1)/size)
	for from := 0; from < len(ids); from += size {
		to := from + size
		if to > len(ids) {
			to = len(ids)
		}
		batches = append(batches, ids[from:to])
	}
	return batches
}
