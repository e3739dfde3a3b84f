package owner

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"groupsight/entity"
)

type fakeCore struct {
	tenants []*entity.TenantSummary
	usage   *entity.Usage
	events  []*entity.MemberEvent

	eventsChat  int64
	eventsLimit int64
	eventsErr   error
}

func (f *fakeCore) TenantsPage(_ string, _, _ int) ([]*entity.TenantSummary, error) {
	return f.tenants, nil
}

func (f *fakeCore) Usage() (*entity.Usage, error) {
	return f.usage, nil
}

func (f *fakeCore) RecentChatEvents(chatId int64, limit int64) ([]*entity.MemberEvent, error) {
	f.eventsChat = chatId
	f.eventsLimit = limit
	return f.events, f.eventsErr
}

func discardLog() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func decode(t *testing.T, body []byte) map[string]interface{} {
	t.Helper()
	var res map[string]interface{}
	if err := json.Unmarshal(body, &res); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	return res
}

func TestEvents(t *testing.T) {
	t.Parallel()

	core := &fakeCore{events: []*entity.MemberEvent{
		{ChatId: -100, TgId: 42, Kind: entity.EventJoin},
	}}
	req := httptest.NewRequest(http.MethodGet, "/events?chat=-100&limit=10", nil)
	rec := httptest.NewRecorder()

	Events(discardLog(), core)(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if core.eventsChat != -100 || core.eventsLimit != 10 {
		t.Errorf("core called with chat=%d limit=%d", core.eventsChat, core.eventsLimit)
	}
	res := decode(t, rec.Body.Bytes())
	if res["success"] != true {
		t.Errorf("success = %v, want true", res["success"])
	}
	if res["data"] == nil {
		t.Error("expected data in response")
	}
}

func TestEventsLimitDefaults(t *testing.T) {
	t.Parallel()

	cases := map[string]struct {
		query string
		want  int64
	}{
		"missing": {"/events?chat=1", 50},
		"zero":    {"/events?chat=1&limit=0", 50},
		"capped":  {"/events?chat=1&limit=9000", 500},
	}
	for name, tc := range cases {
		tc := tc
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			core := &fakeCore{}
			rec := httptest.NewRecorder()
			Events(discardLog(), core)(rec, httptest.NewRequest(http.MethodGet, tc.query, nil))
			if core.eventsLimit != tc.want {
				t.Errorf("limit = %d, want %d", core.eventsLimit, tc.want)
			}
		})
	}
}

func TestEventsBadChat(t *testing.T) {
	t.Parallel()

	core := &fakeCore{}
	rec := httptest.NewRecorder()
	Events(discardLog(), core)(rec, httptest.NewRequest(http.MethodGet, "/events?chat=abc", nil))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	res := decode(t, rec.Body.Bytes())
	if res["success"] != false {
		t.Errorf("success = %v, want false", res["success"])
	}
}

func TestEventsStoreError(t *testing.T) {
	t.Parallel()

	core := &fakeCore{eventsErr: errors.New("mongo down")}
	rec := httptest.NewRecorder()
	Events(discardLog(), core)(rec, httptest.NewRequest(http.MethodGet, "/events?chat=1", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
}
