package core

import (
	"io"
	"log/slog"
	"testing"

	"groupsight/entity"
)

// fakeStore satisfies Database through the embedded interface; only the
// methods a test touches are implemented.
type fakeStore struct {
	Database
	plans   map[string]*entity.Plan
	phones  map[int64]string
	regions map[int64]string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		plans:   make(map[string]*entity.Plan),
		phones:  make(map[int64]string),
		regions: make(map[int64]string),
	}
}

func (f *fakeStore) PlanByCode(code string) (*entity.Plan, error) {
	return f.plans[code], nil
}

func (f *fakeStore) SetUserPhone(tgId int64, phone string) error {
	f.phones[tgId] = phone
	return nil
}

func (f *fakeStore) SetUserRegion(tgId int64, region string) error {
	f.regions[tgId] = region
	return nil
}

func testCore(db Database) *Core {
	return New(db, 99, "statbot", slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestResolvePlan(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	store.plans["PRO_MONTH"] = &entity.Plan{Code: "PRO_MONTH", Title: "Pro", PriceStars: 250, DurationDays: 30, Active: true}
	store.plans["PRO_OLD"] = &entity.Plan{Code: "PRO_OLD", Title: "Legacy", PriceStars: 100, DurationDays: 30, Active: false}
	c := testCore(store)

	plan, err := c.ResolvePlan("PRO_MONTH", 1)
	if err != nil {
		t.Fatalf("ResolvePlan: %v", err)
	}
	if plan.PriceStars != 250 {
		t.Errorf("stored row should win, got price %d", plan.PriceStars)
	}

	// Defaults answer for their codes when the table has no row.
	plan, err = c.ResolvePlan("PRO_WEEK", 1)
	if err != nil {
		t.Fatalf("ResolvePlan default: %v", err)
	}
	if plan.Code != "PRO_WEEK" {
		t.Errorf("resolved %s, want PRO_WEEK", plan.Code)
	}

	// The owner never pays.
	plan, err = c.ResolvePlan("PRO_MONTH", 99)
	if err != nil {
		t.Fatalf("ResolvePlan owner: %v", err)
	}
	if plan.PriceStars != 0 {
		t.Errorf("owner plan priced at %d", plan.PriceStars)
	}
}

func TestResolvePlanRejects(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	store.plans["PRO_OLD"] = &entity.Plan{Code: "PRO_OLD", Title: "Legacy", PriceStars: 100, DurationDays: 30, Active: false}
	c := testCore(store)

	// A mistyped deep link must not invoice some other plan.
	if _, err := c.ResolvePlan("PRO_XYZ", 1); err == nil {
		t.Error("expected error for unknown code")
	}
	if _, err := c.ResolvePlan("PRO_OLD", 1); err == nil {
		t.Error("expected error for disabled plan")
	}
}

func TestSaveContact(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	c := testCore(store)

	if err := c.SaveContact(42, "491701234567"); err != nil {
		t.Fatalf("SaveContact: %v", err)
	}
	if got := store.phones[42]; got != "+491701234567" {
		t.Errorf("stored phone = %q", got)
	}

	if err := c.SaveContact(42, "+15550001111"); err != nil {
		t.Fatalf("SaveContact: %v", err)
	}
	if got := store.phones[42]; got != "+15550001111" {
		t.Errorf("stored phone = %q", got)
	}

	if err := c.SaveContact(42, "  "); err == nil {
		t.Error("expected error for empty phone")
	}
}

func TestSaveRegion(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	c := testCore(store)

	code, err := c.SaveRegion(42, "Germany")
	if err != nil {
		t.Fatalf("SaveRegion: %v", err)
	}
	if code != "DE" || store.regions[42] != "DE" {
		t.Errorf("stored region = %q (returned %q)", store.regions[42], code)
	}

	if _, err = c.SaveRegion(42, "Atlantis"); err == nil {
		t.Error("expected error for unknown country")
	}
}
