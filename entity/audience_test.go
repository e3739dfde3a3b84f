package entity

import "testing"

func TestAudienceFilterBind(t *testing.T) {
	t.Parallel()

	t.Run("defaults", func(t *testing.T) {
		t.Parallel()
		filter := AudienceFilter{OwnerTgId: 1, LastActiveDays: 30}
		if err := filter.Bind(nil); err != nil {
			t.Fatal(err)
		}
		if filter.Phone != PhoneAny {
			t.Errorf("Phone = %q, want %q", filter.Phone, PhoneAny)
		}
		if filter.Limit != 10000 {
			t.Errorf("Limit = %d, want 10000", filter.Limit)
		}
	})

	t.Run("rejects bad phone filter", func(t *testing.T) {
		t.Parallel()
		filter := AudienceFilter{OwnerTgId: 1, LastActiveDays: 30, Phone: "maybe"}
		if err := filter.Bind(nil); err == nil {
			t.Error("expected validation error")
		}
	})

	t.Run("rejects out of range days", func(t *testing.T) {
		t.Parallel()
		filter := AudienceFilter{OwnerTgId: 1, LastActiveDays: 1000}
		if err := filter.Bind(nil); err == nil {
			t.Error("expected validation error")
		}
	})
}
