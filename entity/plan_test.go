package entity

import "testing"

func TestPlanDeepLink(t *testing.T) {
	t.Parallel()

	plan := Plan{Code: "PRO_MONTH"}
	want := "https://t.me/statbot?start=BUY_PRO_PRO_MONTH"
	if got := plan.DeepLink("statbot"); got != want {
		t.Errorf("DeepLink = %q, want %q", got, want)
	}
}

func TestDefaultPlans(t *testing.T) {
	t.Parallel()

	plans := DefaultPlans()
	if len(plans) != 3 {
		t.Fatalf("expected 3 default plans, got %d", len(plans))
	}
	for _, plan := range plans {
		if !plan.Active {
			t.Errorf("default plan %s must be active", plan.Code)
		}
		if plan.PriceStars <= 0 || plan.DurationDays <= 0 {
			t.Errorf("default plan %s has no price or duration", plan.Code)
		}
	}

	owner := OwnerPlan()
	if owner.PriceStars != 0 {
		t.Errorf("owner plan must be free, got %d stars", owner.PriceStars)
	}
}
