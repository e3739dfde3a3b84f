package core

import (
	"fmt"
	"log/slog"
	"time"

	"groupsight/entity"
	"groupsight/internal/metrics"
	"groupsight/lib/sl"
)

// ResolvePlan returns the plan to charge for. The database row wins; the
// built-in defaults answer for their own codes when the table has none. A
// disabled or unknown code is an error, so a mistyped deep link never
// invoices a plan the user did not pick. The owner always gets the free plan.
func (c *Core) ResolvePlan(code string, tgId int64) (*entity.Plan, error) {
	if c.IsOwner(tgId) {
		return entity.OwnerPlan(), nil
	}

	plan, err := c.db.PlanByCode(code)
	if err != nil {
		return nil, err
	}
	if plan != nil {
		if !plan.Active {
			return nil, fmt.Errorf("plan %s is disabled", code)
		}
		return plan, nil
	}

	for _, fallback := range entity.DefaultPlans() {
		if fallback.Code == code {
			return fallback, nil
		}
	}
	return nil, fmt.Errorf("unknown plan code %s", code)
}

func (c *Core) ActivePlans() ([]*entity.Plan, error) {
	plans, err := c.db.ActivePlans()
	if err != nil {
		return nil, err
	}
	if len(plans) == 0 {
		plans = entity.DefaultPlans()
	}
	return plans, nil
}

// SubscriptionStatus labels a user Pro or Free. The owner is always Pro.
func (c *Core) SubscriptionStatus(tgId int64) (entity.SubscriptionStatus, *entity.Subscription, error) {
	if c.IsOwner(tgId) {
		return entity.StatusPro, nil, nil
	}
	sub, err := c.db.Subscription(tgId)
	if err != nil {
		return entity.StatusFree, nil, err
	}
	if sub.Active(time.Now().UTC()) {
		return entity.StatusPro, sub, nil
	}
	return entity.StatusFree, sub, nil
}

// CompletePayment extends the buyer's subscription and writes the audit
// trail. Audit failures do not fail the payment; the subscription row is the
// source of truth.
func (c *Core) CompletePayment(tgId int64, tenantId, planCode string, amountStars int64, providerPayload interface{}) (*entity.Subscription, error) {
	plan, err := c.ResolvePlan(planCode, tgId)
	if err != nil {
		return nil, err
	}

	sub, err := c.db.ExtendSubscription(tgId, plan.Code, plan.DurationDays)
	if err != nil {
		return nil, fmt.Errorf("extend subscription: %w", err)
	}

	payment := &entity.Payment{
		TenantId:        tenantId,
		TgUserId:        tgId,
		Amount:          amountStars,
		Currency:        entity.CurrencyStars,
		Method:          entity.PaymentMethodStars,
		ProviderPayload: providerPayload,
		Status:          "paid",
	}
	if err = c.db.SavePayment(payment); err != nil {
		c.log.Warn("saving payment audit",
			sl.User(tgId),
			slog.String("plan", plan.Code),
			sl.Err(err),
		)
	}
	if c.archive != nil {
		if err = c.archive.ArchivePayment(payment); err != nil {
			c.log.Warn("archiving payment", sl.User(tgId), sl.Err(err))
		}
	}

	metrics.PaymentsStars.Add(float64(amountStars))
	c.log.Info("payment completed",
		sl.User(tgId),
		slog.String("plan", plan.Code),
		slog.Int64("stars", amountStars),
	)
	return sub, nil
}
