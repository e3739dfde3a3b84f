package bot

import (
	"fmt"

	"groupsight/entity"
	"groupsight/lib/sl"

	tgbotapi "github.com/PaulSonOfLars/gotgbot/v2"
	"github.com/PaulSonOfLars/gotgbot/v2/ext"
)

// sendInvoice opens a Telegram Stars invoice for the given plan.
// Stars invoices carry no provider token; the currency is always XTR.
func (t *TgBot) sendInvoice(userId int64, planCode string) error {
	plan, err := t.svc.ResolvePlan(planCode, userId)
	if err != nil {
		return fmt.Errorf("resolving plan %s: %w", planCode, err)
	}
	if plan.PriceStars == 0 {
		t.plainResponse(userId, "Your plan is already free of charge.")
		return nil
	}

	tenantId, err := t.svc.UserTenant(userId)
	if err != nil {
		return fmt.Errorf("resolving tenant: %w", err)
	}
	payload := entity.InvoicePayload{TenantId: tenantId, PlanCode: plan.Code}

	prices := []tgbotapi.LabeledPrice{
		{Label: plan.Title, Amount: plan.PriceStars},
	}
	_, err = t.api.SendInvoice(
		userId,
		plan.Title,
		plan.Description,
		payload.String(),
		entity.CurrencyStars,
		prices,
		nil,
	)
	if err != nil {
		return fmt.Errorf("sending invoice: %w", err)
	}
	t.log.Info("invoice sent", sl.User(userId), "plan", plan.Code, "stars", plan.PriceStars)
	return nil
}

// onPreCheckout confirms the payment can proceed. The payload and amount are
// validated again; Telegram cancels the payment on a negative answer.
func (t *TgBot) onPreCheckout(_ *tgbotapi.Bot, ctx *ext.Context) error {
	pcq := ctx.PreCheckoutQuery
	if pcq == nil {
		return nil
	}

	decline := func(reason string) error {
		_, err := pcq.Answer(t.api, false, &tgbotapi.AnswerPreCheckoutQueryOpts{
			ErrorMessage: reason,
		})
		return err
	}

	payload, err := entity.ParseInvoicePayload(pcq.InvoicePayload)
	if err != nil {
		t.log.Warn("pre-checkout with bad payload", sl.User(pcq.From.Id), sl.Err(err))
		return decline("This invoice is no longer valid, start over with /plans.")
	}
	if pcq.Currency != entity.CurrencyStars {
		return decline("Only Telegram Stars payments are accepted.")
	}

	plan, err := t.svc.ResolvePlan(payload.PlanCode, pcq.From.Id)
	if err != nil {
		t.log.Warn("pre-checkout with unknown plan", sl.User(pcq.From.Id), sl.Err(err))
		return decline("This plan is no longer available.")
	}
	if pcq.TotalAmount != plan.PriceStars {
		t.log.Warn("pre-checkout amount mismatch",
			sl.User(pcq.From.Id),
			"plan", plan.Code,
			"expected", plan.PriceStars,
			"got", pcq.TotalAmount,
		)
		return decline("The plan price changed, start over with /plans.")
	}

	_, err = pcq.Answer(t.api, true, nil)
	return err
}

// onSuccessfulPayment extends the subscription and confirms to the payer.
func (t *TgBot) onSuccessfulPayment(_ *tgbotapi.Bot, ctx *ext.Context) error {
	msg := ctx.EffectiveMessage
	payment := msg.SuccessfulPayment
	if payment == nil || ctx.EffectiveUser == nil {
		return nil
	}
	userId := ctx.EffectiveUser.Id

	payload, err := entity.ParseInvoicePayload(payment.InvoicePayload)
	if err != nil {
		t.reportError(userId, "payment payload", err)
		return nil
	}

	charge := map[string]string{
		"telegram_charge_id": payment.TelegramPaymentChargeId,
		"provider_charge_id": payment.ProviderPaymentChargeId,
	}
	sub, err := t.svc.CompletePayment(userId, payload.TenantId, payload.PlanCode, payment.TotalAmount, charge)
	if err != nil {
		t.reportError(userId, "completing payment", err)
		return nil
	}

	t.plainResponse(userId, fmt.Sprintf(
		"Payment received ⭐ Your Pro access runs until <b>%s</b>. Thank you!",
		sub.ExpiresAt.Format("2006-01-02 15:04 MST"),
	))
	t.NotifyOwner(fmt.Sprintf("Payment: %d stars from %d for %s", payment.TotalAmount, userId, payload.PlanCode))
	return nil
}
