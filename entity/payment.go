package entity

import (
	"fmt"
	"strings"
	"time"
)

const PaymentMethodStars = "stars"

// Payment is an audit row written after a successful Stars payment.
// ProviderPayload keeps the raw charge identifiers for support lookups.
type Payment struct {
	Id              string      `json:"id" bson:"id"`
	TenantId        string      `json:"tenant_id,omitempty" bson:"tenant_id,omitempty"`
	TgUserId        int64       `json:"tg_user_id" bson:"tg_user_id"`
	Amount          int64       `json:"amount" bson:"amount"`
	Currency        string      `json:"currency" bson:"currency"`
	Method          string      `json:"method" bson:"method"`
	ProviderPayload interface{} `json:"provider_payload,omitempty" bson:"provider_payload,omitempty"`
	Status          string      `json:"status" bson:"status"`
	CreatedAt       time.Time   `json:"created_at" bson:"created_at"`
}

// InvoicePayload travels through the Telegram invoice round-trip as
// "<tenant id>:<plan code>".
type InvoicePayload struct {
	TenantId string
	PlanCode string
}

func (p InvoicePayload) String() string {
	return p.TenantId + ":" + p.PlanCode
}

func ParseInvoicePayload(payload string) (*InvoicePayload, error) {
	parts := strings.SplitN(payload, ":", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return nil, fmt.Errorf("invalid invoice payload: %s", payload)
	}
	return &InvoicePayload{TenantId: parts[0], PlanCode: parts[1]}, nil
}

// ParseStartPayload maps a /start deep-link argument to a plan code.
// "BUY_PRO_<CODE>" selects the code, bare "BUY_PRO" falls back to PRO_MONTH.
// Returns empty string when the payload is not a purchase link.
func ParseStartPayload(payload string) string {
	if payload == DeepLinkPrefix {
		return "PRO_MONTH"
	}
	if strings.HasPrefix(payload, DeepLinkPrefix+"_") {
		return strings.TrimPrefix(payload, DeepLinkPrefix+"_")
	}
	return ""
}
