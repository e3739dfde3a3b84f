package entity

import (
	"fmt"
	"net/http"

	"groupsight/lib/validate"
)

// CurrencyStars is Telegram's in-chat currency code for Stars payments.
const CurrencyStars = "XTR"

// DeepLinkPrefix marks a /start payload that should open a Stars invoice.
// Full payload form: BUY_PRO_<plan code>.
const DeepLinkPrefix = "BUY_PRO"

// Plan is a subscription plan priced in Telegram Stars.
type Plan struct {
	Code         string `json:"code" bson:"code" validate:"required,min=1,max=32"`
	Title        string `json:"title" bson:"title" validate:"required"`
	Description  string `json:"description" bson:"description"`
	PriceStars   int64  `json:"price_stars" bson:"price_stars" validate:"min=0"`
	DurationDays int    `json:"duration_days" bson:"duration_days" validate:"required,min=1"`
	Active       bool   `json:"is_active" bson:"is_active"`
}

func (p *Plan) Bind(_ *http.Request) error {
	return validate.Struct(p)
}

// DeepLink builds the t.me link a mini-app card points at to start payment
// inside the chat.
func (p *Plan) DeepLink(botUsername string) string {
	return fmt.Sprintf("https://t.me/%s?start=%s_%s", botUsername, DeepLinkPrefix, p.Code)
}

// DefaultPlans are used while the plans table is still empty.
func DefaultPlans() []*Plan {
	return []*Plan{
		{
			Code:         "PRO_WEEK",
			Title:        "Pro (7 days)",
			Description:  "Unlock Force Join + advanced analytics + reports for a week",
			PriceStars:   80,
			DurationDays: 7,
			Active:       true,
		},
		{
			Code:         "PRO_MONTH",
			Title:        "Pro (30 days)",
			Description:  "Unlock Force Join + advanced analytics + reports",
			PriceStars:   300,
			DurationDays: 30,
			Active:       true,
		},
		{
			Code:         "PRO_YEAR",
			Title:        "Pro (365 days)",
			Description:  "Unlock Force Join + advanced analytics + reports",
			PriceStars:   3000,
			DurationDays: 365,
			Active:       true,
		},
	}
}

// OwnerPlan is resolved for the bot owner, who never pays.
func OwnerPlan() *Plan {
	return &Plan{
		Code:         "OWNER_PRO",
		Title:        "Pro (Owner Free)",
		Description:  "All features unlocked for bot owner",
		PriceStars:   0,
		DurationDays: 36500,
		Active:       true,
	}
}
