package entity

import (
	"net/http"

	"groupsight/lib/validate"
)

type PhoneFilter string

const (
	PhoneAny PhoneFilter = "any"
	PhoneYes PhoneFilter = "yes"
	PhoneNo  PhoneFilter = "no"
)

// AudienceFilter selects current members of a tenant's chats who were active
// within the last N days, optionally filtered by stored phone number.
type AudienceFilter struct {
	OwnerTgId      int64       `json:"owner_tg_id" validate:"required"`
	LastActiveDays int         `json:"last_active_days" validate:"required,min=1,max=365"`
	Phone          PhoneFilter `json:"phone" validate:"omitempty,oneof=any yes no"`
	Limit          int         `json:"limit" validate:"omitempty,min=1,max=10000"`
}

func (a *AudienceFilter) Bind(_ *http.Request) error {
	if a.Phone == "" {
		a.Phone = PhoneAny
	}
	if a.Limit == 0 {
		a.Limit = 10000
	}
	return validate.Struct(a)
}
