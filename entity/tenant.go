package entity

import (
	"net/http"
	"time"

	"groupsight/lib/validate"
)

// Tenant is an isolated customer account. Every chat, campaign link and
// payment row carries the tenant id; a personal tenant is created on first
// /start for each owner.
type Tenant struct {
	Id        string    `json:"id" bson:"id"`
	OwnerTgId int64     `json:"owner_tg_id" bson:"owner_tg_id" validate:"required"`
	Name      string    `json:"name" bson:"name" validate:"required,min=1,max=128"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}

func (t *Tenant) Bind(_ *http.Request) error {
	return validate.Struct(t)
}

// TenantSummary is a tenant row enriched with usage stats for listings.
type TenantSummary struct {
	Id        string `json:"id"`
	Name      string `json:"name"`
	OwnerTgId int64  `json:"owner_tg_id"`
	CreatedAt string `json:"created_at"`
	ChatCount int    `json:"chat_count"`
	Plan      string `json:"plan"`
}

// Usage is the owner-panel counters block.
type Usage struct {
	Tenants      int `json:"tenants"`
	Users        int `json:"users"`
	PremiumUsers int `json:"premium_users"`
	Chats        int `json:"chats"`
}
