package entity

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"groupsight/lib/validate"

	"github.com/biter777/countries"
)

// User is a Telegram account known to the bot. Rows are upserted on every
// interaction; nil-valued fields never erase previously stored values.
type User struct {
	TgId         int64     `json:"tg_id" bson:"tg_id" validate:"required"`
	FirstName    string    `json:"first_name,omitempty" bson:"first_name"`
	LastName     string    `json:"last_name,omitempty" bson:"last_name"`
	Username     string    `json:"username,omitempty" bson:"username"`
	LanguageCode string    `json:"language_code,omitempty" bson:"language_code"`
	Phone        string    `json:"phone,omitempty" bson:"phone"`
	Region       string    `json:"region,omitempty" bson:"region"`
	IsPremium    bool      `json:"is_premium" bson:"is_premium"`
	LastSeenAt   time.Time `json:"last_seen_at" bson:"last_seen_at"`
	CreatedAt    time.Time `json:"created_at" bson:"created_at"`
}

func (u *User) Bind(_ *http.Request) error {
	return validate.Struct(u)
}

func (u *User) HasPhone() bool {
	return u.Phone != ""
}

func (u *User) DisplayName() string {
	if u.Username != "" {
		return fmt.Sprintf("@%s (%d)", u.Username, u.TgId)
	}
	return fmt.Sprintf("%d", u.TgId)
}

// SetRegion stores a region as an ISO alpha-2 country code.
// Accepts a country name or code; rejects anything unknown.
func (u *User) SetRegion(region string) error {
	region = strings.TrimSpace(region)
	if region == "" {
		u.Region = ""
		return nil
	}
	country := countries.ByName(region)
	if country == countries.Unknown {
		return fmt.Errorf("unknown country: %s", region)
	}
	u.Region = country.Alpha2()
	return nil
}

// RegionName resolves the stored alpha-2 code back to a country name.
func (u *User) RegionName() string {
	if u.Region == "" {
		return ""
	}
	country := countries.ByName(u.Region)
	if country == countries.Unknown {
		return u.Region
	}
	return country.String()
}
