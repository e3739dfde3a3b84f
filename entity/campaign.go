package entity

import (
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"groupsight/lib/validate"
)

// CampaignLink ties a Telegram invite link to a named marketing campaign.
// Joins arriving through the link are attributed to the campaign.
type CampaignLink struct {
	Id           string    `json:"id" bson:"id"`
	TenantId     string    `json:"tenant_id" bson:"tenant_id"`
	ChatId       int64     `json:"chat_id" bson:"chat_id" validate:"required"`
	InviteLink   string    `json:"invite_link" bson:"invite_link" validate:"required,url"`
	CampaignName string    `json:"campaign_name" bson:"campaign_name" validate:"required,min=1,max=64"`
	CreatedBy    int64     `json:"created_by" bson:"created_by"`
	CreatedAt    time.Time `json:"created_at" bson:"created_at"`
}

func (c *CampaignLink) Bind(_ *http.Request) error {
	return validate.Struct(c)
}

// CampaignStat is one row of the top-campaigns report.
type CampaignStat struct {
	CampaignName string `json:"campaign_name"`
	Joins        int    `json:"joins_30d"`
}

// inviteCodeRe matches the code suffix of t.me/+CODE and t.me/joinchat/CODE.
var inviteCodeRe = regexp.MustCompile(`(?:joinchat/|\+)([A-Za-z0-9_-]+)$`)

// ExtractInviteCode pulls the invite code out of an invite URL so links can
// be matched even when Telegram reports them in a different format.
// Returns an empty string when no code can be recovered.
func ExtractInviteCode(inviteURL string) string {
	u := strings.TrimSpace(inviteURL)
	if u == "" {
		return ""
	}
	if m := inviteCodeRe.FindStringSubmatch(u); m != nil {
		return m[1]
	}
	parsed, err := url.Parse(u)
	if err != nil || parsed.Path == "" {
		return ""
	}
	segments := strings.Split(strings.TrimRight(parsed.Path, "/"), "/")
	seg := segments[len(segments)-1]
	if seg == "" || seg == "joinchat" {
		return ""
	}
	return seg
}
