package entity

import "time"

// GateTarget is one chat or channel a new group member must join before the
// force-join gate lifts their restrictions. Target is "@username" or an
// invite URL; JoinUrl, when set, is the button link shown to the user.
type GateTarget struct {
	ChatId  int64     `json:"chat_id" bson:"chat_id"`
	Target  string    `json:"target" bson:"target"`
	JoinUrl string    `json:"join_url,omitempty" bson:"join_url,omitempty"`
	SetBy   int64     `json:"set_by" bson:"set_by"`
	SetAt   time.Time `json:"set_at" bson:"set_at"`
}

// ButtonUrl is the link shown on the force-join keyboard.
func (g *GateTarget) ButtonUrl() string {
	if g.JoinUrl != "" {
		return g.JoinUrl
	}
	if len(g.Target) > 1 && g.Target[0] == '@' {
		return "https://t.me/" + g.Target[1:]
	}
	return g.Target
}

// RequiredTarget is a bot-wide required membership checked in DM before the
// dashboard is offered.
type RequiredTarget struct {
	Target  string    `json:"target" bson:"target"`
	AddedBy int64     `json:"added_by" bson:"added_by"`
	AddedAt time.Time `json:"added_at" bson:"added_at"`
}

// PendingVerification tracks a restricted new member until they pass the
// gate or the deadline runs out.
type PendingVerification struct {
	ChatId   int64     `json:"chat_id" bson:"chat_id"`
	UserId   int64     `json:"user_id" bson:"user_id"`
	Deadline time.Time `json:"deadline" bson:"deadline"`
	Verified bool      `json:"verified" bson:"verified"`
}

// ShouldBan reports whether the member missed the deadline without verifying.
func (p *PendingVerification) ShouldBan(now time.Time) bool {
	if p == nil || p.Verified {
		return false
	}
	return p.Deadline.Before(now)
}
