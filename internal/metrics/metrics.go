// Package metrics registers the Prometheus counters exposed on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	Joins = promauto.NewCounter(prometheus.CounterOpts{
		Name: "groupsight_member_joins_total",
		Help: "Join events recorded across all tracked chats.",
	})

	Leaves = promauto.NewCounter(prometheus.CounterOpts{
		Name: "groupsight_member_leaves_total",
		Help: "Leave events recorded across all tracked chats.",
	})

	CampaignJoins = promauto.NewCounter(prometheus.CounterOpts{
		Name: "groupsight_campaign_joins_total",
		Help: "Joins attributed to a campaign invite link.",
	})

	PaymentsStars = promauto.NewCounter(prometheus.CounterOpts{
		Name: "groupsight_payments_stars_total",
		Help: "Total Stars received through successful payments.",
	})

	BroadcastSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "groupsight_broadcast_sent_total",
		Help: "Broadcast messages delivered.",
	})

	BroadcastFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "groupsight_broadcast_failed_total",
		Help: "Broadcast messages that could not be delivered.",
	})

	GateBans = promauto.NewCounter(prometheus.CounterOpts{
		Name: "groupsight_gate_bans_total",
		Help: "Members removed after missing the verification deadline.",
	})
)
