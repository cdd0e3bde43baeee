package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ConnectionsCreated tracks connection entities created.
	ConnectionsCreated = promauto.With(Registry).NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "connections",
			Name:      "created_total",
			Help:      "Total number of connection entities created",
		},
	)

	// ConnectionStateTransitions tracks lifecycle transitions by from/to state.
	ConnectionStateTransitions = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "connections",
			Name:      "state_transitions_total",
			Help:      "Total number of connection lifecycle state transitions",
		},
		[]string{"from", "to"},
	)

	// InvitesSent tracks invitations issued by the inviter side.
	InvitesSent = promauto.With(Registry).NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "connections",
			Name:      "invites_sent_total",
			Help:      "Total number of invitations sent",
		},
	)

	// InvitesAccepted tracks invitations accepted by the invitee side.
	InvitesAccepted = promauto.With(Registry).NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "connections",
			Name:      "invites_accepted_total",
			Help:      "Total number of invitations accepted",
		},
	)

	// PollDuration tracks update_state poll latency.
	PollDuration = promauto.With(Registry).NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "connections",
			Name:      "poll_duration_seconds",
			Help:      "update_state poll duration in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12),
		},
	)
)
