package circle

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	rotations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vcwarden_circle_rotations_total",
		Help: "Queue rotations, scheduled or forced.",
	})
	autoAdvances = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vcwarden_circle_auto_advances_total",
		Help: "Rotations triggered by a silent head speaker.",
	})
	extensionVotesPassed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vcwarden_circle_extension_votes_passed_total",
		Help: "Extension ballots that reached majority.",
	})
)
