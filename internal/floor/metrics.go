package floor

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	vetoVotesOpened = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vcwarden_floor_veto_votes_opened_total",
		Help: "Veto ballots opened against turn extensions.",
	})
	vetoVotesReached = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vcwarden_floor_veto_votes_reached_total",
		Help: "Veto ballots that reached majority.",
	})
	extensionsGranted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vcwarden_floor_extensions_granted_total",
		Help: "Turn extensions granted after an unvetoed warning.",
	})
	cooldownVotesOpened = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vcwarden_floor_cooldown_votes_opened_total",
		Help: "Cooldown ballots opened against period-dominant speakers.",
	})
	jailsStarted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vcwarden_floor_cooldowns_started_total",
		Help: "Cooldowns applied, from turn limits or passed ballots.",
	})
)
