package discord

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	commandsHandled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vcwarden_discord_commands_total",
		Help: "Prefix commands handled.",
	})
	speechEdges = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vcwarden_discord_speech_edges_total",
		Help: "Speech start and stop edges detected from voice frames.",
	})
	mutesApplied = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vcwarden_discord_mutes_applied_total",
		Help: "Server mute state changes applied.",
	})
)
