package discord

import (
	"log"

	"github.com/bwmarrin/discordgo"
)

// memberMuter is the slice of the Discord API the muter needs.
type memberMuter interface {
	GuildMemberMute(guildID, userID string, mute bool, options ...discordgo.RequestOption) error
}

// guildMuter applies server mutes, skipping calls that would not change
// anything. The cache only tracks mutes this bot applied.
type guildMuter struct {
	api     memberMuter
	guildID string
	muted   map[string]bool
}

func newGuildMuter(api memberMuter, guildID string) *guildMuter {
	return &guildMuter{api: api, guildID: guildID, muted: make(map[string]bool)}
}

func (g *guildMuter) SetMuted(userID string, muted bool, reason string) error {
	if g.muted[userID] == muted {
		return nil
	}
	if err := g.api.GuildMemberMute(g.guildID, userID, muted); err != nil {
		return err
	}
	g.muted[userID] = muted
	log.Printf("mute=%t user=%s guild=%s (%s)", muted, userID, g.guildID, reason)
	mutesApplied.Inc()
	return nil
}
