package discord

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"

	"vcwarden/internal/vote"
	"vcwarden/pkg/utils"
)

const ballotEmoji = "🗳️"

// ballotCollector runs votes as reaction polls in a text channel.
type ballotCollector struct {
	session   *discordgo.Session
	channelID string
}

func newBallotCollector(s *discordgo.Session, channelID string) *ballotCollector {
	return &ballotCollector{session: s, channelID: channelID}
}

// Collect posts the prompt, seeds the ballot reaction, and counts eligible
// reactions until majority, timeout, or cancellation.
func (c *ballotCollector) Collect(ctx context.Context, p vote.Prompt) (bool, error) {
	text := fmt.Sprintf("%s\nEligible: %s. React with %s within %s.",
		p.Text, mentionList(p.Voters), ballotEmoji, utils.FormatDuration(p.Timeout))
	msg, err := c.session.ChannelMessageSend(c.channelID, text)
	if err != nil {
		return false, fmt.Errorf("failed to post ballot: %w", err)
	}
	if err := c.session.MessageReactionAdd(c.channelID, msg.ID, ballotEmoji); err != nil {
		log.Printf("Error seeding ballot reaction: %v", err)
	}

	eligible := make(map[string]bool, len(p.Voters))
	for _, id := range p.Voters {
		eligible[id] = true
	}

	var mu sync.Mutex
	voted := make(map[string]bool)
	done := make(chan struct{})
	var once sync.Once

	remove := c.session.AddHandler(func(s *discordgo.Session, r *discordgo.MessageReactionAdd) {
		if r.MessageID != msg.ID || r.Emoji.Name != ballotEmoji {
			return
		}
		if !eligible[r.UserID] {
			return
		}
		mu.Lock()
		voted[r.UserID] = true
		reached := len(voted) >= p.Majority
		mu.Unlock()
		if reached {
			once.Do(func() { close(done) })
		}
	})
	defer remove()

	timer := time.NewTimer(p.Timeout)
	defer timer.Stop()

	reached := false
	select {
	case <-done:
		reached = true
	case <-timer.C:
	case <-ctx.Done():
		return false, nil
	}

	if reached && p.ReachedText != "" {
		c.post(p.ReachedText)
	}
	if !reached && p.FailedText != "" {
		c.post(p.FailedText)
	}
	return reached, nil
}

func (c *ballotCollector) post(text string) {
	if _, err := c.session.ChannelMessageSend(c.channelID, text); err != nil {
		log.Printf("Error posting ballot result: %v", err)
	}
}

func mentionList(ids []string) string {
	if len(ids) == 0 {
		return "(nobody)"
	}
	mentions := make([]string, len(ids))
	for i, id := range ids {
		mentions[i] = utils.FormatUserMention(id)
	}
	return strings.Join(mentions, " ")
}

// channelAnnouncer posts plain notifications to the session's text channel.
type channelAnnouncer struct {
	session   *discordgo.Session
	channelID string
}

func (a *channelAnnouncer) Announce(text string) {
	if _, err := a.session.ChannelMessageSend(a.channelID, text); err != nil {
		log.Printf("Error announcing: %v", err)
	}
}
