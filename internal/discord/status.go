package discord

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"vcwarden/internal/models"
	"vcwarden/internal/session"
	"vcwarden/pkg/utils"
)

// statusEmbed renders a session snapshot as an embed.
func statusEmbed(s *discordgo.Session, guildID string, st session.Status) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title: "Voice moderation",
		Color: 0x5865F2,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Channel", Value: utils.FormatChannelMention(st.ChannelID), Inline: true},
			{Name: "Mode", Value: string(st.Mode), Inline: true},
			{Name: "Present", Value: fmt.Sprintf("%d", len(st.Present)), Inline: true},
		},
	}

	if len(st.Speaking) > 0 {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name: "Speaking now", Value: nameList(s, guildID, st.Speaking),
		})
	}

	switch st.Mode {
	case session.ModeFloor:
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name: "Period length", Value: utils.FormatDuration(st.PeriodLength), Inline: true,
		})
		if len(st.Jailed) > 0 {
			embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
				Name: "On cooldown", Value: nameList(s, guildID, st.Jailed), Inline: true,
			})
		}
		if len(st.Activity) > 0 {
			var lines []string
			for id, pct := range st.Activity {
				if pct > 0 {
					lines = append(lines, fmt.Sprintf("%s: %d%%", displayName(s, guildID, id), pct))
				}
			}
			if len(lines) > 0 {
				embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
					Name: "Period activity", Value: strings.Join(lines, "\n"),
				})
			}
		}
	case session.ModeCircle:
		if len(st.Queue) > 0 {
			var lines []string
			for i, id := range st.Queue {
				marker := "  "
				if i == 0 {
					marker = "🎙️"
				}
				lines = append(lines, fmt.Sprintf("%s %d. %s", marker, i+1, displayName(s, guildID, id)))
			}
			embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
				Name: "Queue", Value: strings.Join(lines, "\n"),
			})
			embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
				Name: "Turn", Value: fmt.Sprintf("%s elapsed, %s left",
					utils.FormatDuration(st.TurnElapsed), utils.FormatDuration(st.TurnRemaining)),
				Inline: true,
			})
		}
	case session.ModeStage:
		speaker := "(empty)"
		if st.StageSpeaker != "" {
			speaker = displayName(s, guildID, st.StageSpeaker)
		}
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name: "Speaker", Value: speaker, Inline: true,
		})
	}

	if st.Interruptions > 0 {
		embed.Footer = &discordgo.MessageEmbedFooter{
			Text: fmt.Sprintf("%d interruptions this session", st.Interruptions),
		}
	}
	return embed
}

// displayName resolves a user ID to a nickname or username, falling back to
// a mention when the member is not cached.
func displayName(s *discordgo.Session, guildID, userID string) string {
	member, err := s.State.Member(guildID, userID)
	if err != nil || member == nil {
		return utils.FormatUserMention(userID)
	}
	if member.Nick != "" {
		return member.Nick
	}
	if member.User != nil {
		return member.User.Username
	}
	return utils.FormatUserMention(userID)
}

func nameList(s *discordgo.Session, guildID string, ids []string) string {
	names := make([]string, len(ids))
	for i, id := range ids {
		names[i] = displayName(s, guildID, id)
	}
	return strings.Join(names, ", ")
}

// renderSettings prints a guild's duration settings in seconds.
func renderSettings(s models.GuildSettings) string {
	line := func(name string, d models.ModeDurations) string {
		return fmt.Sprintf("%s: vote=%d result=%d turn=%d extension=%d pause=%d jail=%d",
			name, d.Vote, d.Result, d.Turn, d.Extension, d.Pause, d.Jail)
	}
	role := "(not set)"
	if s.RoleID != "" {
		role = fmt.Sprintf("<@&%s>", s.RoleID)
	}
	return strings.Join([]string{
		"Settings (seconds):",
		line("floor", s.Floor),
		line("circle", s.Circle),
		"moderator role: " + role,
	}, "\n")
}
