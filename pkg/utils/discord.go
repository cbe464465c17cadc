package utils

import (
	"fmt"
	"strings"
)

// FormatUserMention formats a user ID as a Discord mention
func FormatUserMention(userID string) string {
	return fmt.Sprintf("<@%s>", userID)
}

// ExtractUserIDFromMention extracts user ID from Discord mention
func ExtractUserIDFromMention(mention string) string {
	// Remove <@ and >
	userID := strings.TrimPrefix(mention, "<@")
	userID = strings.TrimSuffix(userID, ">")
	// Remove ! if present (for nickname mentions)
	userID = strings.TrimPrefix(userID, "!")
	return userID
}

// IsUserMention checks if a string is a valid user mention
func IsUserMention(text string) bool {
	return strings.HasPrefix(text, "<@") && strings.HasSuffix(text, ">")
}

// ExtractRoleIDFromMention extracts role ID from a Discord role mention
func ExtractRoleIDFromMention(mention string) string {
	roleID := strings.TrimPrefix(mention, "<@&")
	return strings.TrimSuffix(roleID, ">")
}

// IsRoleMention checks if a string is a valid role mention
func IsRoleMention(text string) bool {
	return strings.HasPrefix(text, "<@&") && strings.HasSuffix(text, ">")
}

// FormatChannelMention formats a channel ID as a Discord channel mention
func FormatChannelMention(channelID string) string {
	return fmt.Sprintf("<#%s>", channelID)
}
