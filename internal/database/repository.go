package database

import (
	"database/sql"
	"fmt"

	"vcwarden/internal/models"
)

// Repository handles database operations
type Repository struct {
	db *DB
}

// NewRepository creates a new repository
func NewRepository(db *DB) *Repository {
	return &Repository{db: db}
}

// durationColumns whitelists the configurable duration columns.
var durationColumns = map[string]bool{
	"floor_vote": true, "floor_result": true, "floor_turn": true,
	"floor_extension": true, "floor_pause": true, "floor_jail": true,
	"circle_vote": true, "circle_result": true, "circle_turn": true,
	"circle_extension": true, "circle_pause": true, "circle_jail": true,
}

// EnsureGuild inserts default settings for a guild if none exist yet.
func (r *Repository) EnsureGuild(guildID string) error {
	d := models.DefaultSettings(guildID)
	_, err := r.db.conn.Exec(`
		INSERT INTO guild_settings (guild_id, role_id,
			floor_vote, floor_result, floor_turn, floor_extension, floor_pause, floor_jail,
			circle_vote, circle_result, circle_turn, circle_extension, circle_pause, circle_jail)
		VALUES ($1, '', $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (guild_id) DO NOTHING`,
		guildID,
		d.Floor.Vote, d.Floor.Result, d.Floor.Turn, d.Floor.Extension, d.Floor.Pause, d.Floor.Jail,
		d.Circle.Vote, d.Circle.Result, d.Circle.Turn, d.Circle.Extension, d.Circle.Pause, d.Circle.Jail)
	if err != nil {
		return fmt.Errorf("failed to ensure guild settings: %w", err)
	}
	return nil
}

// GetGuildSettings loads a guild's settings, falling back to defaults when
// the guild has no row yet.
func (r *Repository) GetGuildSettings(guildID string) (models.GuildSettings, error) {
	s := models.GuildSettings{GuildID: guildID}
	err := r.db.conn.QueryRow(`
		SELECT role_id,
			floor_vote, floor_result, floor_turn, floor_extension, floor_pause, floor_jail,
			circle_vote, circle_result, circle_turn, circle_extension, circle_pause, circle_jail
		FROM guild_settings WHERE guild_id = $1`, guildID).Scan(
		&s.RoleID,
		&s.Floor.Vote, &s.Floor.Result, &s.Floor.Turn, &s.Floor.Extension, &s.Floor.Pause, &s.Floor.Jail,
		&s.Circle.Vote, &s.Circle.Result, &s.Circle.Turn, &s.Circle.Extension, &s.Circle.Pause, &s.Circle.Jail)
	if err == sql.ErrNoRows {
		return models.DefaultSettings(guildID), nil
	}
	if err != nil {
		return s, fmt.Errorf("failed to get guild settings: %w", err)
	}
	return s, nil
}

// SetRole stores the moderator role for a guild.
func (r *Repository) SetRole(guildID, roleID string) error {
	_, err := r.db.conn.Exec(
		"UPDATE guild_settings SET role_id = $1 WHERE guild_id = $2", roleID, guildID)
	if err != nil {
		return fmt.Errorf("failed to set role: %w", err)
	}
	return nil
}

// UpdateDuration sets one duration column, named mode_field (for example
// floor_turn), to the given number of seconds.
func (r *Repository) UpdateDuration(guildID, column string, seconds int64) error {
	if !durationColumns[column] {
		return fmt.Errorf("unknown setting %q", column)
	}
	_, err := r.db.conn.Exec(
		fmt.Sprintf("UPDATE guild_settings SET %s = $1 WHERE guild_id = $2", column),
		seconds, guildID)
	if err != nil {
		return fmt.Errorf("failed to update %s: %w", column, err)
	}
	return nil
}

// DeleteGuild removes a guild's settings row.
func (r *Repository) DeleteGuild(guildID string) error {
	_, err := r.db.conn.Exec("DELETE FROM guild_settings WHERE guild_id = $1", guildID)
	if err != nil {
		return fmt.Errorf("failed to delete guild settings: %w", err)
	}
	return nil
}
