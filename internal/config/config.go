package config

import (
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for our application
type Config struct {
	DiscordToken  string
	DatabaseDSN   string
	CommandPrefix string
	DashboardAddr string
}

// Load loads configuration from environment variables and an optional
// config file.
func Load() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		// .env file is optional, continue with environment variables
	}

	v := viper.New()
	v.SetConfigName("vcwarden")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.SetEnvPrefix("VCWARDEN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("command_prefix", "!")
	v.SetDefault("dashboard_addr", ":8080")
	v.BindEnv("discord_token", "DISCORD_TOKEN", "VCWARDEN_DISCORD_TOKEN")
	v.BindEnv("database_dsn", "DATABASE_DSN", "VCWARDEN_DATABASE_DSN")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	config := &Config{
		DiscordToken:  v.GetString("discord_token"),
		DatabaseDSN:   v.GetString("database_dsn"),
		CommandPrefix: v.GetString("command_prefix"),
		DashboardAddr: v.GetString("dashboard_addr"),
	}

	if config.DiscordToken == "" {
		return nil, &ConfigError{Field: "discord_token", Message: "DISCORD_TOKEN is required"}
	}

	if config.DatabaseDSN == "" {
		return nil, &ConfigError{Field: "database_dsn", Message: "DATABASE_DSN is required"}
	}

	return config, nil
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return e.Message
}
