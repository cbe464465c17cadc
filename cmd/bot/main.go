package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"vcwarden/internal/config"
	"vcwarden/internal/dashboard"
	"vcwarden/internal/database"
	"vcwarden/internal/discord"
	"vcwarden/internal/session"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize database
	db, err := database.New(cfg.DatabaseDSN)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	// Create repository and session registry
	repository := database.NewRepository(db)
	registry := session.NewRegistry()

	// Initialize Discord bot
	bot, err := discord.New(cfg.DiscordToken, cfg.CommandPrefix, repository, registry)
	if err != nil {
		log.Fatalf("Failed to create Discord bot: %v", err)
	}

	// Start bot
	if err := bot.Start(); err != nil {
		log.Fatalf("Failed to start bot: %v", err)
	}
	defer bot.Stop()

	// Serve health, metrics, and the live dashboard feed
	go func() {
		if err := dashboard.Serve(cfg.DashboardAddr, registry); err != nil {
			log.Printf("Dashboard server stopped: %v", err)
		}
	}()

	// Wait for interrupt signal
	sc := make(chan os.Signal, 1)
	signal.Notify(sc, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	<-sc

	log.Println("Shutting down bot...")
}
