package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"croupier/cmd"
	"croupier/config"
	"croupier/database"
	"croupier/repository"
)

func main() {
	// Check for migration subcommands
	if len(os.Args) > 1 && os.Args[1] == "migrate" {
		if err := handleMigrationCommand(); err != nil {
			log.Fatal("Migration error:", err)
		}
		return
	}

	// Check for retention cleanup subcommand
	if len(os.Args) > 1 && os.Args[1] == "cleanup" {
		if err := handleCleanup(); err != nil {
			log.Fatal("Cleanup error:", err)
		}
		return
	}

	// Normal operation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Println("Received shutdown signal, shutting down gracefully...")
		cancel()
	}()

	// Run the application
	if err := cmd.Run(ctx); err != nil {
		log.Fatal("Application error:", err)
	}
}

func handleMigrationCommand() error {
	if len(os.Args) < 3 {
		return fmt.Errorf("usage: croupier migrate [up|down|status] [args...]")
	}

	command := os.Args[2]
	switch command {
	case "up":
		return database.MigrateUp()
	case "down":
		steps := "1"
		if len(os.Args) > 3 {
			steps = os.Args[3]
		}
		return database.MigrateDown(steps)
	case "status":
		return database.MigrateStatus()
	default:
		return fmt.Errorf("unknown migration command: %s", command)
	}
}

// handleCleanup runs one retention pass and exits, for operators who want
// pruning on an external schedule instead of the in-process worker
func handleCleanup() error {
	ctx := context.Background()
	cfg := config.Get()

	db, err := database.NewConnection(ctx, cfg.GetDatabaseURL())
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	consumedRepo := repository.NewConsumedTransactionRepository(db)
	deleted, err := consumedRepo.DeleteOlderThan(ctx, time.Duration(cfg.RetentionDays)*24*time.Hour)
	if err != nil {
		return fmt.Errorf("failed to prune consumed transactions: %w", err)
	}

	log.Printf("Pruned %d consumed transactions older than %d days", deleted, cfg.RetentionDays)
	return nil
}
