package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/storyvoice/bookreader/internal/config"
	"github.com/storyvoice/bookreader/internal/database"
)

// Version information - set at build time via ldflags
var (
	Version = "dev"
	Commit  = "unknown"
)

func main() {
	cfg := config.NewConfig()
	logger := newLogger(cfg.Log.Level)

	command := "list"
	if len(os.Args) > 1 {
		command = os.Args[1]
	}

	store, err := database.Open(database.Options{
		Path:      cfg.Database.Path,
		Quota:     cfg.Database.QuotaBytes,
		Reconcile: cfg.Database.ReconcileOnOpen && command != "reconcile",
		Logger:    logger,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	switch command {
	case "list":
		books, err := store.ListBooks()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("bookreader %s (%s): %d book(s)\n", Version, Commit, len(books))
		for _, b := range books {
			fmt.Printf("  %s - %s by %s (%d pages)\n", b.BookID, b.Title, b.Author, len(b.Pages))
		}

	case "usage":
		u := store.EstimateUsage()
		if u.Quota > 0 {
			fmt.Printf("used %d of %d bytes\n", u.Used, u.Quota)
		} else {
			fmt.Printf("used %d bytes (no quota)\n", u.Used)
		}

	case "reconcile":
		if err := store.Reconcile(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

	case "reset":
		if err := store.Reset(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("store reset")

	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\nUsage: bookreader [list|usage|reconcile|reset]\n", command)
		os.Exit(1)
	}
}

func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(lvl).
		With().
		Timestamp().
		Logger()
}
