// Command generate_demo creates a demo store with sample scanned books.
// Usage: go run cmd/generate_demo/main.go [-db path/to/store]
package main

import (
	"flag"
	"os"

	"github.com/rs/zerolog"

	"github.com/storyvoice/bookreader/internal/config"
	"github.com/storyvoice/bookreader/internal/database"
	"github.com/storyvoice/bookreader/internal/entities"
)

func main() {
	dbPath := flag.String("db", config.DefaultDemoDatabasePath, "path to the demo store directory")
	flag.Parse()

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	logger.Info().Str("path", *dbPath).Msg("generating demo store")

	// Start fresh
	if err := os.RemoveAll(*dbPath); err != nil {
		logger.Fatal().Err(err).Msg("failed to remove existing demo store")
	}

	store, err := database.Open(database.Options{Path: *dbPath, Logger: logger})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open demo store")
	}
	defer store.Close()

	for _, demo := range demoBooks() {
		if err := demo.Book.Validate(); err != nil {
			logger.Fatal().Err(err).Msg("demo book failed validation")
		}
		bookID, err := store.SaveBook(&demo.Book)
		if err != nil {
			logger.Error().Err(err).Str("title", demo.Book.Title).Msg("failed to save book")
			continue
		}

		for _, page := range demo.Pages {
			page.BookID = bookID
			if err := page.Validate(); err != nil {
				logger.Fatal().Err(err).Msg("demo page failed validation")
			}
			pageID, err := store.SavePage(&page)
			if err != nil {
				logger.Error().Err(err).Int("page", page.PageNumber).Msg("failed to save page")
				continue
			}
			if edited, ok := demo.Edits[page.PageNumber]; ok {
				if err := store.UpdatePageText(pageID, edited); err != nil {
					logger.Error().Err(err).Str("page", pageID).Msg("failed to apply demo edit")
				}
			}
		}
		logger.Info().Str("title", demo.Book.Title).Int("pages", len(demo.Pages)).Msg("saved")
	}

	speed := 1.2
	autoPlay := true
	lang := "en"
	if err := store.SavePreferences(entities.PreferencesPatch{
		TTSSpeed:    &speed,
		TTSAutoPlay: &autoPlay,
		UILanguage:  &lang,
		TTSLanguage: &lang,
	}); err != nil {
		logger.Error().Err(err).Msg("failed to save demo preferences")
	}

	logger.Info().Msg("demo store generated successfully")
}

// DemoBook holds a book, its pages, and edits keyed by page number.
type DemoBook struct {
	Book  entities.Book
	Pages []entities.Page
	Edits map[int]string
}

func demoBooks() []DemoBook {
	return []DemoBook{
		// Beatrix Potter - The Tale of Peter Rabbit (Public Domain)
		{
			Book: entities.Book{
				Title:     "The Tale of Peter Rabbit",
				Author:    "Beatrix Potter",
				Publisher: "Frederick Warne & Co.",
			},
			Pages: []entities.Page{
				{
					PageNumber:    1,
					OriginalText:  "Once upon a time there were four little Rabbits, and their names were Flopsy, Mopsy, Cotton-tail, and Peter.",
					OCRConfidence: 96.4,
				},
				{
					PageNumber:    2,
					OriginalText:  "They lived with their Mother in a sand-bank, underneath the root of a very big fir-tree.",
					OCRConfidence: 94.1,
				},
				{
					PageNumber:    3,
					OriginalText:  "Now, my dears, said old Mrs. Rabbit one morning, you may go into the fields or down the lane, but dont go into Mr. McGregors garden.",
					OCRConfidence: 81.7,
				},
			},
			// Fix the apostrophes the recognizer dropped on the low-confidence page.
			Edits: map[int]string{
				3: "\"Now, my dears,\" said old Mrs. Rabbit one morning, \"you may go into the fields or down the lane, but don't go into Mr. McGregor's garden.\"",
			},
		},
		// Hans Christian Andersen - The Ugly Duckling (Public Domain)
		{
			Book: entities.Book{
				Title:  "The Ugly Duckling",
				Author: "Hans Christian Andersen",
			},
			Pages: []entities.Page{
				{
					PageNumber:    1,
					OriginalText:  "It was lovely summer weather in the country, and the golden corn, the green oats, and the haystacks piled up in the meadows looked beautiful.",
					OCRConfidence: 97.2,
				},
				{
					PageNumber:    2,
					OriginalText:  "In a sunny spot stood a pleasant old farm-house close by a deep river.",
					OCRConfidence: 95.8,
				},
			},
		},
	}
}
