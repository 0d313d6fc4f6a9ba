// Package database provides the persistence layer for the application.
//
// # Architecture
//
// The layer is organized into a facade plus domain-specific sub-packages:
//
//	database/
//	├── database.go      # Store facade: open/close, cascades, reconciliation
//	├── books/           # Book records + updatedAt recency index
//	├── pages/           # Page records + bookId membership index, edit history
//	└── preferences/     # Singleton user settings row
//
// The underlying keyed engine (internal/engine) gives atomicity only for a
// single committed batch. Everything that must stay consistent across the
// Books and Pages collections - attaching a saved page to its book, deleting
// a book together with its pages, detaching a deleted page - therefore goes
// through the Store facade, which stages the whole cascade into one batch
// and commits it atomically under the store mutex.
//
// # Using Sub-packages
//
// Each sub-package provides a Repository type for callers that only need
// one collection and no cascade semantics:
//
//	eng, err := engine.Open(engine.Options{Path: "./store"})
//	booksRepo := books.NewRepository(eng)
//	book, err := booksRepo.Get(bookID)
//
// Mutations that touch both collections must use the Store facade instead.
package database
