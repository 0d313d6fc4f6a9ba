// Package books provides persistence for book records.
//
// # Usage
//
//	repo := books.NewRepository(eng)
//	id, err := repo.Save(&entities.Book{Title: "The Tale of Peter Rabbit"})
package books

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/storyvoice/bookreader/internal/engine"
	"github.com/storyvoice/bookreader/internal/entities"
)

// Repository handles book record operations and keeps the updatedAt recency
// index in step with every write.
type Repository struct {
	eng *engine.Engine
}

// NewRepository creates a new book repository.
func NewRepository(eng *engine.Engine) *Repository {
	return &Repository{eng: eng}
}

// Save fills managed fields on a new book, refreshes UpdatedAt, and writes
// the record and its recency index entry in one atomic batch.
func (r *Repository) Save(book *entities.Book) (string, error) {
	prev, err := r.Get(book.BookID)
	if err != nil {
		return "", err
	}
	prevUpdated := int64(0)
	if prev != nil {
		prevUpdated = prev.UpdatedAt
	}

	batch := r.eng.NewBatch()
	if err := r.StagePut(batch, book, prevUpdated); err != nil {
		r.eng.Discard(batch)
		return "", err
	}
	if err := r.eng.Commit(batch); err != nil {
		return "", err
	}
	return book.BookID, nil
}

// StagePut fills managed fields, refreshes UpdatedAt, and stages the record
// plus the move of its recency index entry. prevUpdated is the UpdatedAt
// value currently indexed, zero for a new book. The caller commits.
func (r *Repository) StagePut(batch *engine.Batch, book *entities.Book, prevUpdated int64) error {
	now := time.Now().UnixMilli()
	if book.BookID == "" {
		book.BookID = uuid.NewString()
	}
	if book.CreatedAt == 0 {
		book.CreatedAt = now
	}
	if book.Pages == nil {
		book.Pages = []string{}
	}
	book.UpdatedAt = now

	if prevUpdated != 0 && prevUpdated != now {
		if err := batch.Delete(engine.BookUpdatedIndexKey(prevUpdated, book.BookID)); err != nil {
			return err
		}
	}
	if err := batch.Set(engine.BookUpdatedIndexKey(book.UpdatedAt, book.BookID), []byte(book.BookID)); err != nil {
		return err
	}
	return r.stageRecord(batch, book)
}

// StageRepair rewrites the record without touching UpdatedAt or the recency
// index. Reconciliation uses this so repairs do not look like user edits.
func (r *Repository) StageRepair(batch *engine.Batch, book *entities.Book) error {
	return r.stageRecord(batch, book)
}

func (r *Repository) stageRecord(batch *engine.Batch, book *entities.Book) error {
	data, err := json.Marshal(book)
	if err != nil {
		return fmt.Errorf("marshal book %s: %w", book.BookID, err)
	}
	return batch.Set(engine.BookKey(book.BookID), data)
}

// StageDelete stages removal of the record and its recency index entry.
func (r *Repository) StageDelete(batch *engine.Batch, book *entities.Book) error {
	if err := batch.Delete(engine.BookKey(book.BookID)); err != nil {
		return err
	}
	return batch.Delete(engine.BookUpdatedIndexKey(book.UpdatedAt, book.BookID))
}

// Get retrieves a book by id. A missing book is (nil, nil), not an error.
func (r *Repository) Get(bookID string) (*entities.Book, error) {
	if bookID == "" {
		return nil, nil
	}
	data, err := r.eng.Get(engine.BookKey(bookID))
	if errors.Is(err, engine.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var book entities.Book
	if err := json.Unmarshal(data, &book); err != nil {
		return nil, fmt.Errorf("unmarshal book %s: %w", bookID, err)
	}
	return &book, nil
}

// ListAll returns every book ordered by UpdatedAt descending, served from
// the recency index.
func (r *Repository) ListAll() ([]entities.Book, error) {
	var books []entities.Book
	err := r.eng.ScanReverse(engine.BookUpdatedIndexPrefix(), func(_, val []byte) error {
		book, err := r.Get(string(val))
		if err != nil {
			return err
		}
		if book != nil {
			books = append(books, *book)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return books, nil
}

// Delete removes a book by id. The caller must have removed the book's pages
// first; the cascade in internal/database enforces that precondition.
func (r *Repository) Delete(bookID string) error {
	book, err := r.Get(bookID)
	if err != nil {
		return err
	}
	if book == nil {
		return fmt.Errorf("book %s: %w", bookID, engine.ErrNotFound)
	}

	batch := r.eng.NewBatch()
	if err := r.StageDelete(batch, book); err != nil {
		r.eng.Discard(batch)
		return err
	}
	return r.eng.Commit(batch)
}
