// Package pages provides persistence for page records, including the
// bookId membership index and the bounded edit history carried on each page.
package pages

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/storyvoice/bookreader/internal/engine"
	"github.com/storyvoice/bookreader/internal/entities"
)

// Repository handles page record operations and keeps the bookId membership
// index in step with every write.
type Repository struct {
	eng *engine.Engine
}

// NewRepository creates a new page repository.
func NewRepository(eng *engine.Engine) *Repository {
	return &Repository{eng: eng}
}

// Save fills managed fields and writes the record plus its membership index
// entry in one atomic batch. It does not touch the parent book; the cascade
// in internal/database does.
func (r *Repository) Save(page *entities.Page) (string, error) {
	batch := r.eng.NewBatch()
	if err := r.StagePut(batch, page); err != nil {
		r.eng.Discard(batch)
		return "", err
	}
	if err := r.eng.Commit(batch); err != nil {
		return "", err
	}
	return page.PageID, nil
}

// StagePut fills managed fields and stages the record and its membership
// index entry. The caller commits.
func (r *Repository) StagePut(batch *engine.Batch, page *entities.Page) error {
	now := time.Now().UnixMilli()
	if page.PageID == "" {
		page.PageID = uuid.NewString()
	}
	if page.CreatedAt == 0 {
		page.CreatedAt = now
	}
	if page.EditedAt == 0 {
		page.EditedAt = now
	}
	if page.EditHistory == nil {
		page.EditHistory = []entities.EditRecord{}
	}

	data, err := json.Marshal(page)
	if err != nil {
		return fmt.Errorf("marshal page %s: %w", page.PageID, err)
	}
	if err := batch.Set(engine.PageKey(page.PageID), data); err != nil {
		return err
	}
	return batch.Set(engine.PageBookIndexKey(page.BookID, page.PageID), []byte(page.PageID))
}

// StageDelete stages removal of the record and its membership index entry.
func (r *Repository) StageDelete(batch *engine.Batch, page *entities.Page) error {
	return r.StageDeleteByID(batch, page.BookID, page.PageID)
}

// StageDeleteByID stages removal without loading the record first. The
// book-delete cascade uses this to drop every child from the index alone.
func (r *Repository) StageDeleteByID(batch *engine.Batch, bookID, pageID string) error {
	if err := batch.Delete(engine.PageKey(pageID)); err != nil {
		return err
	}
	return batch.Delete(engine.PageBookIndexKey(bookID, pageID))
}

// Get retrieves a page by id. A missing page is (nil, nil), not an error.
func (r *Repository) Get(pageID string) (*entities.Page, error) {
	if pageID == "" {
		return nil, nil
	}
	data, err := r.eng.Get(engine.PageKey(pageID))
	if errors.Is(err, engine.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var page entities.Page
	if err := json.Unmarshal(data, &page); err != nil {
		return nil, fmt.Errorf("unmarshal page %s: %w", pageID, err)
	}
	return &page, nil
}

// IDsForBook returns the page ids recorded in the membership index for a
// book, in index order.
func (r *Repository) IDsForBook(bookID string) ([]string, error) {
	var ids []string
	err := r.eng.Scan(engine.PageBookIndexPrefix(bookID), func(_, val []byte) error {
		ids = append(ids, string(val))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// ListByBook returns a book's pages sorted ascending by page number.
func (r *Repository) ListByBook(bookID string) ([]entities.Page, error) {
	ids, err := r.IDsForBook(bookID)
	if err != nil {
		return nil, err
	}

	pages := make([]entities.Page, 0, len(ids))
	for _, id := range ids {
		page, err := r.Get(id)
		if err != nil {
			return nil, err
		}
		if page != nil {
			pages = append(pages, *page)
		}
	}

	sort.Slice(pages, func(i, j int) bool {
		return pages[i].PageNumber < pages[j].PageNumber
	})
	return pages, nil
}

// Delete removes a page and its membership index entry. It does not touch
// the parent book; the cascade in internal/database does.
func (r *Repository) Delete(pageID string) error {
	page, err := r.Get(pageID)
	if err != nil {
		return err
	}
	if page == nil {
		return fmt.Errorf("page %s: %w", pageID, engine.ErrNotFound)
	}

	batch := r.eng.NewBatch()
	if err := r.StageDelete(batch, page); err != nil {
		r.eng.Discard(batch)
		return err
	}
	return r.eng.Commit(batch)
}
