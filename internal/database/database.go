package database

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/storyvoice/bookreader/internal/database/books"
	"github.com/storyvoice/bookreader/internal/database/pages"
	"github.com/storyvoice/bookreader/internal/database/preferences"
	"github.com/storyvoice/bookreader/internal/engine"
	"github.com/storyvoice/bookreader/internal/entities"
)

// ErrNotFound is re-exported so callers can branch on absence without
// importing the engine package.
var ErrNotFound = engine.ErrNotFound

// Options configures the store.
type Options struct {
	// Path is the directory holding the store.
	Path string

	// Quota is the disk budget in bytes. Zero disables quota checks.
	Quota int64

	// Reconcile runs the orphan purge and membership repair pass at open.
	Reconcile bool

	Logger zerolog.Logger
}

// Store is the single handle on the persistence layer. It owns the engine
// and the per-entity repositories and coordinates every operation that spans
// the Books and Pages collections: each cascade reads under the store mutex
// and commits as one atomic engine batch, so partially applied cascades
// cannot be observed or persisted.
type Store struct {
	eng   *engine.Engine
	books *books.Repository
	pages *pages.Repository
	prefs *preferences.Repository
	log   zerolog.Logger

	// mu serializes read-modify-write cycles against the parent book, which
	// closes the concurrent-AddPage lost-update window.
	mu sync.Mutex
}

// Open opens the store, verifying the schema version and optionally running
// reconciliation.
func Open(opts Options) (*Store, error) {
	eng, err := engine.Open(engine.Options{
		Path:   opts.Path,
		Quota:  opts.Quota,
		Logger: opts.Logger,
	})
	if err != nil {
		return nil, err
	}

	s := &Store{
		eng:   eng,
		books: books.NewRepository(eng),
		pages: pages.NewRepository(eng),
		prefs: preferences.NewRepository(eng),
		log:   opts.Logger,
	}

	if opts.Reconcile {
		if err := s.Reconcile(); err != nil {
			eng.Close()
			return nil, fmt.Errorf("reconcile on open: %w", err)
		}
	}

	s.log.Info().Str("path", opts.Path).Msg("store opened")
	return s, nil
}

// Close releases the store. Callers must not have operations outstanding.
func (s *Store) Close() error {
	return s.eng.Close()
}

// SaveBook creates or updates a book and returns its id.
func (s *Store) SaveBook(book *entities.Book) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.books.Save(book)
}

// GetBook retrieves a book by id. A missing book is (nil, nil).
func (s *Store) GetBook(bookID string) (*entities.Book, error) {
	return s.books.Get(bookID)
}

// ListBooks returns all books ordered by UpdatedAt descending.
func (s *Store) ListBooks() ([]entities.Book, error) {
	return s.books.ListAll()
}

// SavePage persists a page and attaches it to its parent book: the page id
// joins Book.Pages (idempotently) and the book's UpdatedAt is refreshed.
// Fails with ErrNotFound when the parent book does not exist.
func (s *Store) SavePage(page *entities.Page) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	book, err := s.books.Get(page.BookID)
	if err != nil {
		return "", err
	}
	if book == nil {
		return "", fmt.Errorf("book %s: %w", page.BookID, ErrNotFound)
	}

	batch := s.eng.NewBatch()
	if err := s.pages.StagePut(batch, page); err != nil {
		s.eng.Discard(batch)
		return "", err
	}
	if book.AddPage(page.PageID) {
		if err := s.books.StagePut(batch, book, book.UpdatedAt); err != nil {
			s.eng.Discard(batch)
			return "", err
		}
	}
	if err := s.eng.Commit(batch); err != nil {
		return "", err
	}

	s.log.Debug().Str("page", page.PageID).Str("book", page.BookID).Msg("page saved")
	return page.PageID, nil
}

// GetPage retrieves a page by id. A missing page is (nil, nil).
func (s *Store) GetPage(pageID string) (*entities.Page, error) {
	return s.pages.Get(pageID)
}

// ListPagesForBook returns a book's pages sorted ascending by page number.
func (s *Store) ListPagesForBook(bookID string) ([]entities.Page, error) {
	return s.pages.ListByBook(bookID)
}

// UpdatePageText records the pre-edit text in the page's bounded history,
// installs the new text, and refreshes the parent book's UpdatedAt. A
// missing parent book degrades to a no-op on the book step only.
func (s *Store) UpdatePageText(pageID, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	page, err := s.pages.Get(pageID)
	if err != nil {
		return err
	}
	if page == nil {
		return fmt.Errorf("page %s: %w", pageID, ErrNotFound)
	}

	page.ApplyEdit(text, time.Now().UnixMilli())

	batch := s.eng.NewBatch()
	if err := s.pages.StagePut(batch, page); err != nil {
		s.eng.Discard(batch)
		return err
	}
	if err := s.stageParentTouch(batch, page.BookID); err != nil {
		s.eng.Discard(batch)
		return err
	}
	return s.eng.Commit(batch)
}

// DeletePage removes a page and detaches it from its parent book. A missing
// parent book degrades to a no-op on the book step only.
func (s *Store) DeletePage(pageID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	page, err := s.pages.Get(pageID)
	if err != nil {
		return err
	}
	if page == nil {
		return fmt.Errorf("page %s: %w", pageID, ErrNotFound)
	}

	batch := s.eng.NewBatch()
	if err := s.pages.StageDelete(batch, page); err != nil {
		s.eng.Discard(batch)
		return err
	}

	book, err := s.books.Get(page.BookID)
	if err != nil {
		s.eng.Discard(batch)
		return err
	}
	if book != nil {
		book.RemovePage(pageID)
		if err := s.books.StagePut(batch, book, book.UpdatedAt); err != nil {
			s.eng.Discard(batch)
			return err
		}
	}

	if err := s.eng.Commit(batch); err != nil {
		return err
	}
	s.log.Debug().Str("page", pageID).Msg("page deleted")
	return nil
}

// DeleteBook removes a book and every page belonging to it in one atomic
// batch, so no orphan pages can survive the cascade.
func (s *Store) DeleteBook(bookID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	book, err := s.books.Get(bookID)
	if err != nil {
		return err
	}
	if book == nil {
		return fmt.Errorf("book %s: %w", bookID, ErrNotFound)
	}

	ids, err := s.pages.IDsForBook(bookID)
	if err != nil {
		return err
	}

	batch := s.eng.NewBatch()
	for _, pageID := range ids {
		if err := s.pages.StageDeleteByID(batch, bookID, pageID); err != nil {
			s.eng.Discard(batch)
			return err
		}
	}
	if err := s.books.StageDelete(batch, book); err != nil {
		s.eng.Discard(batch)
		return err
	}
	if err := s.eng.Commit(batch); err != nil {
		return err
	}

	s.log.Info().Str("book", bookID).Int("pages", len(ids)).Msg("book deleted")
	return nil
}

// SavePreferences merges the patch onto the stored row.
func (s *Store) SavePreferences(patch entities.PreferencesPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.prefs.Save(patch)
}

// GetPreferences retrieves the stored preferences, nil when never saved.
func (s *Store) GetPreferences() (*entities.Preferences, error) {
	return s.prefs.Get()
}

// EstimateUsage reports disk consumption against the configured quota.
func (s *Store) EstimateUsage() engine.Usage {
	return s.eng.EstimateUsage()
}

// Reset drops all collections. For tests and support tooling.
func (s *Store) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.eng.Reset()
}

// stageParentTouch refreshes a book's UpdatedAt, or does nothing when the
// book no longer exists.
func (s *Store) stageParentTouch(batch *engine.Batch, bookID string) error {
	book, err := s.books.Get(bookID)
	if err != nil {
		return err
	}
	if book == nil {
		return nil
	}
	return s.books.StagePut(batch, book, book.UpdatedAt)
}

// Reconcile purges pages whose book no longer exists, drops dangling
// membership index entries, and repairs each book's Pages set against the
// index. Normal cascades commit atomically, so this only finds damage left
// by crashes of older builds or external tampering. Idempotent.
func (s *Store) Reconcile() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Enumerate books from the raw records, not the recency index, so a
	// damaged index cannot make live books look deleted.
	known := map[string]*entities.Book{}
	err := s.eng.Scan(engine.BookRecordPrefix(), func(_, val []byte) error {
		book := new(entities.Book)
		if err := json.Unmarshal(val, book); err != nil {
			return fmt.Errorf("unmarshal book record: %w", err)
		}
		known[book.BookID] = book
		return nil
	})
	if err != nil {
		return err
	}

	batch := s.eng.NewBatch()

	// Recency index: drop entries with no matching record or a stale
	// timestamp, and restore entries that are missing.
	indexed := map[string]bool{}
	err = s.eng.Scan(engine.BookUpdatedIndexPrefix(), func(key, _ []byte) error {
		updatedAt, bookID, ok := engine.SplitBookUpdatedIndexKey(key)
		if !ok {
			return nil
		}
		book := known[bookID]
		if book == nil || book.UpdatedAt != updatedAt {
			return batch.Delete(key)
		}
		indexed[bookID] = true
		return nil
	})
	if err != nil {
		s.eng.Discard(batch)
		return err
	}
	for id, book := range known {
		if !indexed[id] {
			if err := batch.Set(engine.BookUpdatedIndexKey(book.UpdatedAt, id), []byte(id)); err != nil {
				s.eng.Discard(batch)
				return err
			}
		}
	}

	orphans := 0
	livePages := map[string]map[string]bool{} // bookID -> page id set

	err = s.eng.Scan(engine.PageRecordPrefix(), func(_, val []byte) error {
		var page entities.Page
		if err := json.Unmarshal(val, &page); err != nil {
			return fmt.Errorf("unmarshal page record: %w", err)
		}
		if known[page.BookID] == nil {
			orphans++
			return s.pages.StageDeleteByID(batch, page.BookID, page.PageID)
		}
		if livePages[page.BookID] == nil {
			livePages[page.BookID] = map[string]bool{}
		}
		livePages[page.BookID][page.PageID] = true
		return nil
	})
	if err != nil {
		s.eng.Discard(batch)
		return err
	}

	// Membership index entries whose page record is gone.
	err = s.eng.Scan(engine.PageBookIndexAllPrefix(), func(key, val []byte) error {
		bookID, pageID, ok := engine.SplitPageBookIndexKey(key)
		if !ok {
			return nil
		}
		if set := livePages[bookID]; set != nil && set[pageID] {
			return nil
		}
		return batch.Delete(key)
	})
	if err != nil {
		s.eng.Discard(batch)
		return err
	}

	repaired := 0
	for id, book := range known {
		want := livePages[id]
		if sameMembership(book.Pages, want) {
			continue
		}
		book.Pages = rebuildMembership(book.Pages, want)
		if err := s.books.StageRepair(batch, book); err != nil {
			s.eng.Discard(batch)
			return err
		}
		repaired++
	}

	if batch.Len() == 0 {
		s.eng.Discard(batch)
		return nil
	}
	if err := s.eng.Commit(batch); err != nil {
		return err
	}

	s.log.Info().
		Int("orphan_pages", orphans).
		Int("books_repaired", repaired).
		Msg("reconciliation applied")
	return nil
}

// sameMembership reports whether the ordered slice holds exactly the set.
func sameMembership(have []string, want map[string]bool) bool {
	if len(have) != len(want) {
		return false
	}
	seen := map[string]bool{}
	for _, id := range have {
		if !want[id] || seen[id] {
			return false
		}
		seen[id] = true
	}
	return true
}

// rebuildMembership keeps the existing order for ids that survive and
// appends ids the book record was missing.
func rebuildMembership(have []string, want map[string]bool) []string {
	out := make([]string, 0, len(want))
	seen := map[string]bool{}
	for _, id := range have {
		if want[id] && !seen[id] {
			out = append(out, id)
			seen[id] = true
		}
	}
	var missing []string
	for id := range want {
		if !seen[id] {
			missing = append(missing, id)
		}
	}
	sort.Strings(missing)
	return append(out, missing...)
}
