package books

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storyvoice/bookreader/internal/engine"
	"github.com/storyvoice/bookreader/internal/entities"
)

func setupTestRepo(t *testing.T) *Repository {
	t.Helper()
	eng, err := engine.Open(engine.Options{
		Path:   filepath.Join(t.TempDir(), "store"),
		Logger: zerolog.Nop(),
	})
	require.NoError(t, err)
	t.Cleanup(func() { eng.Close() })
	return NewRepository(eng)
}

func TestRepository_SaveFillsManagedFields(t *testing.T) {
	repo := setupTestRepo(t)

	book := &entities.Book{Title: "The Tale of Peter Rabbit", Author: "Beatrix Potter"}
	id, err := repo.Save(book)
	require.NoError(t, err)

	assert.NotEmpty(t, id)
	assert.Equal(t, id, book.BookID)
	assert.NotZero(t, book.CreatedAt)
	assert.NotZero(t, book.UpdatedAt)
	assert.NotNil(t, book.Pages)
}

func TestRepository_SaveAndGet(t *testing.T) {
	repo := setupTestRepo(t)

	id, err := repo.Save(&entities.Book{Title: "The Ugly Duckling", Author: "H.C. Andersen"})
	require.NoError(t, err)

	got, err := repo.Get(id)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "The Ugly Duckling", got.Title)
	assert.Equal(t, "H.C. Andersen", got.Author)
	assert.Equal(t, []string{}, got.Pages)
}

func TestRepository_GetMissingReturnsNil(t *testing.T) {
	repo := setupTestRepo(t)

	got, err := repo.Get("no-such-book")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRepository_ListAllOrdersByRecency(t *testing.T) {
	repo := setupTestRepo(t)

	first, err := repo.Save(&entities.Book{Title: "first"})
	require.NoError(t, err)
	time.Sleep(2 * time.Millisecond)
	second, err := repo.Save(&entities.Book{Title: "second"})
	require.NoError(t, err)
	time.Sleep(2 * time.Millisecond)
	third, err := repo.Save(&entities.Book{Title: "third"})
	require.NoError(t, err)

	books, err := repo.ListAll()
	require.NoError(t, err)
	require.Len(t, books, 3)
	assert.Equal(t, third, books[0].BookID)
	assert.Equal(t, second, books[1].BookID)
	assert.Equal(t, first, books[2].BookID)
}

func TestRepository_ResaveMovesBookToFront(t *testing.T) {
	repo := setupTestRepo(t)

	first, err := repo.Save(&entities.Book{Title: "first"})
	require.NoError(t, err)
	time.Sleep(2 * time.Millisecond)
	_, err = repo.Save(&entities.Book{Title: "second"})
	require.NoError(t, err)
	time.Sleep(2 * time.Millisecond)

	updated, err := repo.Get(first)
	require.NoError(t, err)
	updated.Title = "first, revised"
	_, err = repo.Save(updated)
	require.NoError(t, err)

	books, err := repo.ListAll()
	require.NoError(t, err)
	require.Len(t, books, 2)
	assert.Equal(t, first, books[0].BookID)
	assert.Equal(t, "first, revised", books[0].Title)
}

func TestRepository_Delete(t *testing.T) {
	repo := setupTestRepo(t)

	id, err := repo.Save(&entities.Book{Title: "short-lived"})
	require.NoError(t, err)

	require.NoError(t, repo.Delete(id))

	got, err := repo.Get(id)
	require.NoError(t, err)
	assert.Nil(t, got)

	books, err := repo.ListAll()
	require.NoError(t, err)
	assert.Empty(t, books)
}

func TestRepository_DeleteMissing(t *testing.T) {
	repo := setupTestRepo(t)

	err := repo.Delete("no-such-book")
	assert.ErrorIs(t, err, engine.ErrNotFound)
}
