package pages

import (
	"path/filepath"
	"testing"

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

	page := &entities.Page{BookID: "b1", PageNumber: 1, OriginalText: "hello"}
	id, err := repo.Save(page)
	require.NoError(t, err)

	assert.NotEmpty(t, id)
	assert.Equal(t, id, page.PageID)
	assert.NotZero(t, page.CreatedAt)
	assert.NotZero(t, page.EditedAt)
	assert.NotNil(t, page.EditHistory)
}

func TestRepository_SaveAndGet(t *testing.T) {
	repo := setupTestRepo(t)

	id, err := repo.Save(&entities.Page{
		BookID:        "b1",
		PageNumber:    3,
		OriginalText:  "Once upon a time",
		OCRConfidence: 92.5,
	})
	require.NoError(t, err)

	got, err := repo.Get(id)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "b1", got.BookID)
	assert.Equal(t, 3, got.PageNumber)
	assert.Equal(t, "Once upon a time", got.OriginalText)
	assert.Equal(t, 92.5, got.OCRConfidence)
}

func TestRepository_GetMissingReturnsNil(t *testing.T) {
	repo := setupTestRepo(t)

	got, err := repo.Get("no-such-page")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRepository_ListByBookSortsByPageNumber(t *testing.T) {
	repo := setupTestRepo(t)

	// Insert out of order; listing sorts by page number.
	_, err := repo.Save(&entities.Page{BookID: "b1", PageNumber: 3})
	require.NoError(t, err)
	_, err = repo.Save(&entities.Page{BookID: "b1", PageNumber: 1})
	require.NoError(t, err)
	_, err = repo.Save(&entities.Page{BookID: "b1", PageNumber: 2})
	require.NoError(t, err)
	_, err = repo.Save(&entities.Page{BookID: "b2", PageNumber: 7})
	require.NoError(t, err)

	listed, err := repo.ListByBook("b1")
	require.NoError(t, err)
	require.Len(t, listed, 3)
	assert.Equal(t, 1, listed[0].PageNumber)
	assert.Equal(t, 2, listed[1].PageNumber)
	assert.Equal(t, 3, listed[2].PageNumber)
}

func TestRepository_IDsForBook(t *testing.T) {
	repo := setupTestRepo(t)

	p1, err := repo.Save(&entities.Page{BookID: "b1", PageNumber: 1})
	require.NoError(t, err)
	p2, err := repo.Save(&entities.Page{BookID: "b1", PageNumber: 2})
	require.NoError(t, err)
	_, err = repo.Save(&entities.Page{BookID: "b2", PageNumber: 1})
	require.NoError(t, err)

	ids, err := repo.IDsForBook("b1")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{p1, p2}, ids)

	ids, err = repo.IDsForBook("no-such-book")
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestRepository_Delete(t *testing.T) {
	repo := setupTestRepo(t)

	id, err := repo.Save(&entities.Page{BookID: "b1", PageNumber: 1})
	require.NoError(t, err)

	require.NoError(t, repo.Delete(id))

	got, err := repo.Get(id)
	require.NoError(t, err)
	assert.Nil(t, got)

	ids, err := repo.IDsForBook("b1")
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestRepository_DeleteMissing(t *testing.T) {
	repo := setupTestRepo(t)

	err := repo.Delete("no-such-page")
	assert.ErrorIs(t, err, engine.ErrNotFound)
}
