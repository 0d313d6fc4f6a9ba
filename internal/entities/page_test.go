package entities

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPage_CurrentText(t *testing.T) {
	page := Page{OriginalText: "hello"}
	assert.Equal(t, "hello", page.CurrentText())

	page.EditedText = "Hello!"
	assert.Equal(t, "Hello!", page.CurrentText())
}

func TestPage_ApplyEdit_RecordsPreEditText(t *testing.T) {
	page := Page{OriginalText: "hello"}

	page.ApplyEdit("Hello!", 1000)

	require.Len(t, page.EditHistory, 1)
	assert.Equal(t, 1, page.EditHistory[0].Version)
	assert.Equal(t, "hello", page.EditHistory[0].Text)
	assert.Equal(t, int64(1000), page.EditHistory[0].EditedAt)
	assert.Equal(t, "Hello!", page.EditedText)
	assert.Equal(t, int64(1000), page.EditedAt)
}

func TestPage_ApplyEdit_SecondEditRecordsFirstEdit(t *testing.T) {
	page := Page{OriginalText: "hello"}

	page.ApplyEdit("first", 1000)
	page.ApplyEdit("second", 2000)

	require.Len(t, page.EditHistory, 2)
	assert.Equal(t, "hello", page.EditHistory[0].Text)
	assert.Equal(t, "first", page.EditHistory[1].Text)
	assert.Equal(t, 2, page.EditHistory[1].Version)
}

func TestPage_ApplyEdit_BoundedWindow(t *testing.T) {
	page := Page{OriginalText: "v0"}

	// Six edits from empty history leave versions 2..6.
	for i := 1; i <= 6; i++ {
		page.ApplyEdit("edit", int64(i*1000))
	}

	require.Len(t, page.EditHistory, EditHistoryCapacity)
	for i, rec := range page.EditHistory {
		assert.Equal(t, i+2, rec.Version)
	}
}

func TestPage_ApplyEdit_WindowStaysConsecutive(t *testing.T) {
	page := Page{OriginalText: "v0"}

	for i := 1; i <= 9; i++ {
		page.ApplyEdit("edit", int64(i*1000))
	}

	require.Len(t, page.EditHistory, EditHistoryCapacity)
	versions := make([]int, 0, EditHistoryCapacity)
	for _, rec := range page.EditHistory {
		versions = append(versions, rec.Version)
	}
	assert.Equal(t, []int{5, 6, 7, 8, 9}, versions)
}

func TestPage_Validate(t *testing.T) {
	tests := []struct {
		name    string
		page    Page
		wantErr bool
	}{
		{"valid", Page{BookID: "b1", PageNumber: 1, OCRConfidence: 90}, false},
		{"missing book", Page{PageNumber: 1}, true},
		{"zero page number", Page{BookID: "b1", PageNumber: 0}, true},
		{"confidence too high", Page{BookID: "b1", PageNumber: 1, OCRConfidence: 101}, true},
		{"confidence negative", Page{BookID: "b1", PageNumber: 1, OCRConfidence: -1}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.page.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestBook_AddPage_Idempotent(t *testing.T) {
	book := Book{}

	assert.True(t, book.AddPage("p1"))
	assert.False(t, book.AddPage("p1"))
	assert.Equal(t, []string{"p1"}, book.Pages)
}

func TestBook_RemovePage(t *testing.T) {
	book := Book{Pages: []string{"p1", "p2", "p3"}}

	assert.True(t, book.RemovePage("p2"))
	assert.Equal(t, []string{"p1", "p3"}, book.Pages)
	assert.False(t, book.RemovePage("p2"))
}
