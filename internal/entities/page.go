package entities

// EditHistoryCapacity bounds the per-page edit history. On overflow the
// oldest entry is dropped.
const EditHistoryCapacity = 5

// EditRecord is one retained pre-edit text version.
type EditRecord struct {
	Version  int    `json:"version"`
	Text     string `json:"text"`
	EditedAt int64  `json:"edited_at"` // unix millis
}

// Page is one recognized page of a book.
type Page struct {
	PageID         string       `json:"page_id"`
	BookID         string       `json:"book_id"`
	PageNumber     int          `json:"page_number"`
	OriginalImage  string       `json:"original_image,omitempty"`  // blob reference
	ThumbnailImage string       `json:"thumbnail_image,omitempty"` // blob reference
	OriginalText   string       `json:"original_text"`
	EditedText     string       `json:"edited_text,omitempty"`
	OCRConfidence  float64      `json:"ocr_confidence"` // 0-100
	CreatedAt      int64        `json:"created_at"`     // unix millis
	EditedAt       int64        `json:"edited_at"`      // unix millis
	EditHistory    []EditRecord `json:"edit_history"`
}

// CurrentText returns the edited text when set, falling back to the OCR text.
func (p *Page) CurrentText() string {
	if p.EditedText != "" {
		return p.EditedText
	}
	return p.OriginalText
}

// ApplyEdit pushes the pre-edit text onto the bounded history and installs
// newText. Versions keep counting past the history capacity, so after more
// than EditHistoryCapacity edits the retained entries form a sliding window
// of consecutive version numbers (6 edits leave versions 2..6).
func (p *Page) ApplyEdit(newText string, at int64) {
	next := 1
	if n := len(p.EditHistory); n > 0 {
		next = p.EditHistory[n-1].Version + 1
	}
	rec := EditRecord{Version: next, Text: p.CurrentText(), EditedAt: at}

	if len(p.EditHistory) < EditHistoryCapacity {
		p.EditHistory = append(p.EditHistory, rec)
	} else {
		copy(p.EditHistory, p.EditHistory[1:])
		p.EditHistory[len(p.EditHistory)-1] = rec
	}

	p.EditedText = newText
	p.EditedAt = at
}

// Validate checks caller-level constraints. The store never calls this.
func (p *Page) Validate() error {
	if p.BookID == "" {
		return &ValidationError{Field: "book_id", Reason: "must reference a book"}
	}
	if p.PageNumber < 1 {
		return &ValidationError{Field: "page_number", Reason: "must be positive"}
	}
	if p.OCRConfidence < 0 || p.OCRConfidence > 100 {
		return &ValidationError{Field: "ocr_confidence", Reason: "must be between 0 and 100"}
	}
	return nil
}
