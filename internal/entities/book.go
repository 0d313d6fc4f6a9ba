package entities

// Book is one scanned work: metadata plus the membership set of its page ids.
// Display order of pages comes from Page.PageNumber, not from the Pages slice.
type Book struct {
	BookID     string   `json:"book_id"`
	Title      string   `json:"title"`
	Author     string   `json:"author"`
	Publisher  string   `json:"publisher,omitempty"`
	CoverImage string   `json:"cover_image,omitempty"` // blob reference
	CreatedAt  int64    `json:"created_at"`            // unix millis
	UpdatedAt  int64    `json:"updated_at"`            // unix millis
	Pages      []string `json:"pages"`
}

// HasPage reports whether pageID is already a member of the book.
func (b *Book) HasPage(pageID string) bool {
	for _, id := range b.Pages {
		if id == pageID {
			return true
		}
	}
	return false
}

// AddPage appends pageID to the membership set. Returns false if the id was
// already present, so re-saving a page never duplicates the entry.
func (b *Book) AddPage(pageID string) bool {
	if b.HasPage(pageID) {
		return false
	}
	b.Pages = append(b.Pages, pageID)
	return true
}

// RemovePage removes pageID from the membership set. Returns false if the id
// was not present.
func (b *Book) RemovePage(pageID string) bool {
	for i, id := range b.Pages {
		if id == pageID {
			b.Pages = append(b.Pages[:i], b.Pages[i+1:]...)
			return true
		}
	}
	return false
}

// Validate checks caller-level constraints. The store never calls this.
func (b *Book) Validate() error {
	if b.Title == "" {
		return &ValidationError{Field: "title", Reason: "must not be empty"}
	}
	return nil
}
