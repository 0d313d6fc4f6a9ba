package engine

import (
	"fmt"
	"strconv"
	"strings"
)

// Key schema:
//   book:<bookId>                          -> Book JSON
//   page:<pageId>                          -> Page JSON
//   pref:<userId>                          -> Preferences JSON
//   idx:book:updated:<%020d millis>:<bookId> -> bookId (recency ordering)
//   idx:page:book:<bookId>:<pageId>        -> pageId  (book membership)
//   meta:schema                            -> schema version
const (
	bookPrefix        = "book:"
	pagePrefix        = "page:"
	prefPrefix        = "pref:"
	bookUpdatedPrefix = "idx:book:updated:"
	pageBookPrefix    = "idx:page:book:"
)

// BookKey returns the record key for a book.
func BookKey(bookID string) []byte {
	return []byte(bookPrefix + bookID)
}

// BookRecordPrefix returns the scan prefix for all book records.
func BookRecordPrefix() []byte {
	return []byte(bookPrefix)
}

// PageKey returns the record key for a page.
func PageKey(pageID string) []byte {
	return []byte(pagePrefix + pageID)
}

// PageRecordPrefix returns the scan prefix for all page records.
func PageRecordPrefix() []byte {
	return []byte(pagePrefix)
}

// PreferencesKey returns the record key for a preferences row.
func PreferencesKey(userID string) []byte {
	return []byte(prefPrefix + userID)
}

// BookUpdatedIndexKey returns the recency index key for a book. The zero-
// padded millisecond timestamp makes lexicographic order equal time order.
func BookUpdatedIndexKey(updatedAt int64, bookID string) []byte {
	return []byte(fmt.Sprintf("%s%020d:%s", bookUpdatedPrefix, updatedAt, bookID))
}

// BookUpdatedIndexPrefix returns the scan prefix for the recency index.
func BookUpdatedIndexPrefix() []byte {
	return []byte(bookUpdatedPrefix)
}

// PageBookIndexKey returns the membership index key tying a page to its book.
func PageBookIndexKey(bookID, pageID string) []byte {
	return []byte(pageBookPrefix + bookID + ":" + pageID)
}

// PageBookIndexPrefix returns the scan prefix for one book's membership keys.
func PageBookIndexPrefix(bookID string) []byte {
	return []byte(pageBookPrefix + bookID + ":")
}

// PageBookIndexAllPrefix returns the scan prefix for every membership key.
func PageBookIndexAllPrefix() []byte {
	return []byte(pageBookPrefix)
}

// SplitBookUpdatedIndexKey recovers the indexed timestamp and book id from a
// recency index key. ok is false for keys that do not match the schema.
func SplitBookUpdatedIndexKey(key []byte) (updatedAt int64, bookID string, ok bool) {
	rest, found := strings.CutPrefix(string(key), bookUpdatedPrefix)
	if !found {
		return 0, "", false
	}
	ts, bookID, found := strings.Cut(rest, ":")
	if !found || bookID == "" {
		return 0, "", false
	}
	updatedAt, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return 0, "", false
	}
	return updatedAt, bookID, true
}

// SplitPageBookIndexKey recovers the book and page ids from a membership
// index key. ok is false for keys that do not match the schema.
func SplitPageBookIndexKey(key []byte) (bookID, pageID string, ok bool) {
	rest, found := strings.CutPrefix(string(key), pageBookPrefix)
	if !found {
		return "", "", false
	}
	bookID, pageID, found = strings.Cut(rest, ":")
	if !found || bookID == "" || pageID == "" {
		return "", "", false
	}
	return bookID, pageID, true
}
