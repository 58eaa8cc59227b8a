package ingestion

import (
	"strings"
)

// Parser turns a raw document file into plain text plus a page count.
// Implementations for formats beyond plain text live outside this module;
// the pipeline only depends on this interface.
type Parser interface {
	Parse(raw []byte, filename string) (text string, pageCount int, err error)
}

// TextParser parses plain-text files. Form feeds are treated as page
// separators, so the page count is the number of form-feed-delimited
// sections, minimum 1.
type TextParser struct{}

var _ Parser = (*TextParser)(nil)

// Parse returns the file contents unchanged and counts pages by form feeds.
func (TextParser) Parse(raw []byte, _ string) (string, int, error) {
	text := string(raw)
	pageCount := strings.Count(text, "\f") + 1
	return text, pageCount, nil
}

// pageNumberAt returns the 1-based page a byte offset falls on, counting
// form feeds before it.
func pageNumberAt(text string, offset int) int {
	if offset < 0 {
		return 1
	}
	if offset > len(text) {
		offset = len(text)
	}
	return strings.Count(text[:offset], "\f") + 1
}
