package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// VocabEntry is one word annotation inside a sentence. Only complete entries
// (word, romanization and meaning all present) are aggregated.
type VocabEntry struct {
	Word         string `json:"word"`
	Romanization string `json:"romanization"`
	Meaning      string `json:"meaning"`
	// Guessed marks entries produced by the fallback guesser rather than
	// read from the AI vocabulary table.
	Guessed bool `json:"guessed,omitempty"`
}

// IsComplete reports whether all three required fields are non-blank.
func (v VocabEntry) IsComplete() bool {
	return strings.TrimSpace(v.Word) != "" &&
		strings.TrimSpace(v.Romanization) != "" &&
		strings.TrimSpace(v.Meaning) != ""
}

// SentenceAnnotation is one analysed sentence embedded in a ParseRecord.
type SentenceAnnotation struct {
	OriginalText string       `json:"originalText"`
	Romaji       string       `json:"romaji,omitempty"`
	Translation  string       `json:"translation,omitempty"`
	Structure    string       `json:"structure,omitempty"`
	Analysis     string       `json:"analysis,omitempty"`
	Grammar      string       `json:"grammar,omitempty"`
	Vocabulary   []VocabEntry `json:"vocabulary,omitempty"`
}

// HasText reports whether the sentence carries source text and therefore counts.
func (s SentenceAnnotation) HasText() bool {
	return strings.TrimSpace(s.OriginalText) != ""
}

// ParseRecord is one stored analysis result. Records are append-only.
type ParseRecord struct {
	ID           uuid.UUID
	Title        string
	ArticleTitle string
	Sentences    []SentenceAnnotation
	RawText      string
	CreatedAt    time.Time
}

// DefaultRecordLabel is used as an example's source label when a record has no title.
const DefaultRecordLabel = "日语解析"

// Label returns the human-readable source label for examples taken from this record.
func (r ParseRecord) Label() string {
	if t := strings.TrimSpace(r.Title); t != "" {
		return t
	}
	if t := strings.TrimSpace(r.ArticleTitle); t != "" {
		return t
	}
	return DefaultRecordLabel
}

// RecordCursor is a keyset position in the (created_at desc, id desc) ordering of records.
type RecordCursor struct {
	CreatedAt time.Time
	ID        uuid.UUID
}

// Before reports whether r sorts after the cursor position, i.e. belongs to the next page.
func (c RecordCursor) Before(r ParseRecord) bool {
	if r.CreatedAt.Equal(c.CreatedAt) {
		return r.ID.String() < c.ID.String()
	}
	return r.CreatedAt.Before(c.CreatedAt)
}

// CursorOf returns the cursor positioned at r.
func CursorOf(r ParseRecord) RecordCursor {
	return RecordCursor{CreatedAt: r.CreatedAt, ID: r.ID}
}
