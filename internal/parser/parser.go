// Package parser turns the free-text analysis returned by the AI service
// into structured sentence annotations.
//
// Parsing is best-effort. The parser never fails: unrecognised input
// degrades to a single sentence carrying the raw text as its analysis, or
// to an empty result when the input holds no Japanese at all.
package parser

import (
	"strings"

	"github.com/heartmarshall/kotoba-backend/internal/domain"
	"github.com/heartmarshall/kotoba-backend/internal/japanese"
)

// Result is the structured form of one analysis blob.
type Result struct {
	Title     string                      `json:"title"`
	Sentences []domain.SentenceAnnotation `json:"sentences"`
}

// WordFinder yields content-word candidates for the fallback vocabulary guesser.
type WordFinder interface {
	ContentWords(text string) []japanese.Word
}

// Parser is stateless apart from its word finder and safe for concurrent use.
type Parser struct {
	words WordFinder
}

// New creates a Parser. A nil finder makes the guesser scan the text for
// dictionary words directly.
func New(words WordFinder) *Parser {
	return &Parser{words: words}
}

// Below this many sentences the line-oriented parser gets a second try.
const minPlausibleSentences = 3

// Parse converts one analysis blob into a Result.
func (p *Parser) Parse(text string) Result {
	text = stripArtifacts(strings.ReplaceAll(text, "\r\n", "\n"))
	if strings.TrimSpace(text) == "" {
		return Result{Sentences: []domain.SentenceAnnotation{}}
	}

	res := Result{
		Title:     between(text, markerTitle, ""),
		Sentences: p.parseSections(splitSections(text)),
	}

	if len(res.Sentences) < minPlausibleSentences && strings.Contains(text, "\n") {
		if alt := p.parseLines(text); len(alt) > len(res.Sentences) {
			res.Sentences = alt
		}
	}

	if len(res.Sentences) == 0 {
		if s, ok := p.degraded(text); ok {
			res.Sentences = append(res.Sentences, s)
		}
	}
	return res
}

func (p *Parser) degraded(text string) (domain.SentenceAnnotation, bool) {
	orig := firstJapaneseLine(text)
	if orig == "" {
		return domain.SentenceAnnotation{}, false
	}
	return domain.SentenceAnnotation{
		OriginalText: orig,
		Analysis:     strings.TrimSpace(text),
		Vocabulary:   p.guess(orig),
	}, true
}
