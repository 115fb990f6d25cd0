// Package aggregate builds vocabulary and structure aggregates from parse
// records. An Engine is constructed per pass and owns the two keyed maps
// for the duration of that pass only.
package aggregate

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/heartmarshall/kotoba-backend/internal/domain"
	"github.com/heartmarshall/kotoba-backend/internal/grammar"
)

// Mode selects how an Engine's output is applied to the store.
type Mode int

const (
	// ModeFull accumulates any number of records for a wipe-and-recompute pass.
	ModeFull Mode = iota
	// ModeIncremental is scoped to a single record merged into existing aggregates.
	ModeIncremental
)

func (m Mode) String() string {
	switch m {
	case ModeFull:
		return "full"
	case ModeIncremental:
		return "incremental"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ErrRecordScope is returned when an incremental engine is given a second record.
var ErrRecordScope = errors.New("incremental engine accepts a single record")

// Options tune extraction.
type Options struct {
	// MaxExamples caps every aggregate's example list.
	MaxExamples int
	// IncludeGuessed admits vocabulary produced by the fallback guesser.
	IncludeGuessed bool
}

// DefaultOptions returns the production settings.
func DefaultOptions() Options {
	return Options{MaxExamples: domain.MaxExamples, IncludeGuessed: true}
}

// Engine accumulates aggregates in first-seen order.
type Engine struct {
	mode Mode
	opts Options

	vocab      map[string]*domain.VocabularyAggregate
	vocabOrder []string

	structures     map[string]*domain.StructureAggregate
	structureOrder []string

	records []uuid.UUID
}

// NewEngine creates an empty engine.
func NewEngine(mode Mode, opts Options) *Engine {
	if opts.MaxExamples <= 0 {
		opts.MaxExamples = domain.MaxExamples
	}
	return &Engine{
		mode:       mode,
		opts:       opts,
		vocab:      make(map[string]*domain.VocabularyAggregate),
		structures: make(map[string]*domain.StructureAggregate),
	}
}

// Mode returns the engine's mode.
func (e *Engine) Mode() Mode { return e.mode }

// Add extracts r's vocabulary and structures and merges them into the
// engine's maps. Adding a record that was already added is a no-op.
func (e *Engine) Add(r domain.ParseRecord) error {
	for _, id := range e.records {
		if id == r.ID {
			return nil
		}
	}
	if e.mode == ModeIncremental && len(e.records) > 0 {
		return ErrRecordScope
	}
	e.records = append(e.records, r.ID)

	vocab, structures := Extract(r, e.opts)
	for _, v := range vocab {
		if cur, ok := e.vocab[v.Word]; ok {
			MergeVocabulary(cur, v, e.opts.MaxExamples)
			continue
		}
		e.vocab[v.Word] = &v
		e.vocabOrder = append(e.vocabOrder, v.Word)
	}
	for _, s := range structures {
		if cur, ok := e.structures[s.Structure]; ok {
			MergeStructure(cur, s, e.opts.MaxExamples)
			continue
		}
		e.structures[s.Structure] = &s
		e.structureOrder = append(e.structureOrder, s.Structure)
	}
	return nil
}

// Vocabulary returns copies of the accumulated word aggregates.
func (e *Engine) Vocabulary() []domain.VocabularyAggregate {
	out := make([]domain.VocabularyAggregate, 0, len(e.vocabOrder))
	for _, k := range e.vocabOrder {
		out = append(out, *e.vocab[k])
	}
	return out
}

// Structures returns copies of the accumulated structure aggregates.
func (e *Engine) Structures() []domain.StructureAggregate {
	out := make([]domain.StructureAggregate, 0, len(e.structureOrder))
	for _, k := range e.structureOrder {
		out = append(out, *e.structures[k])
	}
	return out
}

// Records returns the number of distinct records added.
func (e *Engine) Records() int { return len(e.records) }

// TotalExtracted is the number of distinct vocabulary and structure keys.
func (e *Engine) TotalExtracted() int { return len(e.vocabOrder) + len(e.structureOrder) }

// Extract returns the aggregates one record contributes on its own. Each
// word carries one example (its first occurrence in the record); each
// structure carries every distinct (sentence, translation) pair, up to the
// example cap. All aggregates have the record as their only source.
func Extract(r domain.ParseRecord, opts Options) ([]domain.VocabularyAggregate, []domain.StructureAggregate) {
	if opts.MaxExamples <= 0 {
		opts.MaxExamples = domain.MaxExamples
	}

	var (
		vocab      []domain.VocabularyAggregate
		vocabIdx   = make(map[string]int)
		structures []domain.StructureAggregate
		structIdx  = make(map[string]int)
		label      = r.Label()
	)

	for _, s := range r.Sentences {
		if !s.HasText() {
			continue
		}

		for _, entry := range s.Vocabulary {
			if !entry.IsComplete() || (entry.Guessed && !opts.IncludeGuessed) {
				continue
			}
			key := domain.NormalizeKey(entry.Word)
			if i, ok := vocabIdx[key]; ok {
				vocab[i].Guessed = vocab[i].Guessed && entry.Guessed
				continue
			}
			vocabIdx[key] = len(vocab)
			ex := exampleOf(r, s, label)
			ex.Guessed = entry.Guessed
			vocab = append(vocab, domain.VocabularyAggregate{
				Word:             key,
				Romaji:           strings.TrimSpace(entry.Romanization),
				Meaning:          strings.TrimSpace(entry.Meaning),
				Examples:         []domain.AggregateExample{ex},
				Sources:          []uuid.UUID{r.ID},
				TotalOccurrences: 1,
				FirstSeen:        r.CreatedAt,
				LastSeen:         r.CreatedAt,
				Level:            domain.LevelUserParsed,
				Tags:             domain.DefaultTags(),
				Guessed:          entry.Guessed,
			})
		}

		for _, p := range grammar.PointsOf(s) {
			ex := exampleOf(r, s, label)
			if i, ok := structIdx[p.Key]; ok {
				a := &structures[i]
				if len(a.Examples) < opts.MaxExamples && !a.HasExamplePair(ex) {
					a.Examples = append(a.Examples, ex)
				}
				continue
			}
			structIdx[p.Key] = len(structures)
			structures = append(structures, domain.StructureAggregate{
				Structure:        p.Key,
				Category:         p.Category,
				Difficulty:       p.Difficulty,
				Examples:         []domain.AggregateExample{ex},
				Sources:          []uuid.UUID{r.ID},
				TotalOccurrences: 1,
				FirstSeen:        r.CreatedAt,
				LastSeen:         r.CreatedAt,
				Level:            domain.LevelUserParsed,
				Tags:             domain.DefaultTags(),
			})
		}
	}
	return vocab, structures
}

func exampleOf(r domain.ParseRecord, s domain.SentenceAnnotation, label string) domain.AggregateExample {
	return domain.AggregateExample{
		Sentence:       strings.TrimSpace(s.OriginalText),
		Romaji:         s.Romaji,
		Translation:    s.Translation,
		SourceLabel:    label,
		SourceRecordID: r.ID,
		Structure:      s.Structure,
		Analysis:       s.Analysis,
		Grammar:        s.Grammar,
	}
}
