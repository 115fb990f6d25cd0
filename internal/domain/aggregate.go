package domain

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

const (
	// MaxExamples caps the example list of every aggregate.
	MaxExamples = 5

	// MasteryThreshold is the occurrence count at which an aggregate counts as mastered.
	MasteryThreshold = 3

	// LevelUserParsed is the constant level of aggregates built from parse records.
	LevelUserParsed = "user_parsed"

	// TagParsed is the constant tag of aggregates built from parse records ("obtained from parsing").
	TagParsed = "解析获得"
)

// DefaultTags returns a fresh copy of the constant aggregate tags.
func DefaultTags() []string { return []string{TagParsed} }

// AggregateExample is one usage example attached to an aggregate.
type AggregateExample struct {
	Sentence       string    `json:"sentence"`
	Romaji         string    `json:"romaji,omitempty"`
	Translation    string    `json:"translation,omitempty"`
	SourceLabel    string    `json:"sourceLabel,omitempty"`
	SourceRecordID uuid.UUID `json:"sourceRecordId"`
	Structure      string    `json:"structure,omitempty"`
	Analysis       string    `json:"analysis,omitempty"`
	Grammar        string    `json:"grammar,omitempty"`
	Guessed        bool      `json:"guessed,omitempty"`
}

// SamePair reports whether two examples share the (sentence, translation) pair.
func (e AggregateExample) SamePair(o AggregateExample) bool {
	return e.Sentence == o.Sentence && e.Translation == o.Translation
}

// VocabularyAggregate is a de-duplicated word accumulated across parse records.
type VocabularyAggregate struct {
	ID               uuid.UUID
	Word             string
	Romaji           string
	Meaning          string
	Examples         []AggregateExample
	Sources          []uuid.UUID
	TotalOccurrences int
	FirstSeen        time.Time
	LastSeen         time.Time
	Level            string
	Tags             []string
	// Guessed stays true while every contributing entry came from the fallback guesser.
	Guessed      bool
	MasteryReset bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Mastered reports whether the word reached the mastery threshold.
func (a VocabularyAggregate) Mastered() bool { return a.TotalOccurrences >= MasteryThreshold }

// HasSource reports whether the record already contributed to this word.
func (a VocabularyAggregate) HasSource(id uuid.UUID) bool { return slices.Contains(a.Sources, id) }

// StructureAggregate is a de-duplicated sentence structure or grammar point.
type StructureAggregate struct {
	ID               uuid.UUID
	Structure        string
	Category         Category
	Difficulty       Difficulty
	Examples         []AggregateExample
	Sources          []uuid.UUID
	TotalOccurrences int
	FirstSeen        time.Time
	LastSeen         time.Time
	Level            string
	Tags             []string
	MasteryReset     bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Mastered reports whether the structure reached the mastery threshold.
func (a StructureAggregate) Mastered() bool { return a.TotalOccurrences >= MasteryThreshold }

// HasSource reports whether the record already contributed to this structure.
func (a StructureAggregate) HasSource(id uuid.UUID) bool { return slices.Contains(a.Sources, id) }

// HasExamplePair reports whether an example with the same (sentence, translation) exists.
func (a StructureAggregate) HasExamplePair(ex AggregateExample) bool {
	return slices.ContainsFunc(a.Examples, ex.SamePair)
}

// MasteryCounts partitions a collection at MasteryThreshold.
type MasteryCounts struct {
	All        int `json:"all"`
	Mastered   int `json:"mastered"`
	Unmastered int `json:"unmastered"`
}

// MergeResult counts the outcome of merging a batch of aggregates into a collection.
type MergeResult struct {
	Added     int
	Updated   int
	Unchanged int
	Failed    int
}

// Add accumulates another result into r.
func (r *MergeResult) Add(o MergeResult) {
	r.Added += o.Added
	r.Updated += o.Updated
	r.Unchanged += o.Unchanged
	r.Failed += o.Failed
}

// AggregateKeyRef is a lightweight view of one aggregate document used by duplicate repair.
type AggregateKeyRef struct {
	ID           uuid.UUID
	Key          string
	ExampleCount int
}

// VocabularyMergeFunc folds incoming into existing and reports whether existing changed.
type VocabularyMergeFunc func(existing *VocabularyAggregate, incoming VocabularyAggregate) bool

// StructureMergeFunc folds incoming into existing and reports whether existing changed.
type StructureMergeFunc func(existing *StructureAggregate, incoming StructureAggregate) bool
