package domain

import (
	"time"

	"github.com/google/uuid"
)

// LearningWord is the display projection of a VocabularyAggregate.
type LearningWord struct {
	ID          uuid.UUID          `json:"id"`
	Word        string             `json:"word"`
	Kana        string             `json:"kana"`
	Romaji      string             `json:"romaji"`
	Meaning     string             `json:"meaning"`
	Type        string             `json:"type"`
	Level       string             `json:"level"`
	Examples    []AggregateExample `json:"examples"`
	Source      string             `json:"source"`
	SourceCount int                `json:"sourceCount"`
	FirstSeen   time.Time          `json:"firstSeen"`
	LastSeen    time.Time          `json:"lastSeen"`
	Tags        []string           `json:"tags"`
}

// Learning word types: which pool of a plan a word was drawn from.
const (
	WordTypeNew    = "new"
	WordTypeReview = "review"
)

// PlanCounts is the target split of a smart learning plan.
type PlanCounts struct {
	NewCount    int `json:"newCount"`
	ReviewCount int `json:"reviewCount"`
	TotalCount  int `json:"totalCount"`
}

// PlanStatistics describes the library a plan was drawn from and what was actually selected.
type PlanStatistics struct {
	TotalWords      int `json:"totalWords"`
	MasteredWords   int `json:"masteredWords"`
	UnmasteredWords int `json:"unmasteredWords"`
	NewAvailable    int `json:"newAvailable"`
	ReviewAvailable int `json:"reviewAvailable"`
	NewSelected     int `json:"newSelected"`
	ReviewSelected  int `json:"reviewSelected"`
}

// LibraryStatistics is the mastery partition of both aggregate collections.
type LibraryStatistics struct {
	Records    int           `json:"records"`
	Vocabulary MasteryCounts `json:"vocabulary"`
	Structures MasteryCounts `json:"structures"`
}
