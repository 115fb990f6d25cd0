package rest

import (
	"time"

	"github.com/heartmarshall/kotoba-backend/internal/domain"
)

type recordResponse struct {
	ID           string                      `json:"id"`
	Title        string                      `json:"title"`
	ArticleTitle string                      `json:"articleTitle,omitempty"`
	Sentences    []domain.SentenceAnnotation `json:"sentences"`
	RawText      string                      `json:"rawText,omitempty"`
	CreatedAt    time.Time                   `json:"createdAt"`
}

type vocabularyResponse struct {
	ID               string                    `json:"id"`
	Word             string                    `json:"word"`
	Romaji           string                    `json:"romaji"`
	Meaning          string                    `json:"meaning"`
	Examples         []domain.AggregateExample `json:"examples"`
	SourceCount      int                       `json:"sourceCount"`
	TotalOccurrences int                       `json:"totalOccurrences"`
	Mastered         bool                      `json:"mastered"`
	FirstSeen        time.Time                 `json:"firstSeen"`
	LastSeen         time.Time                 `json:"lastSeen"`
	Level            string                    `json:"level"`
	Tags             []string                  `json:"tags"`
	Guessed          bool                      `json:"guessed,omitempty"`
	MasteryReset     bool                      `json:"masteryReset,omitempty"`
}

type structureResponse struct {
	ID               string                    `json:"id"`
	Structure        string                    `json:"structure"`
	Category         string                    `json:"category"`
	Difficulty       string                    `json:"difficulty"`
	Examples         []domain.AggregateExample `json:"examples"`
	SourceCount      int                       `json:"sourceCount"`
	TotalOccurrences int                       `json:"totalOccurrences"`
	Mastered         bool                      `json:"mastered"`
	FirstSeen        time.Time                 `json:"firstSeen"`
	LastSeen         time.Time                 `json:"lastSeen"`
	Level            string                    `json:"level"`
	Tags             []string                  `json:"tags"`
	MasteryReset     bool                      `json:"masteryReset,omitempty"`
}

type listResponse[T any] struct {
	Success bool `json:"success"`
	Items   []T  `json:"items"`
	Total   int  `json:"total"`
}

func toRecordResponse(r *domain.ParseRecord) recordResponse {
	sentences := r.Sentences
	if sentences == nil {
		sentences = []domain.SentenceAnnotation{}
	}
	return recordResponse{
		ID:           r.ID.String(),
		Title:        r.Label(),
		ArticleTitle: r.ArticleTitle,
		Sentences:    sentences,
		RawText:      r.RawText,
		CreatedAt:    r.CreatedAt,
	}
}

func toVocabularyResponse(a domain.VocabularyAggregate) vocabularyResponse {
	return vocabularyResponse{
		ID:               a.ID.String(),
		Word:             a.Word,
		Romaji:           a.Romaji,
		Meaning:          a.Meaning,
		Examples:         nonNil(a.Examples),
		SourceCount:      len(a.Sources),
		TotalOccurrences: a.TotalOccurrences,
		Mastered:         a.Mastered(),
		FirstSeen:        a.FirstSeen,
		LastSeen:         a.LastSeen,
		Level:            a.Level,
		Tags:             nonNil(a.Tags),
		Guessed:          a.Guessed,
		MasteryReset:     a.MasteryReset,
	}
}

func toStructureResponse(a domain.StructureAggregate) structureResponse {
	return structureResponse{
		ID:               a.ID.String(),
		Structure:        a.Structure,
		Category:         a.Category.String(),
		Difficulty:       a.Difficulty.String(),
		Examples:         nonNil(a.Examples),
		SourceCount:      len(a.Sources),
		TotalOccurrences: a.TotalOccurrences,
		Mastered:         a.Mastered(),
		FirstSeen:        a.FirstSeen,
		LastSeen:         a.LastSeen,
		Level:            a.Level,
		Tags:             nonNil(a.Tags),
		MasteryReset:     a.MasteryReset,
	}
}

func mapSlice[S, D any](in []S, f func(S) D) []D {
	out := make([]D, 0, len(in))
	for _, v := range in {
		out = append(out, f(v))
	}
	return out
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
