package importer

import (
	"github.com/heartmarshall/kotoba-backend/internal/domain"
	"github.com/heartmarshall/kotoba-backend/internal/service/parsing"
)

// RecordFile is a pre-parsed record exported by a client: one file per record.
type RecordFile struct {
	Title        string                      `json:"title"`
	ArticleTitle string                      `json:"articleTitle,omitempty"`
	RawText      string                      `json:"rawText,omitempty"`
	Sentences    []domain.SentenceAnnotation `json:"sentences"`
}

func (f RecordFile) submitInput() parsing.SubmitInput {
	return parsing.SubmitInput{
		Title:        f.Title,
		ArticleTitle: f.ArticleTitle,
		Sentences:    f.Sentences,
		RawText:      f.RawText,
	}
}
