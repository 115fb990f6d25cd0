package parsing

import (
	"strings"
	"unicode/utf8"

	"github.com/heartmarshall/kotoba-backend/internal/domain"
)

const (
	maxTextRunes     = 20000
	maxAnalysisRunes = 200000
	maxTitleRunes    = 200
	maxSentences     = 500
)

// AnalyzeInput holds the parameters for AnalyzeText.
type AnalyzeInput struct {
	Text  string
	Title string
}

// Validate checks all fields and collects all errors.
func (i AnalyzeInput) Validate() error {
	var errs []domain.FieldError

	text := strings.TrimSpace(i.Text)
	if text == "" {
		errs = append(errs, domain.FieldError{Field: "text", Message: "required"})
	}
	if utf8.RuneCountInString(text) > maxTextRunes {
		errs = append(errs, domain.FieldError{Field: "text", Message: "max 20000 characters"})
	}
	errs = validateTitle(errs, "title", i.Title)

	if len(errs) > 0 {
		return &domain.ValidationError{Errors: errs}
	}
	return nil
}

// IngestInput holds an analysis blob produced elsewhere, e.g. a saved AI reply.
type IngestInput struct {
	Analysis string
	Title    string
	// SourceText is the text that was analysed, kept on the record when known.
	SourceText string
}

// Validate checks all fields and collects all errors.
func (i IngestInput) Validate() error {
	var errs []domain.FieldError

	analysis := strings.TrimSpace(i.Analysis)
	if analysis == "" {
		errs = append(errs, domain.FieldError{Field: "analysis", Message: "required"})
	}
	if utf8.RuneCountInString(analysis) > maxAnalysisRunes {
		errs = append(errs, domain.FieldError{Field: "analysis", Message: "max 200000 characters"})
	}
	errs = validateTitle(errs, "title", i.Title)

	if len(errs) > 0 {
		return &domain.ValidationError{Errors: errs}
	}
	return nil
}

// SubmitInput holds a client-parsed record.
type SubmitInput struct {
	Title        string
	ArticleTitle string
	Sentences    []domain.SentenceAnnotation
	RawText      string
}

// Validate checks all fields and collects all errors.
func (i SubmitInput) Validate() error {
	var errs []domain.FieldError

	errs = validateTitle(errs, "title", i.Title)
	errs = validateTitle(errs, "articleTitle", i.ArticleTitle)

	if len(i.Sentences) > maxSentences {
		errs = append(errs, domain.FieldError{Field: "sentences", Message: "max 500 sentences"})
	}
	hasText := false
	for _, s := range i.Sentences {
		if s.HasText() {
			hasText = true
			break
		}
	}
	if !hasText {
		errs = append(errs, domain.FieldError{Field: "sentences", Message: "at least one sentence with originalText is required"})
	}

	if len(errs) > 0 {
		return &domain.ValidationError{Errors: errs}
	}
	return nil
}

func validateTitle(errs []domain.FieldError, field, title string) []domain.FieldError {
	if utf8.RuneCountInString(strings.TrimSpace(title)) > maxTitleRunes {
		errs = append(errs, domain.FieldError{Field: field, Message: "max 200 characters"})
	}
	return errs
}
