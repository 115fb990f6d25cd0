package parsing

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/heartmarshall/kotoba-backend/internal/domain"
	"github.com/heartmarshall/kotoba-backend/internal/parser"
	"github.com/heartmarshall/kotoba-backend/internal/service/integration"
)

// NoSentencesMessage is returned with success=false when nothing Japanese was recognised.
const NoSentencesMessage = "no Japanese sentences recognised in the analysis"

// ParseResult reports a stored parse.
type ParseResult struct {
	Success       bool                         `json:"success"`
	RecordID      uuid.UUID                    `json:"recordId"`
	Title         string                       `json:"title"`
	SentenceCount int                          `json:"sentenceCount"`
	Sentences     []domain.SentenceAnnotation  `json:"sentences"`
	Integration   *integration.IntegrateResult `json:"integration,omitempty"`
	Error         string                       `json:"error,omitempty"`
}

// AnalyzeText sends text to the AI provider and stores the parsed reply.
func (s *Service) AnalyzeText(ctx context.Context, in AnalyzeInput) (*ParseResult, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if s.analyzer == nil {
		return nil, fmt.Errorf("text analysis: %w", domain.ErrUnavailable)
	}

	text := strings.TrimSpace(in.Text)
	analysis, err := s.analyzer.Analyze(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("analyze text: %w", err)
	}

	return s.ingest(ctx, IngestInput{Analysis: analysis, Title: in.Title, SourceText: text})
}

// IngestAnalysis parses an analysis blob obtained earlier and stores it.
func (s *Service) IngestAnalysis(ctx context.Context, in IngestInput) (*ParseResult, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	return s.ingest(ctx, in)
}

// Preview parses an analysis blob without storing anything.
func (s *Service) Preview(analysis string) parser.Result {
	return s.parser.Parse(analysis)
}

func (s *Service) ingest(ctx context.Context, in IngestInput) (*ParseResult, error) {
	parsed := s.parser.Parse(in.Analysis)
	if len(parsed.Sentences) == 0 {
		return &ParseResult{Sentences: []domain.SentenceAnnotation{}, Error: NoSentencesMessage}, nil
	}

	title := strings.TrimSpace(in.Title)
	if title == "" {
		title = parsed.Title
	}
	raw := in.SourceText
	if raw == "" {
		raw = in.Analysis
	}

	rec := &domain.ParseRecord{
		Title:        title,
		ArticleTitle: parsed.Title,
		Sentences:    parsed.Sentences,
		RawText:      raw,
	}
	return s.store(ctx, rec)
}

// SubmitRecord stores a record the client already parsed and integrates it.
func (s *Service) SubmitRecord(ctx context.Context, in SubmitInput) (*ParseResult, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	rec := &domain.ParseRecord{
		Title:        strings.TrimSpace(in.Title),
		ArticleTitle: strings.TrimSpace(in.ArticleTitle),
		Sentences:    in.Sentences,
		RawText:      in.RawText,
	}
	return s.store(ctx, rec)
}

// GetRecord returns a stored record.
func (s *Service) GetRecord(ctx context.Context, id uuid.UUID) (*domain.ParseRecord, error) {
	if id == uuid.Nil {
		return nil, domain.NewValidationError("id", "required")
	}
	rec, err := s.records.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get record: %w", err)
	}
	return rec, nil
}

// store saves rec and integrates it. A failed integration keeps the record;
// it is reported in the result and can be retried with IntegrateNewRecord.
func (s *Service) store(ctx context.Context, rec *domain.ParseRecord) (*ParseResult, error) {
	if err := s.records.Create(ctx, rec); err != nil {
		return nil, fmt.Errorf("create record: %w", err)
	}

	res := &ParseResult{
		Success:       true,
		RecordID:      rec.ID,
		Title:         rec.Label(),
		SentenceCount: len(rec.Sentences),
		Sentences:     rec.Sentences,
	}

	integrated, err := s.integrator.IntegrateRecord(ctx, *rec)
	if err != nil {
		s.log.ErrorContext(ctx, "integrate new record",
			slog.String("record_id", rec.ID.String()),
			slog.String("error", err.Error()),
		)
		res.Error = "record stored but not integrated: " + err.Error()
	} else {
		res.Integration = integrated
	}

	s.log.InfoContext(ctx, "record stored",
		slog.String("record_id", rec.ID.String()),
		slog.Int("sentences", res.SentenceCount),
	)
	return res, nil
}
