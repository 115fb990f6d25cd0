// Package importer loads saved analyses and client-exported records from a
// directory into the store.
//
// *.txt files hold a raw analysis reply and go through the response parser.
// *.json files hold a RecordFile and are stored as-is.
package importer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/heartmarshall/kotoba-backend/internal/parser"
	"github.com/heartmarshall/kotoba-backend/internal/service/parsing"
)

// Ingester stores parsed records.
type Ingester interface {
	IngestAnalysis(ctx context.Context, in parsing.IngestInput) (*parsing.ParseResult, error)
	SubmitRecord(ctx context.Context, in parsing.SubmitInput) (*parsing.ParseResult, error)
	Preview(analysis string) parser.Result
}

// Result holds import statistics.
type Result struct {
	FilesProcessed int
	Stored         int
	Sentences      int
	// Empty counts analyses in which no Japanese sentence was recognised.
	Empty int
	// NotIntegrated counts records stored without being folded into the aggregates.
	NotIntegrated int
	Errors        int
}

// Run imports every *.txt and *.json file in cfg.Dir in name order. A failing
// file is logged and counted; it does not stop the import.
func Run(ctx context.Context, cfg *Config, svc Ingester, log *slog.Logger) (Result, error) {
	log = log.With("component", "importer")

	files, err := listFiles(cfg.Dir)
	if err != nil {
		return Result{}, err
	}

	var result Result
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		result.FilesProcessed++

		res, sentences, err := importFile(ctx, path, cfg.DryRun, svc)
		if err != nil {
			log.Error("import file", slog.String("path", path), slog.String("error", err.Error()))
			result.Errors++
			continue
		}

		switch {
		case sentences == 0:
			log.Warn("no sentences recognised", slog.String("path", path))
			result.Empty++
			continue
		case res == nil:
			// dry run
		default:
			result.Stored++
			if res.Integration == nil {
				log.Warn("record not integrated",
					slog.String("path", path),
					slog.String("record_id", res.RecordID.String()),
					slog.String("error", res.Error),
				)
				result.NotIntegrated++
			}
		}
		result.Sentences += sentences
	}

	log.Info("import complete",
		slog.Bool("dry_run", cfg.DryRun),
		slog.Int("files", result.FilesProcessed),
		slog.Int("stored", result.Stored),
		slog.Int("sentences", result.Sentences),
		slog.Int("empty", result.Empty),
		slog.Int("not_integrated", result.NotIntegrated),
		slog.Int("errors", result.Errors),
	)
	return result, nil
}

func listFiles(dir string) ([]string, error) {
	var files []string
	for _, pattern := range []string{"*.txt", "*.json"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, fmt.Errorf("glob %s: %w", pattern, err)
		}
		files = append(files, matches...)
	}
	slices.Sort(files)
	return files, nil
}

// importFile returns a nil result in dry-run mode.
func importFile(ctx context.Context, path string, dryRun bool, svc Ingester) (*parsing.ParseResult, int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, 0, fmt.Errorf("read file: %w", err)
	}

	if strings.EqualFold(filepath.Ext(path), ".txt") {
		analysis := string(data)
		if dryRun {
			return nil, len(svc.Preview(analysis).Sentences), nil
		}
		res, err := svc.IngestAnalysis(ctx, parsing.IngestInput{Analysis: analysis})
		if err != nil {
			return nil, 0, err
		}
		return res, res.SentenceCount, nil
	}

	var f RecordFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, 0, fmt.Errorf("unmarshal JSON: %w", err)
	}
	if err := Validate(f); err != nil {
		return nil, 0, err
	}
	if dryRun {
		return nil, len(f.Sentences), nil
	}
	res, err := svc.SubmitRecord(ctx, f.submitInput())
	if err != nil {
		return nil, 0, err
	}
	return res, res.SentenceCount, nil
}
