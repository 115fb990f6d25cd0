package testhelper

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/heartmarshall/kotoba-backend/internal/domain"
)

// uniqueSuffix returns a short unique string for generating non-conflicting test data.
func uniqueSuffix() string {
	return uuid.New().String()[:8]
}

// UniqueWord returns a vocabulary key no other test will produce.
func UniqueWord(prefix string) string {
	return prefix + "-" + uniqueSuffix()
}

// SeedRecord inserts a parse record with one sentence per word. Each
// sentence carries a complete vocabulary entry for its word.
func SeedRecord(t *testing.T, pool *pgxpool.Pool, createdAt time.Time, words ...string) domain.ParseRecord {
	t.Helper()

	rec := domain.ParseRecord{
		ID:        uuid.New(),
		Title:     "seed " + uniqueSuffix(),
		CreatedAt: createdAt.UTC().Truncate(time.Microsecond),
	}
	for i, w := range words {
		rec.Sentences = append(rec.Sentences, domain.SentenceAnnotation{
			OriginalText: fmt.Sprintf("%sの例文%d。", w, i),
			Translation:  fmt.Sprintf("example %d of %s", i, w),
			Vocabulary: []domain.VocabEntry{
				{Word: w, Romanization: "romaji-" + w, Meaning: "meaning-" + w},
			},
		})
	}

	_, err := pool.Exec(context.Background(),
		`INSERT INTO parse_records (id, title, article_title, sentences, raw_text, created_at)
		 VALUES ($1, $2, '', $3, '', $4)`,
		rec.ID, rec.Title, rec.Sentences, rec.CreatedAt,
	)
	if err != nil {
		t.Fatalf("testhelper: SeedRecord: %v", err)
	}
	return rec
}
