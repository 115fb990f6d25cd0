package postgres_test

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/heartmarshall/kotoba-backend/internal/adapter/postgres"
	"github.com/heartmarshall/kotoba-backend/internal/adapter/postgres/testhelper"
	"github.com/heartmarshall/kotoba-backend/internal/domain"
)

func TestSchema_EnsureIsIdempotent(t *testing.T) {
	pool := testhelper.SetupTestDB(t)
	schema := postgres.NewSchema(pool, slog.Default())

	for range 2 {
		if err := schema.Ensure(context.Background()); err != nil {
			t.Fatalf("Ensure: %v", err)
		}
	}
}

func TestSchema_RetryMissing(t *testing.T) {
	pool := testhelper.SetupTestDB(t)
	schema := postgres.NewSchema(pool, slog.Default())

	tests := []struct {
		name      string
		firstErr  error
		wantCalls int
		wantErr   bool
	}{
		{"success", nil, 1, false},
		{"undefined table", &pgconn.PgError{Code: "42P01"}, 2, false},
		{"mapped collection missing", fmt.Errorf("vocabulary x: %w", domain.ErrCollectionMissing), 2, false},
		{"other error", errors.New("boom"), 1, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			err := schema.RetryMissing(context.Background(), func(context.Context) error {
				calls++
				if calls == 1 {
					return tt.firstErr
				}
				return nil
			})
			if (err != nil) != tt.wantErr {
				t.Fatalf("RetryMissing error = %v, wantErr %v", err, tt.wantErr)
			}
			if calls != tt.wantCalls {
				t.Fatalf("fn called %d times, want %d", calls, tt.wantCalls)
			}
		})
	}
}

func TestSchema_NilRunsOnce(t *testing.T) {
	t.Parallel()

	var schema *postgres.Schema
	calls := 0
	err := schema.RetryMissing(context.Background(), func(context.Context) error {
		calls++
		return &pgconn.PgError{Code: "42P01"}
	})
	if err == nil || calls != 1 {
		t.Fatalf("nil Schema: calls=%d err=%v, want 1 call and the original error", calls, err)
	}
}

func TestLockKeys_BlocksSameKey(t *testing.T) {
	pool := testhelper.SetupTestDB(t)
	tm := postgres.NewTxManager(pool)

	held := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)

	go func() {
		done <- tm.RunInTx(context.Background(), func(ctx context.Context) error {
			if err := postgres.LockKeys(ctx, postgres.QuerierFromCtx(ctx, pool), "test", []string{"b", "a"}); err != nil {
				return err
			}
			close(held)
			<-release
			return nil
		})
	}()
	<-held

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	err := tm.RunInTx(ctx, func(ctx context.Context) error {
		return postgres.LockKeys(ctx, postgres.QuerierFromCtx(ctx, pool), "test", []string{"a"})
	})
	if err == nil {
		t.Fatal("expected second locker to block until timeout")
	}

	err = tm.RunInTx(context.Background(), func(ctx context.Context) error {
		return postgres.LockKeys(ctx, postgres.QuerierFromCtx(ctx, pool), "test", []string{"c"})
	})
	if err != nil {
		t.Fatalf("disjoint key should not block: %v", err)
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatalf("holder tx: %v", err)
	}
}
