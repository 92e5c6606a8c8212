package postgres

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/conorfennell/kotoba/internal/catalog"
	"github.com/conorfennell/kotoba/internal/domain"
	"github.com/conorfennell/kotoba/internal/srs"
)

// The tests run against a live server and are skipped unless
// KOTOBA_TEST_POSTGRES_DSN points at a disposable database.
func openTestDB(t *testing.T) *DB {
	t.Helper()
	dsn := os.Getenv("KOTOBA_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("KOTOBA_TEST_POSTGRES_DSN not set")
	}

	ctx := context.Background()
	db, err := Open(ctx, dsn, PoolConfig{MaxConns: 2})
	if err != nil {
		t.Fatalf("Open() returned an unexpected error: %v", err)
	}
	if _, err := db.pool.Exec(ctx, `TRUNCATE flashcards, vocabulary`); err != nil {
		t.Fatalf("truncate: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestFlashCards(t *testing.T) {
	ctx := context.Background()
	cards := openTestDB(t).FlashCards()
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

	later := domain.NewFlashCard("later", "b", now.AddDate(0, 0, 2))
	sooner := domain.NewFlashCard("sooner", "b", now.Add(-time.Hour))
	for _, c := range []*domain.FlashCard{later, sooner} {
		if err := cards.Insert(ctx, c); err != nil {
			t.Fatalf("Insert() returned an unexpected error: %v", err)
		}
	}

	all, err := cards.FetchAll(ctx)
	if err != nil {
		t.Fatalf("FetchAll() returned an unexpected error: %v", err)
	}
	if len(all) != 2 || all[0].ID != sooner.ID {
		t.Fatalf("Expected sooner first, but got %v", all)
	}

	sooner.Schedule().Apply(srs.Good, now)
	if err := cards.Update(ctx, sooner); err != nil {
		t.Fatalf("Update() returned an unexpected error: %v", err)
	}
	got, err := cards.Get(ctx, sooner.ID)
	if err != nil {
		t.Fatalf("Get() returned an unexpected error: %v", err)
	}
	if got.Repetitions != 1 || got.LastReviewedAt == nil || !got.LastReviewedAt.Equal(now) {
		t.Errorf("Expected the schedule to round trip, but got %+v", got.State)
	}

	if _, err := cards.Get(ctx, uuid.New()); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, but got %v", err)
	}
}

func TestVocabulary(t *testing.T) {
	ctx := context.Background()
	words := openTestDB(t).Vocabulary()
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

	v := domain.NewVocabularyItem("家族", "かぞく", "family", "", now)
	if err := words.Insert(ctx, v); err != nil {
		t.Fatalf("Insert() returned an unexpected error: %v", err)
	}

	ok, err := words.HasWord(ctx, "家族")
	if err != nil || !ok {
		t.Errorf("Expected 家族 to be present, but got %v (%v)", ok, err)
	}

	if err := words.Delete(ctx, v.ID); err != nil {
		t.Fatalf("Delete() returned an unexpected error: %v", err)
	}
	if err := words.Delete(ctx, v.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, but got %v", err)
	}
}

func TestWithinTx(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("rolls back on error", func(t *testing.T) {
		boom := errors.New("boom")
		err := db.WithinTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
			if err := NewVocabulary(tx).Insert(ctx, domain.NewVocabularyItem("駅", "えき", "station", "", now)); err != nil {
				return err
			}
			return boom
		})
		if !errors.Is(err, boom) {
			t.Fatalf("Expected the callback error, but got %v", err)
		}
		if ok, _ := db.Vocabulary().HasWord(ctx, "駅"); ok {
			t.Error("Expected 駅 to be rolled back")
		}
	})

	t.Run("commits on success", func(t *testing.T) {
		err := db.WithinTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
			return NewVocabulary(tx).Insert(ctx, domain.NewVocabularyItem("学校", "がっこう", "school", "", now))
		})
		if err != nil {
			t.Fatalf("WithinTx() returned an unexpected error: %v", err)
		}
		if ok, _ := db.Vocabulary().HasWord(ctx, "学校"); !ok {
			t.Error("Expected 学校 to be committed")
		}
	})
}

func TestImportInTransaction(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	importTx := func(ctx context.Context, fn func(context.Context, catalog.WordWriter) error) error {
		return db.WithinTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
			return fn(ctx, NewVocabulary(tx))
		})
	}
	svc := catalog.New(db.FlashCards(), db.Vocabulary(), catalog.WithTransactor(importTx))

	entries := []domain.JLPTEntry{
		{Word: "母", Reading: "はは", Meaning: "mother", Level: domain.N5},
		{Word: "父", Reading: "ちち", Meaning: "father", Level: domain.N5},
	}
	added, err := svc.ImportEntries(ctx, entries)
	if err != nil {
		t.Fatalf("ImportEntries() returned an unexpected error: %v", err)
	}
	if added != 2 {
		t.Errorf("Expected 2 words added, but got %d", added)
	}

	canceled, cancel := context.WithCancel(ctx)
	cancel()
	if _, err := svc.ImportEntries(canceled, []domain.JLPTEntry{{Word: "兄", Reading: "あに", Meaning: "older brother"}}); err == nil {
		t.Fatal("Expected an error for a canceled context")
	}
	if ok, _ := db.Vocabulary().HasWord(ctx, "兄"); ok {
		t.Error("Expected 兄 not to be imported")
	}
}
