package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/conorfennell/kotoba/internal/domain"
	"github.com/conorfennell/kotoba/internal/knol"
)

// Vocabulary provides access to the learner's word list in the database.
type Vocabulary struct {
	db DBTX
}

func NewVocabulary(db DBTX) *Vocabulary {
	return &Vocabulary{db: db}
}

const vocabularyColumns = `id, word, reading, meaning, example_sentence, added_at,
	ease_factor, interval_days, repetitions, next_review_date, last_reviewed_at`

// Insert adds a new word.
func (r *Vocabulary) Insert(ctx context.Context, v *domain.VocabularyItem) error {
	query := `
		INSERT INTO vocabulary (` + vocabularyColumns + `, word_key)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err := r.db.Exec(ctx, query,
		v.ID, v.Word, v.Reading, v.Meaning, v.ExampleSentence, v.AddedAt,
		v.EaseFactor, v.Interval, v.Repetitions, v.NextReviewDate, v.LastReviewedAt,
		knol.Key(v.Word),
	)
	if err != nil {
		return fmt.Errorf("insert word: %w", err)
	}
	return nil
}

// FetchAll returns every word, earliest next review date first.
func (r *Vocabulary) FetchAll(ctx context.Context) ([]*domain.VocabularyItem, error) {
	return r.query(ctx, `SELECT `+vocabularyColumns+` FROM vocabulary ORDER BY next_review_date ASC`)
}

// List returns every word, most recently added first.
func (r *Vocabulary) List(ctx context.Context) ([]*domain.VocabularyItem, error) {
	return r.query(ctx, `SELECT `+vocabularyColumns+` FROM vocabulary ORDER BY added_at DESC`)
}

func (r *Vocabulary) query(ctx context.Context, query string) ([]*domain.VocabularyItem, error) {
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query vocabulary: %w", err)
	}
	defer rows.Close()

	var words []*domain.VocabularyItem
	for rows.Next() {
		v, err := scanVocabulary(rows)
		if err != nil {
			return nil, fmt.Errorf("scan word: %w", err)
		}
		words = append(words, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate vocabulary: %w", err)
	}
	return words, nil
}

// Get retrieves a word by ID.
func (r *Vocabulary) Get(ctx context.Context, id uuid.UUID) (*domain.VocabularyItem, error) {
	query := `SELECT ` + vocabularyColumns + ` FROM vocabulary WHERE id = $1`

	v, err := scanVocabulary(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("word %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get word: %w", err)
	}
	return v, nil
}

// HasWord reports whether the list already contains word, compared after
// normalization.
func (r *Vocabulary) HasWord(ctx context.Context, word string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM vocabulary WHERE word_key = $1)`, knol.Key(word),
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check word existence: %w", err)
	}
	return exists, nil
}

// Update persists the word's scheduling fields.
func (r *Vocabulary) Update(ctx context.Context, v *domain.VocabularyItem) error {
	query := `
		UPDATE vocabulary
		SET ease_factor = $2, interval_days = $3, repetitions = $4,
		    next_review_date = $5, last_reviewed_at = $6
		WHERE id = $1
	`
	tag, err := r.db.Exec(ctx, query,
		v.ID, v.EaseFactor, v.Interval, v.Repetitions, v.NextReviewDate, v.LastReviewedAt,
	)
	if err != nil {
		return fmt.Errorf("update word: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("word %s: %w", v.ID, domain.ErrNotFound)
	}
	return nil
}

// UpdateContent persists the word's text fields, leaving its schedule alone.
func (r *Vocabulary) UpdateContent(ctx context.Context, v *domain.VocabularyItem) error {
	query := `
		UPDATE vocabulary
		SET word = $2, word_key = $3, reading = $4, meaning = $5, example_sentence = $6
		WHERE id = $1
	`
	tag, err := r.db.Exec(ctx, query,
		v.ID, v.Word, knol.Key(v.Word), v.Reading, v.Meaning, v.ExampleSentence,
	)
	if err != nil {
		return fmt.Errorf("update word content: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("word %s: %w", v.ID, domain.ErrNotFound)
	}
	return nil
}

// Delete removes a word.
func (r *Vocabulary) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM vocabulary WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete word: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("word %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

func scanVocabulary(row pgx.Row) (*domain.VocabularyItem, error) {
	var v domain.VocabularyItem
	err := row.Scan(
		&v.ID,
		&v.Word,
		&v.Reading,
		&v.Meaning,
		&v.ExampleSentence,
		&v.AddedAt,
		&v.EaseFactor,
		&v.Interval,
		&v.Repetitions,
		&v.NextReviewDate,
		&v.LastReviewedAt,
	)
	if err != nil {
		return nil, err
	}
	return &v, nil
}
