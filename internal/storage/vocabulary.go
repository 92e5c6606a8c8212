package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/conorfennell/kotoba/internal/domain"
	"github.com/conorfennell/kotoba/internal/knol"
	"github.com/google/uuid"
)

// Vocabulary stores the learner's word list in SQLite.
type Vocabulary struct {
	conn *sql.DB
}

const vocabularyColumns = `id, word, reading, meaning, example_sentence, added_at,
	ease_factor, interval_days, repetitions, next_review_date, last_reviewed_at`

// Insert adds a new word.
func (s *Vocabulary) Insert(ctx context.Context, v *domain.VocabularyItem) error {
	_, err := s.conn.ExecContext(ctx, `
		INSERT INTO vocabulary (`+vocabularyColumns+`, word_key)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		v.ID.String(),
		v.Word,
		v.Reading,
		v.Meaning,
		v.ExampleSentence,
		utc(v.AddedAt),
		v.EaseFactor,
		v.Interval,
		v.Repetitions,
		utc(v.NextReviewDate),
		nullTime(v.LastReviewedAt),
		knol.Key(v.Word),
	)
	if err != nil {
		return fmt.Errorf("failed to insert word %s: %w", v.Word, err)
	}
	return nil
}

// FetchAll returns every word, earliest next review date first.
func (s *Vocabulary) FetchAll(ctx context.Context) ([]*domain.VocabularyItem, error) {
	return s.query(ctx, `SELECT `+vocabularyColumns+` FROM vocabulary ORDER BY next_review_date ASC`)
}

// List returns every word, most recently added first.
func (s *Vocabulary) List(ctx context.Context) ([]*domain.VocabularyItem, error) {
	return s.query(ctx, `SELECT `+vocabularyColumns+` FROM vocabulary ORDER BY added_at DESC`)
}

func (s *Vocabulary) query(ctx context.Context, query string) ([]*domain.VocabularyItem, error) {
	rows, err := s.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get vocabulary: %w", err)
	}
	defer rows.Close()

	var words []*domain.VocabularyItem
	for rows.Next() {
		v, err := scanVocabulary(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan vocabulary row: %w", err)
		}
		words = append(words, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate vocabulary: %w", err)
	}
	return words, nil
}

// Get retrieves a word by ID.
func (s *Vocabulary) Get(ctx context.Context, id uuid.UUID) (*domain.VocabularyItem, error) {
	row := s.conn.QueryRowContext(ctx, `SELECT `+vocabularyColumns+` FROM vocabulary WHERE id = ?`, id.String())

	v, err := scanVocabulary(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("word %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to find word %s: %w", id, err)
	}
	return v, nil
}

// HasWord reports whether the list already contains word, compared after
// normalization.
func (s *Vocabulary) HasWord(ctx context.Context, word string) (bool, error) {
	var exists bool
	err := s.conn.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM vocabulary WHERE word_key = ?)`, knol.Key(word),
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check word %s: %w", word, err)
	}
	return exists, nil
}

// Update persists the word's scheduling fields.
func (s *Vocabulary) Update(ctx context.Context, v *domain.VocabularyItem) error {
	res, err := s.conn.ExecContext(ctx, `
		UPDATE vocabulary
		SET ease_factor = ?, interval_days = ?, repetitions = ?, next_review_date = ?, last_reviewed_at = ?
		WHERE id = ?
	`,
		v.EaseFactor,
		v.Interval,
		v.Repetitions,
		utc(v.NextReviewDate),
		nullTime(v.LastReviewedAt),
		v.ID.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to update word %s: %w", v.ID, err)
	}
	return expectOne(res, "word", v.ID)
}

// UpdateContent persists the word's text fields, leaving its schedule alone.
func (s *Vocabulary) UpdateContent(ctx context.Context, v *domain.VocabularyItem) error {
	res, err := s.conn.ExecContext(ctx, `
		UPDATE vocabulary
		SET word = ?, word_key = ?, reading = ?, meaning = ?, example_sentence = ?
		WHERE id = ?
	`,
		v.Word,
		knol.Key(v.Word),
		v.Reading,
		v.Meaning,
		v.ExampleSentence,
		v.ID.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to update word %s: %w", v.ID, err)
	}
	return expectOne(res, "word", v.ID)
}

// Delete removes a word.
func (s *Vocabulary) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := s.conn.ExecContext(ctx, `DELETE FROM vocabulary WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("failed to delete word %s: %w", id, err)
	}
	return expectOne(res, "word", id)
}

func scanVocabulary(row scanner) (*domain.VocabularyItem, error) {
	var (
		v            domain.VocabularyItem
		lastReviewed sql.NullTime
	)
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
		&lastReviewed,
	)
	if err != nil {
		return nil, err
	}
	v.LastReviewedAt = timePtr(lastReviewed)
	return &v, nil
}
