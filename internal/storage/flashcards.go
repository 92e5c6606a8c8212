package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/conorfennell/kotoba/internal/domain"
	"github.com/google/uuid"
)

// FlashCards stores flashcards in SQLite.
type FlashCards struct {
	conn *sql.DB
}

const flashCardColumns = `id, front, back, ease_factor, interval_days, repetitions, next_review_date, last_reviewed_at`

// Insert adds a new card.
func (s *FlashCards) Insert(ctx context.Context, c *domain.FlashCard) error {
	_, err := s.conn.ExecContext(ctx, `
		INSERT INTO flashcards (`+flashCardColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		c.ID.String(),
		c.Front,
		c.Back,
		c.EaseFactor,
		c.Interval,
		c.Repetitions,
		utc(c.NextReviewDate),
		nullTime(c.LastReviewedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert flashcard %s: %w", c.ID, err)
	}
	return nil
}

// FetchAll returns every card, earliest next review date first.
func (s *FlashCards) FetchAll(ctx context.Context) ([]*domain.FlashCard, error) {
	rows, err := s.conn.QueryContext(ctx, `
		SELECT `+flashCardColumns+`
		FROM flashcards
		ORDER BY next_review_date ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to get flashcards: %w", err)
	}
	defer rows.Close()

	var cards []*domain.FlashCard
	for rows.Next() {
		c, err := scanFlashCard(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan flashcard row: %w", err)
		}
		cards = append(cards, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate flashcards: %w", err)
	}
	return cards, nil
}

// Get retrieves a card by ID.
func (s *FlashCards) Get(ctx context.Context, id uuid.UUID) (*domain.FlashCard, error) {
	row := s.conn.QueryRowContext(ctx, `
		SELECT `+flashCardColumns+`
		FROM flashcards WHERE id = ?
	`, id.String())

	c, err := scanFlashCard(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("flashcard %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to find flashcard %s: %w", id, err)
	}
	return c, nil
}

// Update persists the card's scheduling fields.
func (s *FlashCards) Update(ctx context.Context, c *domain.FlashCard) error {
	res, err := s.conn.ExecContext(ctx, `
		UPDATE flashcards
		SET ease_factor = ?, interval_days = ?, repetitions = ?, next_review_date = ?, last_reviewed_at = ?
		WHERE id = ?
	`,
		c.EaseFactor,
		c.Interval,
		c.Repetitions,
		utc(c.NextReviewDate),
		nullTime(c.LastReviewedAt),
		c.ID.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to update flashcard %s: %w", c.ID, err)
	}
	return expectOne(res, "flashcard", c.ID)
}

// Delete removes a card.
func (s *FlashCards) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := s.conn.ExecContext(ctx, `DELETE FROM flashcards WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("failed to delete flashcard %s: %w", id, err)
	}
	return expectOne(res, "flashcard", id)
}

func scanFlashCard(row scanner) (*domain.FlashCard, error) {
	var (
		c            domain.FlashCard
		lastReviewed sql.NullTime
	)
	err := row.Scan(
		&c.ID,
		&c.Front,
		&c.Back,
		&c.EaseFactor,
		&c.Interval,
		&c.Repetitions,
		&c.NextReviewDate,
		&lastReviewed,
	)
	if err != nil {
		return nil, err
	}
	c.LastReviewedAt = timePtr(lastReviewed)
	return &c, nil
}

func expectOne(res sql.Result, kind string, id uuid.UUID) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check %s %s: %w", kind, id, err)
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", kind, id, domain.ErrNotFound)
	}
	return nil
}
