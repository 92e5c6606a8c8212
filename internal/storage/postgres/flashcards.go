package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/conorfennell/kotoba/internal/domain"
)

// FlashCards provides access to flashcards in the database.
type FlashCards struct {
	db DBTX
}

func NewFlashCards(db DBTX) *FlashCards {
	return &FlashCards{db: db}
}

const flashCardColumns = `id, front, back, ease_factor, interval_days, repetitions, next_review_date, last_reviewed_at`

// Insert adds a new card.
func (r *FlashCards) Insert(ctx context.Context, c *domain.FlashCard) error {
	query := `
		INSERT INTO flashcards (` + flashCardColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.db.Exec(ctx, query,
		c.ID, c.Front, c.Back,
		c.EaseFactor, c.Interval, c.Repetitions, c.NextReviewDate, c.LastReviewedAt,
	)
	if err != nil {
		return fmt.Errorf("insert flashcard: %w", err)
	}
	return nil
}

// FetchAll returns every card, earliest next review date first.
func (r *FlashCards) FetchAll(ctx context.Context) ([]*domain.FlashCard, error) {
	query := `SELECT ` + flashCardColumns + ` FROM flashcards ORDER BY next_review_date ASC`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query flashcards: %w", err)
	}
	defer rows.Close()

	var cards []*domain.FlashCard
	for rows.Next() {
		c, err := scanFlashCard(rows)
		if err != nil {
			return nil, fmt.Errorf("scan flashcard: %w", err)
		}
		cards = append(cards, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate flashcards: %w", err)
	}
	return cards, nil
}

// Get retrieves a card by ID.
func (r *FlashCards) Get(ctx context.Context, id uuid.UUID) (*domain.FlashCard, error) {
	query := `SELECT ` + flashCardColumns + ` FROM flashcards WHERE id = $1`

	c, err := scanFlashCard(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("flashcard %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get flashcard: %w", err)
	}
	return c, nil
}

// Update persists the card's scheduling fields.
func (r *FlashCards) Update(ctx context.Context, c *domain.FlashCard) error {
	query := `
		UPDATE flashcards
		SET ease_factor = $2, interval_days = $3, repetitions = $4,
		    next_review_date = $5, last_reviewed_at = $6
		WHERE id = $1
	`
	tag, err := r.db.Exec(ctx, query,
		c.ID, c.EaseFactor, c.Interval, c.Repetitions, c.NextReviewDate, c.LastReviewedAt,
	)
	if err != nil {
		return fmt.Errorf("update flashcard: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("flashcard %s: %w", c.ID, domain.ErrNotFound)
	}
	return nil
}

// Delete removes a card.
func (r *FlashCards) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM flashcards WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete flashcard: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("flashcard %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

func scanFlashCard(row pgx.Row) (*domain.FlashCard, error) {
	var c domain.FlashCard
	err := row.Scan(
		&c.ID,
		&c.Front,
		&c.Back,
		&c.EaseFactor,
		&c.Interval,
		&c.Repetitions,
		&c.NextReviewDate,
		&c.LastReviewedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}
