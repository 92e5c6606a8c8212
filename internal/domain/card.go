package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/conorfennell/kotoba/internal/srs"
	"github.com/google/uuid"
)

// ErrNotFound is returned by stores when no item matches the given ID.
var ErrNotFound = errors.New("not found")

// FlashCard is a free-form two-sided card.
type FlashCard struct {
	ID    uuid.UUID
	Front string
	Back  string
	srs.State
}

// NewFlashCard creates a card that is due immediately.
func NewFlashCard(front, back string, now time.Time) *FlashCard {
	return &FlashCard{
		ID:    uuid.New(),
		Front: front,
		Back:  back,
		State: srs.NewState(now),
	}
}

func (c *FlashCard) ItemID() uuid.UUID    { return c.ID }
func (c *FlashCard) Prompt() string       { return c.Front }
func (c *FlashCard) Answer() string       { return c.Back }
func (c *FlashCard) Schedule() *srs.State { return &c.State }

// VocabularyItem is a word in the learner's personal list.
type VocabularyItem struct {
	ID              uuid.UUID
	Word            string
	Reading         string
	Meaning         string
	ExampleSentence string // empty when absent
	AddedAt         time.Time
	srs.State
}

// NewVocabularyItem creates a word that is due immediately.
func NewVocabularyItem(word, reading, meaning, example string, now time.Time) *VocabularyItem {
	return &VocabularyItem{
		ID:              uuid.New(),
		Word:            word,
		Reading:         reading,
		Meaning:         meaning,
		ExampleSentence: example,
		AddedAt:         now,
		State:           srs.NewState(now),
	}
}

func (v *VocabularyItem) ItemID() uuid.UUID    { return v.ID }
func (v *VocabularyItem) Prompt() string       { return v.Label() }
func (v *VocabularyItem) Answer() string       { return v.Meaning }
func (v *VocabularyItem) Schedule() *srs.State { return &v.State }

// Label renders the word with its reading, e.g. "家族 (かぞく)".
func (v *VocabularyItem) Label() string {
	return fmt.Sprintf("%s (%s)", v.Word, v.Reading)
}

// FlashCardFromVocabulary builds a new card for the word. The card has its
// own schedule, independent of the word's.
func FlashCardFromVocabulary(v *VocabularyItem, now time.Time) *FlashCard {
	return NewFlashCard(v.Label(), v.Meaning, now)
}
