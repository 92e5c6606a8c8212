// Package catalog manages the learner's flashcards and personal vocabulary
// list: adding, editing and searching entries, turning words into cards, and
// importing words from the JLPT library.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/conorfennell/kotoba/internal/domain"
	"github.com/conorfennell/kotoba/internal/knol"
)

// ErrInvalidInput wraps validation failures.
var ErrInvalidInput = errors.New("invalid input")

// FlashCardStore persists flashcards.
type FlashCardStore interface {
	Insert(ctx context.Context, c *domain.FlashCard) error
}

// VocabularyStore persists the word list.
type VocabularyStore interface {
	Insert(ctx context.Context, v *domain.VocabularyItem) error
	List(ctx context.Context) ([]*domain.VocabularyItem, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.VocabularyItem, error)
	HasWord(ctx context.Context, word string) (bool, error)
	UpdateContent(ctx context.Context, v *domain.VocabularyItem) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// WordWriter is the part of a VocabularyStore that an import writes through.
type WordWriter interface {
	HasWord(ctx context.Context, word string) (bool, error)
	Insert(ctx context.Context, v *domain.VocabularyItem) error
}

// Transactor runs fn against a word store bound to a single transaction. The
// transaction commits when fn returns nil and rolls back otherwise.
type Transactor func(ctx context.Context, fn func(ctx context.Context, words WordWriter) error) error

// FlashCardInput is the user-supplied content of a card.
type FlashCardInput struct {
	Front string `json:"front" validate:"required,max=500"`
	Back  string `json:"back" validate:"required,max=2000"`
}

// VocabularyInput is the user-supplied content of a word.
type VocabularyInput struct {
	Word            string `json:"word" validate:"required,max=100"`
	Reading         string `json:"reading" validate:"required,max=200"`
	Meaning         string `json:"meaning" validate:"required,max=500"`
	ExampleSentence string `json:"example_sentence" validate:"omitempty,max=1000"`
}

func (in *VocabularyInput) trim() {
	in.Word = strings.TrimSpace(in.Word)
	in.Reading = strings.TrimSpace(in.Reading)
	in.Meaning = strings.TrimSpace(in.Meaning)
	in.ExampleSentence = strings.TrimSpace(in.ExampleSentence)
}

// Service implements the catalog operations on top of a pair of stores.
type Service struct {
	cards    FlashCardStore
	words    VocabularyStore
	validate *validator.Validate
	inTx     Transactor
	atomic   bool
	now      func() time.Time
	logger   *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithTransactor makes ImportEntries all-or-nothing.
func WithTransactor(tx Transactor) Option {
	return func(s *Service) {
		if tx != nil {
			s.inTx = tx
			s.atomic = true
		}
	}
}

func New(cards FlashCardStore, words VocabularyStore, opts ...Option) *Service {
	s := &Service{
		cards:    cards,
		words:    words,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		now:      time.Now,
		logger:   slog.Default(),
	}
	s.inTx = func(ctx context.Context, fn func(context.Context, WordWriter) error) error {
		return fn(ctx, s.words)
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) check(in any) error {
	if err := s.validate.Struct(in); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fmt.Sprintf("%s (%s)", strings.ToLower(fe.Field()), fe.Tag()))
			}
			return fmt.Errorf("%w: %s", ErrInvalidInput, strings.Join(fields, ", "))
		}
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return nil
}

// AddFlashCard creates a card that is due immediately.
func (s *Service) AddFlashCard(ctx context.Context, in FlashCardInput) (*domain.FlashCard, error) {
	in.Front = strings.TrimSpace(in.Front)
	in.Back = strings.TrimSpace(in.Back)
	if err := s.check(in); err != nil {
		return nil, err
	}

	c := domain.NewFlashCard(in.Front, in.Back, s.now())
	if err := s.cards.Insert(ctx, c); err != nil {
		return nil, fmt.Errorf("add flashcard: %w", err)
	}
	s.logger.Info("Added flashcard", "id", c.ID)
	return c, nil
}

// AddVocabulary adds a word to the personal list. The word is due immediately.
func (s *Service) AddVocabulary(ctx context.Context, in VocabularyInput) (*domain.VocabularyItem, error) {
	in.trim()
	if err := s.check(in); err != nil {
		return nil, err
	}

	v := domain.NewVocabularyItem(in.Word, in.Reading, in.Meaning, in.ExampleSentence, s.now())
	if err := s.words.Insert(ctx, v); err != nil {
		return nil, fmt.Errorf("add word: %w", err)
	}
	s.logger.Info("Added word", "id", v.ID, "word", v.Word)
	return v, nil
}

// UpdateVocabulary replaces a word's text. Its schedule is unchanged.
func (s *Service) UpdateVocabulary(ctx context.Context, id uuid.UUID, in VocabularyInput) (*domain.VocabularyItem, error) {
	in.trim()
	if err := s.check(in); err != nil {
		return nil, err
	}

	v, err := s.words.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	v.Word, v.Reading, v.Meaning, v.ExampleSentence = in.Word, in.Reading, in.Meaning, in.ExampleSentence
	if err := s.words.UpdateContent(ctx, v); err != nil {
		return nil, fmt.Errorf("update word: %w", err)
	}
	return v, nil
}

func (s *Service) DeleteVocabulary(ctx context.Context, id uuid.UUID) error {
	if err := s.words.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete word: %w", err)
	}
	return nil
}

// Vocabulary lists the personal words, newest first. A non-empty search
// keeps only words whose text, reading or meaning contains it, ignoring case.
func (s *Service) Vocabulary(ctx context.Context, search string) ([]*domain.VocabularyItem, error) {
	words, err := s.words.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list words: %w", err)
	}

	search = strings.ToLower(strings.TrimSpace(search))
	if search == "" {
		return words, nil
	}

	var out []*domain.VocabularyItem
	for _, v := range words {
		if strings.Contains(strings.ToLower(v.Word), search) ||
			strings.Contains(strings.ToLower(v.Reading), search) ||
			strings.Contains(strings.ToLower(v.Meaning), search) {
			out = append(out, v)
		}
	}
	return out, nil
}

// CreateFlashCard makes a new card from a word in the list.
func (s *Service) CreateFlashCard(ctx context.Context, vocabID uuid.UUID) (*domain.FlashCard, error) {
	v, err := s.words.Get(ctx, vocabID)
	if err != nil {
		return nil, err
	}

	c := domain.FlashCardFromVocabulary(v, s.now())
	if err := s.cards.Insert(ctx, c); err != nil {
		return nil, fmt.Errorf("create flashcard from %s: %w", v.Word, err)
	}
	s.logger.Info("Created flashcard from word", "id", c.ID, "word", v.Word)
	return c, nil
}

// ImportEntries adds library entries to the personal list, skipping words
// that are already present. It returns the number of words added. With a
// Transactor configured a failure leaves the list unchanged and reports zero.
func (s *Service) ImportEntries(ctx context.Context, entries []domain.JLPTEntry) (int, error) {
	now := s.now()
	added := 0

	err := s.inTx(ctx, func(ctx context.Context, words WordWriter) error {
		seen := make(map[string]bool, len(entries))
		added = 0
		for _, e := range entries {
			key := knol.Key(e.Word)
			if seen[key] {
				continue
			}
			seen[key] = true

			exists, err := words.HasWord(ctx, e.Word)
			if err != nil {
				return fmt.Errorf("import %s: %w", e.Word, err)
			}
			if exists {
				continue
			}

			v := domain.NewVocabularyItem(strings.TrimSpace(e.Word), e.Reading, e.Meaning, "", now)
			if err := words.Insert(ctx, v); err != nil {
				return fmt.Errorf("import %s: %w", e.Word, err)
			}
			added++
		}
		return nil
	})
	if err != nil {
		if s.atomic {
			return 0, err
		}
		return added, err
	}

	s.logger.Info("Imported library words", "requested", len(entries), "added", added)
	return added, nil
}
