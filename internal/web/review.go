package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/conorfennell/kotoba/internal/domain"
	"github.com/conorfennell/kotoba/internal/review"
	"github.com/conorfennell/kotoba/internal/srs"
)

const (
	deckCards = "cards"
	deckWords = "words"
)

// deck hides the item type of a review session from the handlers.
type deck interface {
	view() sessionView
	rate(ctx context.Context, q srs.Quality) error
	reset(ctx context.Context)
}

type sessionDeck[T review.Item] struct {
	name    string
	session *review.Session[T]
}

func (d *sessionDeck[T]) view() sessionView {
	v := sessionView{
		Deck:     d.name,
		Phase:    d.session.Phase().String(),
		Progress: d.session.Progress(),
		Position: d.session.Position(),
		Total:    d.session.Len(),
	}
	if item, ok := d.session.Current(); ok {
		v.Current = newItemView(item)
	}
	return v
}

func (d *sessionDeck[T]) rate(ctx context.Context, q srs.Quality) error {
	return d.session.Rate(ctx, q)
}

func (d *sessionDeck[T]) reset(ctx context.Context) {
	d.session.Reset(ctx)
}

type sessionView struct {
	Deck     string    `json:"deck"`
	Phase    string    `json:"phase"`
	Progress string    `json:"progress"`
	Position int       `json:"position"`
	Total    int       `json:"total"`
	Current  *itemView `json:"current"`
}

type itemView struct {
	ID             uuid.UUID `json:"id"`
	Prompt         string    `json:"prompt"`
	Answer         string    `json:"answer"`
	EaseFactor     float64   `json:"ease_factor"`
	Interval       int       `json:"interval"`
	Repetitions    int       `json:"repetitions"`
	NextReviewDate time.Time `json:"next_review_date"`
}

func newItemView(item review.Item) *itemView {
	st := item.Schedule()
	return &itemView{
		ID:             item.ItemID(),
		Prompt:         item.Prompt(),
		Answer:         item.Answer(),
		EaseFactor:     st.EaseFactor,
		Interval:       st.Interval,
		Repetitions:    st.Repetitions,
		NextReviewDate: st.NextReviewDate,
	}
}

// dropDeck discards a cached session so the next request loads it afresh.
func (s *Server) dropDeck(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.decks, name)
}

// deck returns the named session, loading it on first use. Callers hold s.mu.
func (s *Server) deck(ctx context.Context, name string) (deck, bool) {
	if d, ok := s.decks[name]; ok {
		return d, true
	}

	opts := slices.Clone(s.deps.SessionOptions)
	if s.deps.Metrics != nil {
		opts = append(opts, review.WithRecorder(s.deps.Metrics))
	}
	opts = append(opts, review.WithDeck(name), review.WithLogger(s.logger))

	var d deck
	switch {
	case name == deckCards && s.deps.Cards != nil:
		d = &sessionDeck[*domain.FlashCard]{name: name, session: review.NewSession(ctx, s.deps.Cards, opts...)}
	case name == deckWords && s.deps.Words != nil:
		d = &sessionDeck[*domain.VocabularyItem]{name: name, session: review.NewSession(ctx, s.deps.Words, opts...)}
	default:
		return nil, false
	}
	s.decks[name] = d
	return d, true
}

func (s *Server) handleGetReview() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()

		d, ok := s.deck(r.Context(), r.PathValue("deck"))
		if !ok {
			http.NotFound(w, r)
			return
		}
		writeJSON(w, http.StatusOK, d.view())
	}
}

type rateRequest struct {
	Quality *quality `json:"quality"`
}

// quality accepts a gradation name or a number, as JSON string or number.
type quality srs.Quality

func (q *quality) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		s = string(b)
	}
	parsed, err := srs.ParseQuality(s)
	if err != nil {
		return err
	}
	*q = quality(parsed)
	return nil
}

func (s *Server) handlePostReview() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req rateRequest
		if err := decode(r, &req); err != nil {
			badRequest(w, "invalid body: "+err.Error())
			return
		}
		if req.Quality == nil {
			badRequest(w, "quality is required")
			return
		}

		s.mu.Lock()
		defer s.mu.Unlock()

		d, ok := s.deck(r.Context(), r.PathValue("deck"))
		if !ok {
			http.NotFound(w, r)
			return
		}

		if err := d.rate(r.Context(), srs.Quality(*req.Quality)); err != nil {
			if errors.Is(err, review.ErrStoreWrite) {
				status := http.StatusInternalServerError
				if errors.Is(err, domain.ErrNotFound) {
					// Deleted since the session loaded.
					status = http.StatusConflict
					s.logger.Warn("Reviewed item no longer exists", "deck", r.PathValue("deck"), "error", err)
				} else {
					s.logger.Error("Review not saved", "deck", r.PathValue("deck"), "error", err)
				}
				view := d.view()
				writeJSON(w, status, errorResponse{Error: err.Error(), Session: &view})
				return
			}
			s.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, d.view())
	}
}

func (s *Server) handleResetReview() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()

		d, ok := s.deck(r.Context(), r.PathValue("deck"))
		if !ok {
			http.NotFound(w, r)
			return
		}
		d.reset(r.Context())
		writeJSON(w, http.StatusOK, d.view())
	}
}
