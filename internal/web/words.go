package web

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/conorfennell/kotoba/internal/catalog"
	"github.com/conorfennell/kotoba/internal/domain"
)

type wordView struct {
	ID              uuid.UUID `json:"id"`
	Word            string    `json:"word"`
	Reading         string    `json:"reading"`
	Meaning         string    `json:"meaning"`
	ExampleSentence string    `json:"example_sentence,omitempty"`
	AddedAt         time.Time `json:"added_at"`
	NextReviewDate  time.Time `json:"next_review_date"`
	Interval        int       `json:"interval"`
	Repetitions     int       `json:"repetitions"`
}

func newWordView(v *domain.VocabularyItem) wordView {
	return wordView{
		ID:              v.ID,
		Word:            v.Word,
		Reading:         v.Reading,
		Meaning:         v.Meaning,
		ExampleSentence: v.ExampleSentence,
		AddedAt:         v.AddedAt,
		NextReviewDate:  v.NextReviewDate,
		Interval:        v.Interval,
		Repetitions:     v.Repetitions,
	}
}

type cardView struct {
	ID             uuid.UUID `json:"id"`
	Front          string    `json:"front"`
	Back           string    `json:"back"`
	NextReviewDate time.Time `json:"next_review_date"`
}

func newCardView(c *domain.FlashCard) cardView {
	return cardView{ID: c.ID, Front: c.Front, Back: c.Back, NextReviewDate: c.NextReviewDate}
}

func pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		badRequest(w, "invalid id")
		return uuid.Nil, false
	}
	return id, true
}

func (s *Server) handleListWords() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		words, err := s.deps.Catalog.Vocabulary(r.Context(), r.URL.Query().Get("q"))
		if err != nil {
			s.fail(w, r, err)
			return
		}
		out := make([]wordView, 0, len(words))
		for _, v := range words {
			out = append(out, newWordView(v))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func (s *Server) handleAddWord() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in catalog.VocabularyInput
		if err := decode(r, &in); err != nil {
			badRequest(w, "invalid body: "+err.Error())
			return
		}
		v, err := s.deps.Catalog.AddVocabulary(r.Context(), in)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, newWordView(v))
	}
}

func (s *Server) handleUpdateWord() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		var in catalog.VocabularyInput
		if err := decode(r, &in); err != nil {
			badRequest(w, "invalid body: "+err.Error())
			return
		}
		v, err := s.deps.Catalog.UpdateVocabulary(r.Context(), id, in)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, newWordView(v))
	}
}

func (s *Server) handleDeleteWord() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		if err := s.deps.Catalog.DeleteVocabulary(r.Context(), id); err != nil {
			s.fail(w, r, err)
			return
		}
		s.dropDeck(deckWords)
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) handleMakeCard() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		c, err := s.deps.Catalog.CreateFlashCard(r.Context(), id)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, newCardView(c))
	}
}

func (s *Server) handleAddCard() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in catalog.FlashCardInput
		if err := decode(r, &in); err != nil {
			badRequest(w, "invalid body: "+err.Error())
			return
		}
		c, err := s.deps.Catalog.AddFlashCard(r.Context(), in)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, newCardView(c))
	}
}
