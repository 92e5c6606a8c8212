package srs

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Quality is the learner's rating of a recall attempt, from 0 (complete
// blackout) to 5 (perfect, effortless recall).
type Quality int

// The four gradations offered to learners. Ratings 1 and 2 are valid
// inputs to Calculate but are never issued by the drivers.
const (
	Fail Quality = 0
	Hard Quality = 3
	Good Quality = 4
	Easy Quality = 5
)

const (
	// InitialEaseFactor is the ease factor of a newly created item.
	InitialEaseFactor = 2.5
	// MinEaseFactor is the floor applied after every rating.
	MinEaseFactor = 1.3

	passThreshold = 3
)

// ErrInvalidQuality is returned by ParseQuality for unrecognised input.
var ErrInvalidQuality = errors.New("srs: invalid quality")

var qualityByName = map[string]Quality{
	"fail":  Fail,
	"again": Fail,
	"hard":  Hard,
	"good":  Good,
	"easy":  Easy,
}

// ParseQuality accepts a gradation name (fail, hard, good, easy) or a
// single digit between 0 and 5.
func ParseQuality(s string) (Quality, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if q, ok := qualityByName[s]; ok {
		return q, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 || n > 5 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidQuality, s)
	}
	return Quality(n), nil
}

// String returns the gradation name, or the digit for ratings 1 and 2.
func (q Quality) String() string {
	switch q {
	case Fail:
		return "fail"
	case Hard:
		return "hard"
	case Good:
		return "good"
	case Easy:
		return "easy"
	}
	return strconv.Itoa(int(q))
}

// Passed reports whether q counts as a correct recall.
func (q Quality) Passed() bool {
	return q >= passThreshold
}

// State is the SM-2 scheduling state carried by every reviewable item.
type State struct {
	EaseFactor     float64
	Interval       int // days
	Repetitions    int // consecutive correct recalls
	NextReviewDate time.Time
	LastReviewedAt *time.Time
}

// NewState returns the state of an item created at now. The item is due
// immediately.
func NewState(now time.Time) State {
	return State{
		EaseFactor:     InitialEaseFactor,
		NextReviewDate: now,
	}
}

// IsDue reports whether the item should be reviewed at now.
func (s State) IsDue(now time.Time) bool {
	return !s.NextReviewDate.After(now)
}

// Apply rates the item at now and stores the resulting schedule.
func (s *State) Apply(q Quality, now time.Time) {
	res := Calculate(q, s.EaseFactor, s.Interval, s.Repetitions, now)
	reviewed := now
	s.LastReviewedAt = &reviewed
	s.EaseFactor = res.EaseFactor
	s.Interval = res.Interval
	s.Repetitions = res.Repetitions
	s.NextReviewDate = res.NextReviewDate
}

// Result is the outcome of a single rating.
type Result struct {
	EaseFactor     float64
	Interval       int
	Repetitions    int
	NextReviewDate time.Time
}

// Calculate applies the SM-2 update for one rating given the item's current
// values. It is pure: the same inputs always produce the same Result.
//
// The ease factor is updated for every rating and floored at MinEaseFactor
// before the interval is derived, so interval growth uses the new ease.
// Intervals beyond the second repetition truncate toward zero. The next
// review date is now plus the interval in calendar days.
func Calculate(q Quality, easeFactor float64, interval, repetitions int, now time.Time) Result {
	d := float64(5 - q)
	ef := math.Max(MinEaseFactor, easeFactor+(0.1-d*(0.08+d*0.02)))

	if q.Passed() {
		repetitions++
		switch repetitions {
		case 1:
			interval = 1
		case 2:
			interval = 6
		default:
			interval = int(float64(interval) * ef)
		}
	} else {
		repetitions = 0
		interval = 1
	}

	return Result{
		EaseFactor:     ef,
		Interval:       interval,
		Repetitions:    repetitions,
		NextReviewDate: now.AddDate(0, 0, interval),
	}
}
