package srs

import (
	"errors"
	"math"
	"testing"
	"time"
	_ "time/tzdata"
)

var t0 = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func TestCalculateIncorrectResets(t *testing.T) {
	for _, q := range []Quality{0, 1, 2} {
		for _, reps := range []int{0, 1, 2, 7} {
			res := Calculate(q, 2.5, 15, reps, t0)
			if res.Repetitions != 0 {
				t.Errorf("q=%d reps=%d: expected repetitions 0, but got %d", q, reps, res.Repetitions)
			}
			if res.Interval != 1 {
				t.Errorf("q=%d reps=%d: expected interval 1, but got %d", q, reps, res.Interval)
			}
		}
	}
}

func TestCalculateCorrectProgression(t *testing.T) {
	for _, q := range []Quality{3, 4, 5} {
		t.Run(q.String(), func(t *testing.T) {
			first := Calculate(q, 2.5, 0, 0, t0)
			if first.Repetitions != 1 || first.Interval != 1 {
				t.Errorf("Expected (reps 1, interval 1), but got (%d, %d)", first.Repetitions, first.Interval)
			}

			second := Calculate(q, 2.5, 1, 1, t0)
			if second.Repetitions != 2 || second.Interval != 6 {
				t.Errorf("Expected (reps 2, interval 6), but got (%d, %d)", second.Repetitions, second.Interval)
			}

			third := Calculate(q, 2.5, 6, 2, t0)
			want := int(6 * third.EaseFactor)
			if third.Repetitions != 3 || third.Interval != want {
				t.Errorf("Expected (reps 3, interval %d), but got (%d, %d)", want, third.Repetitions, third.Interval)
			}
		})
	}
}

func TestCalculateTruncatesInterval(t *testing.T) {
	// 7 * 2.6 = 18.2 and 10 * 1.3 = 13, both must truncate rather than round.
	res := Calculate(Easy, 2.5, 7, 4, t0)
	if res.Interval != 18 {
		t.Errorf("Expected interval 18, but got %d", res.Interval)
	}

	res = Calculate(Hard, 1.3, 10, 3, t0)
	if res.EaseFactor != MinEaseFactor {
		t.Fatalf("Expected ease to be floored at %.2f, but got %.4f", MinEaseFactor, res.EaseFactor)
	}
	if res.Interval != int(10*MinEaseFactor) {
		t.Errorf("Expected interval to use the floored ease, but got %d", res.Interval)
	}
}

func TestCalculateEaseFloor(t *testing.T) {
	for q := Quality(0); q <= 5; q++ {
		for _, ef := range []float64{1.3, 1.31, 1.5, 2.0, 2.5, 3.1} {
			res := Calculate(q, ef, 3, 2, t0)
			if res.EaseFactor < MinEaseFactor {
				t.Errorf("q=%d ef=%.2f: ease dropped to %.4f", q, ef, res.EaseFactor)
			}
		}
	}
}

func TestCalculateIsPure(t *testing.T) {
	a := Calculate(Good, 2.36, 15, 3, t0)
	b := Calculate(Good, 2.36, 15, 3, t0)
	if a != b {
		t.Errorf("Expected identical results, but got %+v and %+v", a, b)
	}
}

func TestCalculateScenarios(t *testing.T) {
	t.Run("perfect recall on third repetition", func(t *testing.T) {
		res := Calculate(Easy, 2.5, 6, 2, t0)
		if math.Abs(res.EaseFactor-2.6) > 1e-9 {
			t.Errorf("Expected ease 2.6, but got %.4f", res.EaseFactor)
		}
		if res.Repetitions != 3 {
			t.Errorf("Expected repetitions 3, but got %d", res.Repetitions)
		}
		if res.Interval != 15 {
			t.Errorf("Expected interval 15, but got %d", res.Interval)
		}
	})

	t.Run("blackout after a streak", func(t *testing.T) {
		res := Calculate(Fail, 2.5, 15, 3, t0)
		if math.Abs(res.EaseFactor-1.7) > 1e-9 {
			t.Errorf("Expected ease 1.7, but got %.4f", res.EaseFactor)
		}
		if res.Repetitions != 0 || res.Interval != 1 {
			t.Errorf("Expected (reps 0, interval 1), but got (%d, %d)", res.Repetitions, res.Interval)
		}
	})

	t.Run("new item rated good three times", func(t *testing.T) {
		s := NewState(t0)
		var intervals []int
		now := t0
		for range 3 {
			s.Apply(Good, now)
			intervals = append(intervals, s.Interval)
			now = s.NextReviewDate
		}
		want := []int{1, 6, int(6 * s.EaseFactor)}
		for i := range want {
			if intervals[i] != want[i] {
				t.Errorf("Expected intervals %v, but got %v", want, intervals)
				break
			}
		}
	})
}

func TestNextReviewDateUsesCalendarDays(t *testing.T) {
	t.Run("month boundary", func(t *testing.T) {
		now := time.Date(2026, 1, 31, 18, 30, 0, 0, time.UTC)
		res := Calculate(Good, 2.5, 0, 0, now)
		want := time.Date(2026, 2, 1, 18, 30, 0, 0, time.UTC)
		if !res.NextReviewDate.Equal(want) {
			t.Errorf("Expected %v, but got %v", want, res.NextReviewDate)
		}
	})

	t.Run("daylight saving change", func(t *testing.T) {
		loc, err := time.LoadLocation("America/New_York")
		if err != nil {
			t.Fatalf("LoadLocation: %v", err)
		}
		now := time.Date(2026, 3, 7, 12, 0, 0, 0, loc)
		res := Calculate(Fail, 2.5, 0, 0, now)
		got := res.NextReviewDate
		if got.Day() != 8 || got.Hour() != 12 {
			t.Errorf("Expected 2026-03-08 12:00 local, but got %v", got)
		}
		if elapsed := got.Sub(now); elapsed != 23*time.Hour {
			t.Errorf("Expected 23h across the DST change, but got %v", elapsed)
		}
	})
}

func TestApply(t *testing.T) {
	s := NewState(t0)
	if !s.IsDue(t0) {
		t.Fatal("Expected a new item to be due immediately")
	}

	now := t0.Add(time.Hour)
	s.Apply(Hard, now)

	if s.LastReviewedAt == nil || !s.LastReviewedAt.Equal(now) {
		t.Errorf("Expected LastReviewedAt %v, but got %v", now, s.LastReviewedAt)
	}
	if want := s.LastReviewedAt.AddDate(0, 0, s.Interval); !s.NextReviewDate.Equal(want) {
		t.Errorf("Expected NextReviewDate %v, but got %v", want, s.NextReviewDate)
	}
	if s.IsDue(now) {
		t.Error("Expected item not to be due right after a rating")
	}
}

func TestParseQuality(t *testing.T) {
	testCases := []struct {
		input string
		want  Quality
		err   bool
	}{
		{input: "fail", want: Fail},
		{input: "Hard", want: Hard},
		{input: " good ", want: Good},
		{input: "easy", want: Easy},
		{input: "2", want: 2},
		{input: "5", want: Easy},
		{input: "6", err: true},
		{input: "-1", err: true},
		{input: "meh", err: true},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			got, err := ParseQuality(tc.input)
			if tc.err {
				if !errors.Is(err, ErrInvalidQuality) {
					t.Errorf("Expected ErrInvalidQuality, but got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseQuality() returned an unexpected error: %v", err)
			}
			if got != tc.want {
				t.Errorf("Expected %v, but got %v", tc.want, got)
			}
		})
	}
}
