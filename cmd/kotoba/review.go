package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/conorfennell/kotoba/internal/review"
	"github.com/conorfennell/kotoba/internal/srs"
)

func runReview(ctx context.Context, e *env, args []string) error {
	deck := "cards"
	if len(args) > 0 {
		deck = args[0]
	}

	b, err := openBackend(ctx, e.cfg.Storage)
	if err != nil {
		return err
	}
	defer b.close()

	opts, err := e.sessionOptions()
	if err != nil {
		return err
	}
	opts = append(opts, review.WithDeck(deck))

	in := bufio.NewScanner(e.stdin)
	switch deck {
	case "cards":
		return reviewLoop(ctx, review.NewSession(ctx, b.cards, opts...), in, e.stdout)
	case "words":
		return reviewLoop(ctx, review.NewSession(ctx, b.words, opts...), in, e.stdout)
	}
	return fmt.Errorf("unknown deck %q (want cards or words)", deck)
}

var ratingKeys = map[string]srs.Quality{
	"f": srs.Fail,
	"h": srs.Hard,
	"g": srs.Good,
	"e": srs.Easy,
}

// errQuit ends the loop early at the learner's request.
var errQuit = errors.New("quit")

// reviewLoop runs an interactive session: show the prompt, wait for Enter,
// show the answer, then read a rating.
func reviewLoop[T review.Item](ctx context.Context, s *review.Session[T], in *bufio.Scanner, out io.Writer) error {
	reviewed := 0
	for {
		item, ok := s.Current()
		if !ok {
			if reviewed == 0 {
				fmt.Fprintln(out, "Nothing is due. Come back later!")
			} else {
				fmt.Fprintf(out, "Session complete: %d reviewed.\n", reviewed)
			}
			return nil
		}

		fmt.Fprintf(out, "\n[%s] %s\n", s.Progress(), item.Prompt())
		fmt.Fprint(out, "Press Enter to show the answer...")
		if _, err := readLine(in); err != nil {
			return ignoreQuit(err)
		}
		fmt.Fprintf(out, "  %s\n", item.Answer())

		for {
			fmt.Fprint(out, "Rate (f)ail (h)ard (g)ood (e)asy, (r)eset, (q)uit: ")
			line, err := readLine(in)
			if err != nil {
				return ignoreQuit(err)
			}

			if line == "r" {
				s.Reset(ctx)
				fmt.Fprintf(out, "Reloaded: %d due.\n", s.Len())
				break
			}

			q, ok := ratingKeys[line]
			if !ok {
				var perr error
				if q, perr = srs.ParseQuality(line); perr != nil {
					fmt.Fprintf(out, "Unrecognised rating %q.\n", line)
					continue
				}
			}

			if err := s.Rate(ctx, q); err != nil {
				if !errors.Is(err, review.ErrStoreWrite) {
					return err
				}
				fmt.Fprintf(out, "Warning: %v\n", err)
				if cur, ok := s.Current(); ok && cur.ItemID() == item.ItemID() {
					continue
				}
			} else {
				reviewed++
				st := item.Schedule()
				fmt.Fprintf(out, "Next review in %d day(s).\n", st.Interval)
			}
			break
		}
	}
}

func readLine(in *bufio.Scanner) (string, error) {
	if !in.Scan() {
		if err := in.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	line := strings.ToLower(strings.TrimSpace(in.Text()))
	if line == "q" {
		return "", errQuit
	}
	return line, nil
}

func ignoreQuit(err error) error {
	if errors.Is(err, errQuit) || errors.Is(err, io.EOF) {
		return nil
	}
	return err
}
