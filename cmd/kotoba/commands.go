package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"

	"github.com/conorfennell/kotoba/internal/catalog"
	"github.com/conorfennell/kotoba/internal/domain"
	"github.com/conorfennell/kotoba/internal/library"
	"github.com/conorfennell/kotoba/internal/observe"
	"github.com/conorfennell/kotoba/internal/sync"
	"github.com/conorfennell/kotoba/internal/web"
)

func runAddCard(ctx context.Context, e *env, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("add-card takes <front> <back>: %w", errUsage)
	}
	b, svc, err := e.openCatalog(ctx)
	if err != nil {
		return err
	}
	defer b.close()

	c, err := svc.AddFlashCard(ctx, catalog.FlashCardInput{Front: args[0], Back: args[1]})
	if err != nil {
		return err
	}
	fmt.Fprintf(e.stdout, "Added card %s\n", c.ID)
	return nil
}

func runAddWord(ctx context.Context, e *env, args []string) error {
	if len(args) < 3 || len(args) > 4 {
		return fmt.Errorf("add-word takes <word> <reading> <meaning> [example]: %w", errUsage)
	}
	in := catalog.VocabularyInput{Word: args[0], Reading: args[1], Meaning: args[2]}
	if len(args) == 4 {
		in.ExampleSentence = args[3]
	}

	b, svc, err := e.openCatalog(ctx)
	if err != nil {
		return err
	}
	defer b.close()

	v, err := svc.AddVocabulary(ctx, in)
	if err != nil {
		return err
	}
	fmt.Fprintf(e.stdout, "Added %s %s\n", v.Label(), v.ID)
	return nil
}

func runWords(ctx context.Context, e *env, args []string) error {
	var search string
	if len(args) > 0 {
		search = args[0]
	}

	b, svc, err := e.openCatalog(ctx)
	if err != nil {
		return err
	}
	defer b.close()

	words, err := svc.Vocabulary(ctx, search)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(e.stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tWORD\tMEANING\tNEXT REVIEW")
	for _, v := range words {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", v.ID, v.Label(), v.Meaning, v.NextReviewDate.Local().Format(time.DateOnly))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(e.stdout, "%d word(s)\n", len(words))
	return nil
}

func runMakeCard(ctx context.Context, e *env, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("make-card takes <word-id>: %w", errUsage)
	}
	id, err := uuid.Parse(args[0])
	if err != nil {
		return fmt.Errorf("invalid word id %q: %w", args[0], err)
	}

	b, svc, err := e.openCatalog(ctx)
	if err != nil {
		return err
	}
	defer b.close()

	c, err := svc.CreateFlashCard(ctx, id)
	if err != nil {
		return err
	}
	fmt.Fprintf(e.stdout, "Created card %q / %q (%s)\n", c.Front, c.Back, c.ID)
	return nil
}

// loadLibrary resolves the configured source, fetching git sources, and
// parses it.
func (e *env) loadLibrary(ctx context.Context) (*library.Library, error) {
	dir, err := sync.Resolve(ctx, e.cfg.Library.Source, e.cfg.Library.ReposDir, e.stderr)
	if err != nil {
		return nil, err
	}
	return library.Load(os.DirFS(dir), e.logger), nil
}

func runLibrary(ctx context.Context, e *env, _ []string) error {
	levelFlag, _ := e.flags.GetString("level")
	category, _ := e.flags.GetString("category")
	search, _ := e.flags.GetString("search")
	doImport, _ := e.flags.GetBool("import")

	var level domain.JLPTLevel
	if levelFlag != "" {
		var err error
		if level, err = domain.ParseLevel(levelFlag); err != nil {
			return err
		}
	}

	lib, err := e.loadLibrary(ctx)
	if err != nil {
		return err
	}
	entries := lib.Filter(level, category, search)

	if !doImport {
		tw := tabwriter.NewWriter(e.stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "LEVEL\tCATEGORY\tWORD\tREADING\tMEANING")
		for _, en := range entries {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", en.Level, en.Category, en.Word, en.Reading, en.Meaning)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
		fmt.Fprintf(e.stdout, "%d word(s)\n", len(entries))
		return nil
	}

	b, svc, err := e.openCatalog(ctx)
	if err != nil {
		return err
	}
	defer b.close()

	added, err := svc.ImportEntries(ctx, entries)
	if err != nil {
		return err
	}
	fmt.Fprintf(e.stdout, "Imported %d of %d matching word(s).\n", added, len(entries))
	return nil
}

func runSync(ctx context.Context, e *env, _ []string) error {
	lib, err := e.loadLibrary(ctx)
	if err != nil {
		return err
	}
	for _, level := range domain.Levels {
		fmt.Fprintf(e.stdout, "%s: %d word(s)\n", level, len(lib.Filter(level, "", "")))
	}
	return nil
}

func runServe(ctx context.Context, e *env, _ []string) error {
	b, svc, err := e.openCatalog(ctx)
	if err != nil {
		return err
	}
	defer b.close()

	opts, err := e.sessionOptions()
	if err != nil {
		return err
	}

	lib, err := e.loadLibrary(ctx)
	if err != nil {
		e.logger.Warn("Library unavailable, starting with an empty one", "source", e.cfg.Library.Source, "error", err)
		lib = &library.Library{}
	}

	deps := web.Deps{
		Cards:          b.cards,
		Words:          b.words,
		Catalog:        svc,
		Library:        lib,
		Reload:         e.loadLibrary,
		SessionOptions: opts,
		Logger:         e.logger,
	}

	if e.cfg.Metrics.Enabled {
		metrics, shutdown, err := observe.InitProvider(ctx, observe.ProviderConfig{})
		if err != nil {
			return fmt.Errorf("init metrics: %w", err)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = shutdown(shutdownCtx)
		}()
		deps.Metrics = metrics
		deps.MetricsHandler = observe.Handler()
	}

	srv := &http.Server{
		Addr:              e.cfg.HTTP.Addr,
		Handler:           web.NewServer(deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		e.logger.Info("Starting server", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	e.logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
