package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/conorfennell/kotoba/internal/config"
	"github.com/conorfennell/kotoba/internal/logging"
)

const usage = `Usage: kotoba <command> [flags] [args]

Commands:
  review [cards|words]              Review the items that are due (default: cards)
  add-card <front> <back>           Add a flashcard
  add-word <word> <reading> <meaning> [example]
                                    Add a word to your vocabulary list
  words [search]                    List your vocabulary, newest first
  make-card <word-id>               Create a flashcard from a word
  library [--level N5] [--category C] [--search S] [--import]
                                    Browse the JLPT library, optionally importing matches
  sync                              Fetch the library source and report what it holds
  serve                             Run the JSON API

Run 'kotoba <command> --help' for the shared configuration flags.
`

var errUsage = errors.New("usage")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprint(os.Stderr, usage)
			os.Exit(2)
		}
		fmt.Fprintf(os.Stderr, "kotoba: %v\n", err)
		os.Exit(1)
	}
}

type command func(ctx context.Context, env *env, args []string) error

var commands = map[string]command{
	"review":    runReview,
	"add-card":  runAddCard,
	"add-word":  runAddWord,
	"words":     runWords,
	"make-card": runMakeCard,
	"library":   runLibrary,
	"sync":      runSync,
	"serve":     runServe,
}

// env carries what every command needs.
type env struct {
	cfg    *config.Config
	flags  *pflag.FlagSet
	logger *slog.Logger
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		return errUsage
	}
	name := args[0]
	cmd, ok := commands[name]
	if !ok {
		if name == "help" || name == "-h" || name == "--help" {
			fmt.Fprint(stdout, usage)
			return nil
		}
		return fmt.Errorf("unknown command %q: %w", name, errUsage)
	}

	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(stderr)
	config.RegisterFlags(fs)
	if name == "library" {
		fs.String("level", "", "JLPT level (N5 to N1)")
		fs.String("category", "", "Only this category")
		fs.String("search", "", "Text to look for in word, reading, meaning or category")
		fs.Bool("import", false, "Add the matching words to your vocabulary list")
	}
	if err := fs.Parse(args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	cfg, err := config.Load(fs)
	if err != nil {
		return err
	}
	logger, err := logging.New(stderr, cfg.Log)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	return cmd(ctx, &env{
		cfg:    cfg,
		flags:  fs,
		logger: logger,
		stdin:  stdin,
		stdout: stdout,
		stderr: stderr,
	}, fs.Args())
}
