// Package library holds the bundled JLPT word lists, one markdown file per
// level, and answers the filter queries of the library browser.
package library

import (
	"errors"
	"io/fs"
	"log/slog"
	"slices"
	"strings"

	"github.com/conorfennell/kotoba/internal/domain"
	"github.com/conorfennell/kotoba/internal/parser"
)

// Library is an immutable, in-memory JLPT catalog.
type Library struct {
	byLevel map[domain.JLPTLevel][]domain.JLPTEntry
	all     []domain.JLPTEntry
}

// Load reads "<level>_vocabulary.md" for every level from fsys. A missing
// or unreadable level is logged and left empty.
func Load(fsys fs.FS, logger *slog.Logger) *Library {
	if logger == nil {
		logger = slog.Default()
	}
	lib := &Library{byLevel: make(map[domain.JLPTLevel][]domain.JLPTEntry)}
	categories := make(map[string]struct{})

	for _, level := range domain.Levels {
		f, err := fsys.Open(level.FileName())
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				logger.Warn("Vocabulary file not found", "level", level, "file", level.FileName())
			} else {
				logger.Warn("Could not open vocabulary file", "level", level, "error", err)
			}
			continue
		}
		entries, err := parser.Parse(f, level)
		f.Close()
		if err != nil {
			logger.Warn("Could not read vocabulary file", "level", level, "error", err)
			continue
		}

		lib.byLevel[level] = entries
		lib.all = append(lib.all, entries...)
		for _, e := range entries {
			categories[e.Category] = struct{}{}
		}
		logger.Debug("Loaded words", "level", level, "count", len(entries))
	}

	logger.Info("Loaded JLPT library", "words", len(lib.all), "categories", len(categories))
	return lib
}

// Len is the number of entries across all levels.
func (l *Library) Len() int { return len(l.all) }

// Filter returns the entries matching every non-empty criterion. The search
// text matches word, reading, meaning or category, case-insensitively.
func (l *Library) Filter(level domain.JLPTLevel, category, search string) []domain.JLPTEntry {
	entries := l.all
	if level != "" {
		entries = l.byLevel[level]
	}

	search = strings.ToLower(search)
	var out []domain.JLPTEntry
	for _, e := range entries {
		if category != "" && e.Category != category {
			continue
		}
		if search != "" && !matches(e, search) {
			continue
		}
		out = append(out, e)
	}
	return out
}

func matches(e domain.JLPTEntry, search string) bool {
	for _, field := range []string{e.Word, e.Reading, e.Meaning, e.Category} {
		if strings.Contains(strings.ToLower(field), search) {
			return true
		}
	}
	return false
}

// Categories lists the distinct categories of a level, or of the whole
// library when level is empty, sorted.
func (l *Library) Categories(level domain.JLPTLevel) []string {
	entries := l.all
	if level != "" {
		entries = l.byLevel[level]
	}
	seen := make(map[string]struct{})
	var out []string
	for _, e := range entries {
		if _, ok := seen[e.Category]; ok {
			continue
		}
		seen[e.Category] = struct{}{}
		out = append(out, e.Category)
	}
	slices.Sort(out)
	return out
}
