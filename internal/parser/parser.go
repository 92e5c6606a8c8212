package parser

import (
	"bufio"
	"io"
	"os"
	"strings"

	"github.com/conorfennell/kotoba/internal/domain"
)

const (
	categoryPrefix    = "##"
	subheadingPrefix  = "###"
	cellSeparator     = "|"
	defaultCategory   = "General"
	minimumCellsInRow = 3
)

// ParseFile reads a JLPT vocabulary file and extracts all entries.
func ParseFile(path string, level domain.JLPTLevel) ([]domain.JLPTEntry, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return Parse(file, level)
}

// Parse reads a JLPT vocabulary list in markdown. Words are table rows of
// the form "| Word | Reading | Meaning |" grouped under "## Category"
// headings. Header, separator and short rows are skipped.
func Parse(r io.Reader, level domain.JLPTLevel) ([]domain.JLPTEntry, error) {
	scanner := bufio.NewScanner(r)
	var entries []domain.JLPTEntry
	category := defaultCategory

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if strings.HasPrefix(line, categoryPrefix) && !strings.HasPrefix(line, subheadingPrefix) {
			category = strings.TrimSpace(strings.ReplaceAll(line, categoryPrefix, ""))
			continue
		}

		if !isWordRow(line) {
			continue
		}

		cells := splitRow(line)
		if len(cells) < minimumCellsInRow {
			continue
		}

		entries = append(entries, domain.JLPTEntry{
			Word:     cells[0],
			Reading:  cells[1],
			Meaning:  cells[2],
			Level:    level,
			Category: category,
		})
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return entries, nil
}

func isWordRow(line string) bool {
	return strings.HasPrefix(line, cellSeparator) &&
		!strings.Contains(line, "---") &&
		!strings.Contains(line, "Word") &&
		!strings.Contains(line, "Reading")
}

// splitRow returns the non-empty trimmed cells of a table row.
func splitRow(line string) []string {
	var cells []string
	for _, cell := range strings.Split(line, cellSeparator) {
		if c := strings.TrimSpace(cell); c != "" {
			cells = append(cells, c)
		}
	}
	return cells
}
