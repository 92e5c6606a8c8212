package domain

import (
	"fmt"
	"strings"
)

// JLPTLevel is a Japanese Language Proficiency Test level.
type JLPTLevel string

const (
	N5 JLPTLevel = "N5"
	N4 JLPTLevel = "N4"
	N3 JLPTLevel = "N3"
	N2 JLPTLevel = "N2"
	N1 JLPTLevel = "N1"
)

// Levels lists every level from easiest to hardest.
var Levels = []JLPTLevel{N5, N4, N3, N2, N1}

// ParseLevel accepts "N3" or "n3".
func ParseLevel(s string) (JLPTLevel, error) {
	l := JLPTLevel(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range Levels {
		if l == known {
			return l, nil
		}
	}
	return "", fmt.Errorf("unknown JLPT level %q", s)
}

// FileName is the markdown file holding the level's word list.
func (l JLPTLevel) FileName() string {
	return string(l) + "_vocabulary.md"
}

// JLPTEntry is one word of the bundled JLPT library. Library entries are
// read-only; learners copy them into their personal list.
type JLPTEntry struct {
	Word     string
	Reading  string
	Meaning  string
	Level    JLPTLevel
	Category string
}
