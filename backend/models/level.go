package models

import "strings"

// Level is a CEFR proficiency level. Content and students are both tagged
// with one; levels form a total order and B1 upwards is premium content.
type Level string

const (
	LevelA1 Level = "A1"
	LevelA2 Level = "A2"
	LevelB1 Level = "B1"
	LevelB2 Level = "B2"
	LevelC1 Level = "C1"
	LevelC2 Level = "C2" // reserved, no content yet
)

var levelOrder = []Level{LevelA1, LevelA2, LevelB1, LevelB2, LevelC1, LevelC2}

// ParseLevel accepts user input like "b1" and returns the canonical level.
func ParseLevel(s string) (Level, bool) {
	l := Level(strings.ToUpper(strings.TrimSpace(s)))
	if l.Valid() {
		return l, true
	}
	return "", false
}

func (l Level) Valid() bool {
	return l.Rank() > 0
}

// Rank returns the 1-based position in the level order, 0 for unknown levels.
func (l Level) Rank() int {
	for i, lvl := range levelOrder {
		if lvl == l {
			return i + 1
		}
	}
	return 0
}

// IsPremium reports whether content at this level requires an active
// premium subscription. A1/A2 are free.
func (l Level) IsPremium() bool {
	return l.Rank() >= LevelB1.Rank()
}

// Next returns the level one rank above, if any.
func (l Level) Next() (Level, bool) {
	r := l.Rank()
	if r == 0 || r >= len(levelOrder) {
		return "", false
	}
	return levelOrder[r], true
}

// AllLevels returns the level order, lowest first.
func AllLevels() []Level {
	out := make([]Level, len(levelOrder))
	copy(out, levelOrder)
	return out
}
