package catalog

import (
	"strings"

	"github.com/abhisek/quizlens/internal/grading"
)

// Level is an assessment-difficulty bucket.
type Level string

const (
	LevelKnowledge       Level = "knowledge"
	LevelComprehension   Level = "comprehension"
	LevelLowApplication  Level = "lowApplication"
	LevelHighApplication Level = "highApplication"
	LevelOther           Level = "other"
)

// Levels lists the buckets in display order.
var Levels = []Level{LevelKnowledge, LevelComprehension, LevelLowApplication, LevelHighApplication, LevelOther}

// Group is the questions of one level.
type Group struct {
	Level     Level              `json:"level"`
	Questions []grading.Question `json:"questions"`
}

// LevelOf buckets a topic label. Vietnamese and English labels are
// recognized; "(Knowledge)"-style suffixes match too.
func LevelOf(topic string) Level {
	s := strings.ToLower(topic)
	switch {
	case strings.Contains(s, "nhận biết"), strings.Contains(s, "knowledge"):
		return LevelKnowledge
	case strings.Contains(s, "thông hiểu"), strings.Contains(s, "comprehension"):
		return LevelComprehension
	case strings.Contains(s, "vận dụng thấp"), strings.Contains(s, "low"):
		return LevelLowApplication
	case strings.Contains(s, "vận dụng cao"), strings.Contains(s, "high"):
		return LevelHighApplication
	}
	return LevelOther
}

// Grouped resolves selector like Load and returns the full contest split
// by level. Every level is present, possibly empty.
func (c *FileCatalog) Grouped(selector string) (string, []Group) {
	key := c.resolve(selector)
	byLevel := make(map[Level][]grading.Question, len(Levels))
	for _, q := range c.contests[key] {
		l := LevelOf(q.Topic)
		byLevel[l] = append(byLevel[l], q)
	}
	groups := make([]Group, 0, len(Levels))
	for _, l := range Levels {
		qs := byLevel[l]
		if qs == nil {
			qs = []grading.Question{}
		}
		groups = append(groups, Group{Level: l, Questions: qs})
	}
	return key, groups
}
