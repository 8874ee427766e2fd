package grading

import (
	"sort"
	"strings"
)

const (
	recommendTopics    = 2
	recommendQuestions = 5
)

var difficultyRank = map[string]int{
	"easy":       0,
	"dễ":         0,
	"medium":     1,
	"trung bình": 1,
	"hard":       2,
	"khó":        2,
}

func rankOf(difficulty string) int {
	if r, ok := difficultyRank[strings.ToLower(strings.TrimSpace(difficulty))]; ok {
		return r
	}
	return len(difficultyRank)
}

// RecommendNextQuestions suggests up to five questions for each of the two
// weakest topics, easier ones first. Subtopic areas are skipped because
// questions are indexed by topic only.
func RecommendNextQuestions(weak []WeakArea, questions []Question) []Recommendation {
	recs := []Recommendation{}
	for _, w := range weak {
		if len(recs) == recommendTopics {
			break
		}
		if w.Kind != KindTopic {
			continue
		}

		var related []*Question
		for i := range questions {
			if questions[i].Topic == w.Topic {
				related = append(related, &questions[i])
			}
		}
		if len(related) == 0 {
			continue
		}
		sort.SliceStable(related, func(i, j int) bool {
			return rankOf(related[i].Difficulty) < rankOf(related[j].Difficulty)
		})

		ids := make([]string, 0, recommendQuestions)
		for _, q := range related {
			if len(ids) == recommendQuestions {
				break
			}
			ids = append(ids, q.ID)
		}
		recs = append(recs, Recommendation{Topic: w.Topic, NextQuestions: ids})
	}
	return recs
}
