package narrative

import (
	"strings"

	"github.com/abhisek/quizlens/internal/grading"
	"github.com/abhisek/quizlens/internal/i18n"
)

var motivationPrefix = map[grading.Label]string{
	grading.LabelExcellent: "MotivationExcellent",
	grading.LabelPass:      "MotivationPass",
	grading.LabelAverage:   "MotivationAverage",
	grading.LabelFail:      "MotivationFail",
}

// Motivate builds the label-keyed encouragement, noting the top weak topic
// and, when history is known, the change since the previous attempt.
func Motivate(loc *i18n.Localizer, in Input) Motivation {
	prefix, ok := motivationPrefix[in.Label]
	if !ok {
		prefix = motivationPrefix[grading.LabelAverage]
	}

	m := Motivation{
		Opening: loc.T(prefix + "Opening"),
		Body:    loc.T(prefix + "Body"),
		Closing: loc.T(prefix + "Closing"),
	}

	extra := []string{m.Body}
	if len(in.WeakAreas) > 0 {
		extra = append(extra, loc.Td("MotivationWeakTopic", map[string]any{"Topic": in.WeakAreas[0].Topic}))
	}
	if len(in.History) > 0 {
		extra = append(extra, trend(loc, in.Score, in.History[0]))
	}
	m.Body = strings.Join(extra, "\n\n")
	m.Message = strings.Join([]string{m.Opening, m.Body, m.Closing}, "\n\n")
	return m
}

func trend(loc *i18n.Localizer, score, previous int) string {
	data := map[string]any{"Score": score, "Previous": previous}
	switch {
	case score > previous:
		return loc.Td("MotivationTrendUp", data)
	case score < previous:
		return loc.Td("MotivationTrendDown", data)
	default:
		return loc.Td("MotivationTrendSteady", data)
	}
}
