package narrative

import (
	"github.com/abhisek/quizlens/internal/grading"
	"github.com/abhisek/quizlens/internal/i18n"
)

const (
	fallbackWeaknesses    = 5
	fallbackPlanTopics    = 3
	fallbackTopicStrength = 3
	fallbackPriority      = 3
)

var labelMessages = map[grading.Label]string{
	grading.LabelFail:      "LabelFail",
	grading.LabelAverage:   "LabelAverage",
	grading.LabelPass:      "LabelPass",
	grading.LabelExcellent: "LabelExcellent",
}

// Fallback builds a Summary from local data only. Overall, Weaknesses and
// Plan are never empty.
func Fallback(loc *i18n.Localizer, in Input) Summary {
	label := localizedLabel(loc, in.Label)
	topics := weakTopics(in.WeakAreas)

	s := Summary{
		Overall:             overall(loc, in.Score, label),
		Strengths:           strengths(loc, in),
		Weaknesses:          weaknesses(loc, in.WeakAreas),
		Plan:                plan(loc, in.WeakAreas),
		Priority:            priority(loc, topics),
		MotivationalMessage: Motivate(loc, in).Message,
		Source:              SourceFallback,
	}
	if len(topics) > 0 {
		s.StartHere = loc.Td("StartHere", map[string]any{"Topic": topics[0]})
	} else {
		s.StartHere = loc.T("StartHereNone")
	}
	return s
}

func localizedLabel(loc *i18n.Localizer, l grading.Label) string {
	if id, ok := labelMessages[l]; ok {
		return loc.T(id)
	}
	return string(l)
}

func overall(loc *i18n.Localizer, score int, label string) string {
	data := map[string]any{"Score": score, "Label": label}
	switch {
	case score >= 8:
		return loc.Td("OverallExcellent", data)
	case score >= 6:
		return loc.Td("OverallGood", data)
	case score >= 5:
		return loc.Td("OverallAverage", data)
	default:
		return loc.Td("OverallFail", data)
	}
}

func weaknesses(loc *i18n.Localizer, weak []grading.WeakArea) []string {
	out := make([]string, 0, fallbackWeaknesses)
	for _, w := range weak {
		if len(out) == fallbackWeaknesses {
			break
		}
		data := map[string]any{"Topic": w.Topic, "Percentage": w.Percentage}
		switch {
		case w.Percentage >= 75:
			out = append(out, loc.Td("WeaknessUrgent", data))
		case w.Percentage >= 50:
			out = append(out, loc.Td("WeaknessPractice", data))
		default:
			out = append(out, loc.Td("WeaknessReview", data))
		}
	}
	if len(out) == 0 {
		out = append(out, loc.T("WeaknessNone"))
	}
	return out
}

// strengths lists fully correct topics first, then generic strengths for
// the score bracket.
func strengths(loc *i18n.Localizer, in Input) []string {
	weak := map[string]bool{}
	for _, w := range in.WeakAreas {
		weak[w.Topic] = true
	}

	var out []string
	for _, st := range in.TopicStats {
		if len(out) == fallbackTopicStrength {
			break
		}
		if st.Total > 0 && st.Wrong == 0 && !weak[st.Topic] {
			out = append(out, loc.Td("StrengthTopic", map[string]any{"Topic": st.Topic}))
		}
	}

	switch {
	case in.Score >= 8:
		out = append(out, loc.T("StrengthExcellent1"), loc.T("StrengthExcellent2"))
	case in.Score >= 6:
		out = append(out, loc.T("StrengthGood1"))
	case in.Score >= 4:
		out = append(out, loc.T("StrengthDeveloping1"), loc.T("StrengthDeveloping2"))
	default:
		out = append(out, loc.T("StrengthStarting1"), loc.T("StrengthStarting2"))
	}
	return out
}

// plan gives each of the top weak topics one to three days. Topics wrong
// more than half the time go first and get at least two days.
func plan(loc *i18n.Localizer, weak []grading.WeakArea) []PlanStep {
	areas := uniqueAreas(weak, fallbackPlanTopics)
	if len(areas) == 0 {
		return []PlanStep{{
			Step:     loc.T("PlanReviewAll"),
			Duration: loc.Tp("PlanDuration", 1),
			Action:   loc.T("PlanReviewAllAction"),
		}}
	}

	ordered := make([]grading.WeakArea, 0, len(areas))
	for _, w := range areas {
		if w.ErrorRate > 0.5 {
			ordered = append(ordered, w)
		}
	}
	for _, w := range areas {
		if w.ErrorRate <= 0.5 {
			ordered = append(ordered, w)
		}
	}

	steps := make([]PlanStep, 0, len(ordered))
	day := 1
	for _, w := range ordered {
		days := planDays(w)
		topic := map[string]any{"Topic": w.Topic}

		var step string
		if days == 1 {
			step = loc.Td("PlanStepDay", map[string]any{"Day": day, "Topic": w.Topic})
		} else {
			step = loc.Td("PlanStepDays", map[string]any{"From": day, "To": day + days - 1, "Topic": w.Topic})
		}

		kind := "exercise"
		if w.ErrorRate > 0.5 {
			kind = "article"
		}

		steps = append(steps, PlanStep{
			Step:     step,
			Duration: loc.Tp("PlanDuration", days),
			Action:   loc.Td("PlanAction", topic),
			ResourceSuggestion: &Suggestion{
				Type: kind,
				Name: loc.Td("PlanResourceName", topic),
			},
		})
		day += days
	}
	return steps
}

func planDays(w grading.WeakArea) int {
	switch {
	case w.Percentage >= 75:
		return 3
	case w.ErrorRate > 0.5:
		return 2
	default:
		return 1
	}
}

func priority(loc *i18n.Localizer, topics []string) []string {
	if len(topics) == 0 {
		return []string{loc.T("PriorityChallenge")}
	}
	out := make([]string, 0, fallbackPriority)
	for _, t := range topics {
		if len(out) == fallbackPriority {
			break
		}
		out = append(out, loc.Td("PriorityReview", map[string]any{"Topic": t}))
	}
	return out
}

// uniqueAreas keeps the first area per topic name, in rank order. Topic
// and subtopic entries may share a name.
func uniqueAreas(weak []grading.WeakArea, limit int) []grading.WeakArea {
	seen := map[string]bool{}
	var out []grading.WeakArea
	for _, w := range weak {
		if len(out) == limit {
			break
		}
		if seen[w.Topic] {
			continue
		}
		seen[w.Topic] = true
		out = append(out, w)
	}
	return out
}

func weakTopics(weak []grading.WeakArea) []string {
	areas := uniqueAreas(weak, len(weak))
	out := make([]string, len(areas))
	for i, w := range areas {
		out[i] = w.Topic
	}
	return out
}
