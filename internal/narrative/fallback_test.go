package narrative

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/quizlens/internal/grading"
	"github.com/abhisek/quizlens/internal/i18n"
)

func viLocalizer(t *testing.T) *i18n.Localizer {
	t.Helper()
	return i18n.MustNew("vi", nil).Localizer("vi")
}

func TestFallback_OverallByBracket(t *testing.T) {
	loc := viLocalizer(t)

	tests := []struct {
		score int
		label grading.Label
		want  string
	}{
		{9, grading.LabelExcellent, "Tuyệt vời! Bạn đã đạt điểm 9/10 (Giỏi). Tiếp tục nỗ lực!"},
		{6, grading.LabelPass, "Tốt lắm! Bạn đạt 6/10 (Đạt). Chỉ cần ôn lại các phần còn yếu."},
		{5, grading.LabelAverage, "Bạn đạt 5/10 (Trung bình). Hãy tập trung vào các phần yếu để cải thiện."},
		{2, grading.LabelFail, "Bạn đạt 2/10 (Không đạt). Đừng nản chí, hãy bắt đầu ôn từ những phần cơ bản."},
	}
	for _, tt := range tests {
		s := Fallback(loc, Input{Score: tt.score, Label: tt.label})
		assert.Equal(t, tt.want, s.Overall, "score %d", tt.score)
	}
}

func TestFallback_WeaknessPhrasing(t *testing.T) {
	s := Fallback(viLocalizer(t), Input{
		Score: 4,
		Label: grading.LabelFail,
		WeakAreas: []grading.WeakArea{
			{Topic: "A", Percentage: 80, ErrorRate: 0.8},
			{Topic: "B", Percentage: 50, ErrorRate: 0.5},
			{Topic: "C", Percentage: 20, ErrorRate: 0.2},
		},
	})

	assert.Equal(t, []string{
		"A: 80% sai. Cần ôn tập gấp!",
		"B: 50% sai. Cần luyện tập thêm",
		"C: 20% sai. Ôn lại một vài phần",
	}, s.Weaknesses)
}

func TestFallback_PlanFrontLoadsHighErrorTopics(t *testing.T) {
	s := Fallback(viLocalizer(t), Input{
		Score: 5,
		Label: grading.LabelAverage,
		WeakAreas: []grading.WeakArea{
			{Topic: "Low", Percentage: 40, ErrorRate: 0.4},
			{Topic: "Mid", Percentage: 60, ErrorRate: 0.6},
			{Topic: "High", Percentage: 100, ErrorRate: 1},
			{Topic: "Fourth", Percentage: 30, ErrorRate: 0.3},
		},
	})

	require.Len(t, s.Plan, 3)
	assert.Equal(t, "Ngày 1-2: Ôn Mid", s.Plan[0].Step)
	assert.Equal(t, "2 ngày", s.Plan[0].Duration)
	assert.Equal(t, "Ngày 3-5: Ôn High", s.Plan[1].Step)
	assert.Equal(t, "3 ngày", s.Plan[1].Duration)
	assert.Equal(t, "Ngày 6: Ôn Low", s.Plan[2].Step)
	assert.Equal(t, "exercise", s.Plan[2].ResourceSuggestion.Type)
	assert.Equal(t, "article", s.Plan[0].ResourceSuggestion.Type)
}

func TestFallback_PlanDedupesTopicNames(t *testing.T) {
	s := Fallback(viLocalizer(t), Input{
		Score: 5,
		Label: grading.LabelAverage,
		WeakAreas: []grading.WeakArea{
			{Topic: "Đa thức", Kind: grading.KindTopic, Percentage: 100, ErrorRate: 1},
			{Topic: "Đa thức", Kind: grading.KindSubtopic, Percentage: 100, ErrorRate: 1},
		},
	})
	assert.Len(t, s.Plan, 1)
	assert.Equal(t, []string{"Ôn Đa thức"}, s.Priority)
	assert.Equal(t, "Ôn 15 phút phần Đa thức, sau đó làm 5 bài tập tương tự.", s.StartHere)
}

func TestFallback_NoWeakAreas(t *testing.T) {
	s := Fallback(viLocalizer(t), Input{
		Score:      10,
		Label:      grading.LabelExcellent,
		TopicStats: []grading.TopicStat{{Topic: "Counting", Correct: 10, Total: 10}},
	})

	assert.Equal(t, []string{"Không có điểm yếu đáng kể trong bài này"}, s.Weaknesses)
	require.Len(t, s.Plan, 1)
	assert.Equal(t, "Hãy tiếp tục ôn tập toàn bộ các phần", s.Plan[0].Step)
	assert.Equal(t, []string{
		"Làm tốt chủ đề Counting",
		"Khả năng hiểu bài toán rất tốt",
		"Nắm vững kiến thức cơ bản",
	}, s.Strengths)
	assert.Equal(t, []string{"Thử sức với các bài toán nâng cao hơn"}, s.Priority)
	assert.NotEmpty(t, s.MotivationalMessage)
}

func TestFallback_IsDeterministic(t *testing.T) {
	loc := viLocalizer(t)
	assert.Equal(t, Fallback(loc, sampleInput()), Fallback(loc, sampleInput()))
}

func TestMotivate(t *testing.T) {
	loc := i18n.MustNew("vi", nil).Localizer("en")
	in := sampleInput()

	m := Motivate(loc, in)
	assert.Equal(t, "Well done! You met the learning goal.", m.Opening)
	assert.Contains(t, m.Body, `the topic "Polynomials" needs your attention`)
	assert.NotContains(t, m.Body, "Last time")
	assert.Equal(t, m.Opening+"\n\n"+m.Body+"\n\n"+m.Closing, m.Message)

	in.History = []int{4, 8}
	assert.Contains(t, Motivate(loc, in).Body, "Last time you scored 4/10 and now 6/10. Great progress!")

	in.History = []int{9}
	assert.Contains(t, Motivate(loc, in).Body, "Last time you scored 9/10. This result is a little lower")

	in.History = []int{6}
	assert.Contains(t, Motivate(loc, in).Body, "You held steady at 6/10")
}
