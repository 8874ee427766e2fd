package grading

import "strings"

// GeneralSubtopic is the bucket for text no keyword group matches.
const GeneralSubtopic = "General"

// SubtopicClassifier derives a subtopic bucket from a question's topic and
// prompt text. The bucket space is independent of the topic key space.
type SubtopicClassifier interface {
	Name() string
	Classify(text string) string
}

// KeywordGroup maps any of its keywords to one subtopic.
type KeywordGroup struct {
	Subtopic string   `yaml:"subtopic" json:"subtopic"`
	Keywords []string `yaml:"keywords" json:"keywords"`
}

// KeywordClassifier matches lowercased text against keyword groups in
// order. The first group with a matching keyword wins.
type KeywordClassifier struct {
	Groups   []KeywordGroup
	Fallback string
}

// DefaultKeywordClassifier returns the table tuned for the lower secondary
// Vietnamese math curriculum.
func DefaultKeywordClassifier() *KeywordClassifier {
	return &KeywordClassifier{
		Groups: []KeywordGroup{
			{Subtopic: "Phương trình", Keywords: []string{"phương trình", "equation"}},
			{Subtopic: "Hình học", Keywords: []string{"hình học", "tam giác", "geometry", "triangle"}},
			{Subtopic: "Đa thức", Keywords: []string{"đa thức", "polynomial"}},
			{Subtopic: "Hằng đẳng thức", Keywords: []string{"hằng đẳng thức", "identity"}},
			{Subtopic: "Số học", Keywords: []string{"phân số", "số học", "fraction", "arithmetic"}},
			{Subtopic: "Tối ưu / Giá trị cực trị", Keywords: []string{"tối ưu", "cực trị", "extremum", "optimization"}},
		},
		Fallback: GeneralSubtopic,
	}
}

func (c *KeywordClassifier) Name() string { return "keyword" }

func (c *KeywordClassifier) Classify(text string) string {
	lower := strings.ToLower(text)
	for _, g := range c.Groups {
		for _, kw := range g.Keywords {
			if kw != "" && strings.Contains(lower, strings.ToLower(kw)) {
				return g.Subtopic
			}
		}
	}
	if c.Fallback == "" {
		return GeneralSubtopic
	}
	return c.Fallback
}
