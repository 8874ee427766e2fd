package catalog

import (
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func questionsJSON(prefix string, n int) string {
	items := make([]string, n)
	for i := range items {
		items[i] = fmt.Sprintf(`{"id": "%s%d", "question": "Q%d", "options": ["a", "b"], "answerIndex": 0, "topic": "Đa thức"}`, prefix, i+1, i+1)
	}
	return "[" + strings.Join(items, ",") + "]"
}

func namedBank() string {
	return fmt.Sprintf(`{"contests": {"contest10": %s, "contest2": %s, "contest1": %s, "practice": %s}, "contestNames": {"contest2": "Giữa kỳ"}}`,
		questionsJSON("j", 3), questionsJSON("b", 25), questionsJSON("a", 5), questionsJSON("p", 2))
}

func fixedRand() Option {
	return WithRand(rand.New(rand.NewPCG(1, 2)))
}

func TestParse_NamedContests(t *testing.T) {
	c, err := Parse([]byte(namedBank()), fixedRand())
	require.NoError(t, err)
	assert.Equal(t, []string{"contest1", "contest2", "contest10"}, c.Keys())

	tests := []struct {
		selector string
		want     string
	}{
		{"contest10", "contest10"},
		{"practice", "practice"},
		{"1", "contest1"},
		{"2", "contest2"},
		{"3", "contest10"},
		{"4", "contest1"},
		{"-1", "contest1"},
		{"nonsense", "contest1"},
	}
	for _, tt := range tests {
		set, err := c.Load(tt.selector)
		require.NoError(t, err)
		assert.Equal(t, tt.want, set.ContestKey, tt.selector)
	}
}

func TestLoad_RandomSentinels(t *testing.T) {
	c, err := Parse([]byte(namedBank()), fixedRand())
	require.NoError(t, err)

	for _, sel := range []string{"", "random", "RAND", "0", " random "} {
		set, err := c.Load(sel)
		require.NoError(t, err)
		assert.Contains(t, c.Keys(), set.ContestKey, "random picks only numbered contests")
	}
}

func TestLoad_ShufflesAndCaps(t *testing.T) {
	c, err := Parse([]byte(namedBank()), fixedRand())
	require.NoError(t, err)

	set, err := c.Load("contest2")
	require.NoError(t, err)
	require.Len(t, set.Questions, MaxQuestions)
	assert.Equal(t, "Giữa kỳ", set.ContestName)
	assert.Equal(t, 2, set.ContestID)

	seen := map[string]bool{}
	for _, q := range set.Questions {
		assert.True(t, strings.HasPrefix(q.ID, "b"))
		assert.False(t, seen[q.ID], "duplicate %s", q.ID)
		seen[q.ID] = true
	}

	full, err := c.Contest("contest2")
	require.NoError(t, err)
	require.Len(t, full.Questions, 25)
	for i, q := range full.Questions {
		assert.Equal(t, fmt.Sprintf("b%d", i+1), q.ID)
	}
}

func TestLoad_DoesNotMutateBank(t *testing.T) {
	c, err := Parse([]byte(namedBank()), fixedRand())
	require.NoError(t, err)

	set, err := c.Load("contest1")
	require.NoError(t, err)
	set.Questions[0].ID = "changed"

	full, err := c.Contest("contest1")
	require.NoError(t, err)
	assert.Equal(t, "a1", full.Questions[0].ID)
}

func TestLoad_SameSeedSameOrder(t *testing.T) {
	a, err := Parse([]byte(namedBank()), fixedRand())
	require.NoError(t, err)
	b, err := Parse([]byte(namedBank()), fixedRand())
	require.NoError(t, err)

	sa, _ := a.Load("contest2")
	sb, _ := b.Load("contest2")
	assert.Equal(t, sa.Questions, sb.Questions)
}

func TestParse_ArrayOfContests(t *testing.T) {
	data := fmt.Sprintf(`{"contests": [%s, %s]}`, questionsJSON("x", 2), questionsJSON("y", 3))
	c, err := Parse([]byte(data), fixedRand())
	require.NoError(t, err)
	assert.Equal(t, []string{"contest1", "contest2"}, c.Keys())

	set, err := c.Load("2")
	require.NoError(t, err)
	assert.Equal(t, "contest2", set.ContestKey)
	assert.Equal(t, "Đề 2", set.ContestName)
	assert.Len(t, set.Questions, 3)
}

func TestParse_PlainArray(t *testing.T) {
	c, err := Parse([]byte(questionsJSON("q", 30)), fixedRand())
	require.NoError(t, err)

	set, err := c.Load("random")
	require.NoError(t, err)
	assert.Equal(t, "contest1", set.ContestKey)
	assert.Len(t, set.Questions, MaxQuestions)
}

func TestParse_OnlyUnnumberedKeys(t *testing.T) {
	data := fmt.Sprintf(`{"contests": {"midterm": %s, "final": %s}}`, questionsJSON("m", 1), questionsJSON("f", 1))
	c, err := Parse([]byte(data), fixedRand())
	require.NoError(t, err)
	assert.Equal(t, []string{"final", "midterm"}, c.Keys())

	set, err := c.Load("midterm")
	require.NoError(t, err)
	assert.Equal(t, "midterm", set.ContestName)
	assert.Zero(t, set.ContestID)
}

func TestParse_FlexibleIDs(t *testing.T) {
	data := `[
	  {"id": 7, "question": "A", "options": ["x"], "answerIndex": 0, "topic": " Hình học "},
	  {"id": "q-2", "question": "B", "options": ["x"], "answerIndex": 0},
	  {"question": "C", "options": ["x"], "answerIndex": 0}
	]`
	c, err := Parse([]byte(data), fixedRand())
	require.NoError(t, err)

	full, err := c.Contest("contest1")
	require.NoError(t, err)
	require.Len(t, full.Questions, 3)
	assert.Equal(t, "7", full.Questions[0].ID)
	assert.Equal(t, "Hình học", full.Questions[0].Topic)
	assert.Equal(t, "q-2", full.Questions[1].ID)
	assert.Equal(t, "contest1-q3", full.Questions[2].ID)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		data string
		is   error
	}{
		{"empty object", `{}`, ErrNoContests},
		{"empty contests", `{"contests": {}}`, ErrNoContests},
		{"empty array", `[]`, nil},
		{"garbage", `hello`, nil},
		{"bad question", `{"contests": {"contest1": [{"id": true}]}}`, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data))
			require.Error(t, err)
			if tt.is != nil {
				assert.ErrorIs(t, err, tt.is)
			}
		})
	}
}

func TestContest_Unknown(t *testing.T) {
	c, err := Parse([]byte(namedBank()), fixedRand())
	require.NoError(t, err)
	_, err = c.Contest("contest99")
	assert.ErrorIs(t, err, ErrUnknownContest)
}

func TestOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "questions.json")
	require.NoError(t, os.WriteFile(path, []byte(namedBank()), 0o644))

	c, err := Open(path, fixedRand())
	require.NoError(t, err)
	assert.Len(t, c.Keys(), 3)

	_, err = Open(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestGrouped(t *testing.T) {
	data := `{"contests": {"contest1": [
	  {"id": "1", "options": ["a"], "topic": "Đa thức (Nhận biết)"},
	  {"id": "2", "options": ["a"], "topic": "Comprehension"},
	  {"id": "3", "options": ["a"], "topic": "Vận dụng thấp"},
	  {"id": "4", "options": ["a"], "topic": "Vận dụng cao"},
	  {"id": "5", "options": ["a"], "topic": "Hình học"},
	  {"id": "6", "options": ["a"], "topic": "Thông hiểu"}
	]}}`
	c, err := Parse([]byte(data), fixedRand())
	require.NoError(t, err)

	key, groups := c.Grouped("1")
	assert.Equal(t, "contest1", key)
	require.Len(t, groups, len(Levels))

	ids := map[Level][]string{}
	for _, g := range groups {
		for _, q := range g.Questions {
			ids[g.Level] = append(ids[g.Level], q.ID)
		}
	}
	assert.Equal(t, []string{"1"}, ids[LevelKnowledge])
	assert.Equal(t, []string{"2", "6"}, ids[LevelComprehension])
	assert.Equal(t, []string{"3"}, ids[LevelLowApplication])
	assert.Equal(t, []string{"4"}, ids[LevelHighApplication])
	assert.Equal(t, []string{"5"}, ids[LevelOther])
}

func TestLevelOf(t *testing.T) {
	assert.Equal(t, LevelKnowledge, LevelOf("Knowledge"))
	assert.Equal(t, LevelHighApplication, LevelOf("High application"))
	assert.Equal(t, LevelLowApplication, LevelOf("low application"))
	assert.Equal(t, LevelOther, LevelOf(""))
}

func TestServed(t *testing.T) {
	c, err := Parse([]byte(namedBank()), fixedRand(), WithMaxQuestions(10))
	require.NoError(t, err)
	assert.Equal(t, 10, c.MaxQuestions())

	tests := []struct {
		name    string
		key     string
		ids     []string
		want    []string
		wantErr error
	}{
		{name: "keeps served order", key: "contest2", ids: []string{"b7", "b2", "b19"}, want: []string{"b7", "b2", "b19"}},
		{name: "drops unknown and repeated ids", key: "contest2", ids: []string{" b3 ", "zz", "b3", "a1"}, want: []string{"b3"}},
		{name: "nothing matches", key: "contest2", ids: []string{"zz"}, wantErr: ErrNoServedQuestions},
		{name: "unknown contest", key: "contest99", ids: []string{"b1"}, wantErr: ErrUnknownContest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			set, err := c.Served(tt.key, tt.ids)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.key, set.ContestKey)
			got := make([]string, len(set.Questions))
			for i, q := range set.Questions {
				got[i] = q.ID
			}
			assert.Equal(t, tt.want, got)
		})
	}
}
