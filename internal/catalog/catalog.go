// Package catalog loads quiz contests from a question bank file.
package catalog

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/abhisek/quizlens/internal/grading"
)

// MaxQuestions caps how many questions one quiz serves.
const MaxQuestions = 20

var (
	// ErrNoContests is returned when the bank holds no contest.
	ErrNoContests = errors.New("no contests in question bank")

	// ErrUnknownContest is returned by Contest for a key not in the bank.
	ErrUnknownContest = errors.New("unknown contest")

	// ErrNoServedQuestions is returned by Served when none of the ids
	// belong to the contest.
	ErrNoServedQuestions = errors.New("no served question belongs to the contest")
)

// Set is a resolved contest with its questions.
type Set struct {
	ContestKey  string             `json:"contestKey"`
	ContestName string             `json:"contestName"`
	ContestID   int                `json:"contestId,omitempty"`
	Questions   []grading.Question `json:"questions"`
}

// Catalog serves questions to students and back to the grader.
type Catalog interface {
	// Load resolves selector to a contest and returns a shuffled, capped
	// question list with the key actually chosen.
	Load(selector string) (*Set, error)

	// Contest returns the full, unshuffled contest for key.
	Contest(key string) (*Set, error)

	// Served rebuilds the quiz instance a student saw from the question ids
	// Load handed out, in that order. Ids not in the contest are dropped.
	Served(key string, ids []string) (*Set, error)

	// MaxQuestions is the cap Load applies to a quiz instance.
	MaxQuestions() int

	// Keys lists the selectable contest keys in order.
	Keys() []string
}

var contestKeyRe = regexp.MustCompile(`^contest(\d+)$`)

// FileCatalog is a Catalog backed by a JSON question bank. Three shapes are
// accepted: {"contests": {"contest1": [...], ...}}, {"contests": [[...], ...]}
// and a plain array of questions.
type FileCatalog struct {
	keys     []string
	contests map[string][]grading.Question
	names    map[string]string
	max      int

	mu  sync.Mutex
	rng *rand.Rand
}

// Option configures a FileCatalog.
type Option func(*FileCatalog)

// WithRand sets the random source used for contest choice and shuffling.
func WithRand(r *rand.Rand) Option {
	return func(c *FileCatalog) { c.rng = r }
}

// WithMaxQuestions overrides MaxQuestions.
func WithMaxQuestions(n int) Option {
	return func(c *FileCatalog) {
		if n > 0 {
			c.max = n
		}
	}
}

// Open reads a question bank file.
func Open(path string, opts ...Option) (*FileCatalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read question bank: %w", err)
	}
	c, err := Parse(data, opts...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

type bankFile struct {
	Contests     json.RawMessage   `json:"contests"`
	ContestNames map[string]string `json:"contestNames"`
}

// Parse decodes a question bank.
func Parse(data []byte, opts ...Option) (*FileCatalog, error) {
	c := &FileCatalog{
		contests: make(map[string][]grading.Question),
		names:    make(map[string]string),
		max:      MaxQuestions,
	}
	for _, o := range opts {
		o(c)
	}
	if c.rng == nil {
		seed := uint64(time.Now().UnixNano())
		c.rng = rand.New(rand.NewPCG(seed, seed>>7|1))
	}

	data = bytes.TrimSpace(data)
	switch {
	case len(data) > 0 && data[0] == '[':
		qs, err := decodeQuestions("contest1", data)
		if err != nil {
			return nil, err
		}
		if len(qs) > 0 {
			c.add("contest1", qs)
		}

	case len(data) > 0 && data[0] == '{':
		var f bankFile
		if err := json.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("decode question bank: %w", err)
		}
		if err := c.addContests(f.Contests); err != nil {
			return nil, err
		}
		for k, v := range f.ContestNames {
			c.names[k] = v
		}

	default:
		return nil, fmt.Errorf("decode question bank: unexpected content")
	}

	if len(c.keys) == 0 {
		return nil, ErrNoContests
	}
	return c, nil
}

func (c *FileCatalog) addContests(raw json.RawMessage) error {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}

	if raw[0] == '[' {
		var list []json.RawMessage
		if err := json.Unmarshal(raw, &list); err != nil {
			return fmt.Errorf("decode contests: %w", err)
		}
		for i, item := range list {
			key := "contest" + strconv.Itoa(i+1)
			qs, err := decodeQuestions(key, item)
			if err != nil {
				return err
			}
			c.add(key, qs)
		}
		return nil
	}

	var named map[string]json.RawMessage
	if err := json.Unmarshal(raw, &named); err != nil {
		return fmt.Errorf("decode contests: %w", err)
	}
	var numbered, other []string
	for key, item := range named {
		qs, err := decodeQuestions(key, item)
		if err != nil {
			return err
		}
		c.contests[key] = qs
		if contestKeyRe.MatchString(key) {
			numbered = append(numbered, key)
		} else {
			other = append(other, key)
		}
	}
	sort.Slice(numbered, func(i, j int) bool { return contestNumber(numbered[i]) < contestNumber(numbered[j]) })
	sort.Strings(other)

	// Only contestN keys are selectable when any exist.
	c.keys = numbered
	if len(c.keys) == 0 {
		c.keys = other
	}
	return nil
}

func (c *FileCatalog) add(key string, qs []grading.Question) {
	c.keys = append(c.keys, key)
	c.contests[key] = qs
}

// Keys lists the selectable contest keys.
func (c *FileCatalog) Keys() []string {
	return append([]string(nil), c.keys...)
}

func (c *FileCatalog) Load(selector string) (*Set, error) {
	key := c.resolve(selector)
	qs := append([]grading.Question(nil), c.contests[key]...)

	c.mu.Lock()
	c.rng.Shuffle(len(qs), func(i, j int) { qs[i], qs[j] = qs[j], qs[i] })
	c.mu.Unlock()

	if len(qs) > c.max {
		qs = qs[:c.max]
	}
	return c.set(key, qs), nil
}

func (c *FileCatalog) Contest(key string) (*Set, error) {
	qs, ok := c.contests[strings.TrimSpace(key)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownContest, key)
	}
	return c.set(strings.TrimSpace(key), append([]grading.Question(nil), qs...)), nil
}

func (c *FileCatalog) Served(key string, ids []string) (*Set, error) {
	full, err := c.Contest(key)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]grading.Question, len(full.Questions))
	for _, q := range full.Questions {
		byID[q.ID] = q
	}
	seen := make(map[string]bool, len(ids))
	qs := make([]grading.Question, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		q, ok := byID[id]
		if !ok || seen[id] {
			continue
		}
		seen[id] = true
		qs = append(qs, q)
	}
	if len(qs) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrNoServedQuestions, key)
	}
	full.Questions = qs
	return full, nil
}

func (c *FileCatalog) MaxQuestions() int {
	return c.max
}

func (c *FileCatalog) set(key string, qs []grading.Question) *Set {
	return &Set{
		ContestKey:  key,
		ContestName: c.name(key),
		ContestID:   contestNumber(key),
		Questions:   qs,
	}
}

// resolve maps a selector to a contest key: a random sentinel, a key, a
// 1-based index, or else the first contest.
func (c *FileCatalog) resolve(selector string) string {
	s := strings.TrimSpace(selector)
	switch strings.ToLower(s) {
	case "", "random", "rand", "0":
		c.mu.Lock()
		defer c.mu.Unlock()
		return c.keys[c.rng.IntN(len(c.keys))]
	}
	if _, ok := c.contests[s]; ok {
		return s
	}
	if n, err := strconv.Atoi(s); err == nil && n >= 1 && n <= len(c.keys) {
		return c.keys[n-1]
	}
	return c.keys[0]
}

func (c *FileCatalog) name(key string) string {
	if n, ok := c.names[key]; ok && n != "" {
		return n
	}
	if n := contestNumber(key); n > 0 {
		return "Đề " + strconv.Itoa(n)
	}
	return key
}

func contestNumber(key string) int {
	m := contestKeyRe.FindStringSubmatch(key)
	if m == nil {
		return 0
	}
	n, _ := strconv.Atoi(m[1])
	return n
}

// questionID accepts both string and numeric ids.
type questionID string

func (id *questionID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = questionID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("question id: %w", err)
	}
	*id = questionID(n.String())
	return nil
}

type rawQuestion struct {
	ID          questionID `json:"id"`
	Question    string     `json:"question"`
	Options     []string   `json:"options"`
	AnswerIndex int        `json:"answerIndex"`
	Topic       string     `json:"topic"`
	Explanation string     `json:"explanation"`
	Difficulty  string     `json:"difficulty"`
}

func decodeQuestions(key string, raw json.RawMessage) ([]grading.Question, error) {
	var items []rawQuestion
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("decode contest %s: %w", key, err)
	}
	out := make([]grading.Question, 0, len(items))
	for i, it := range items {
		id := strings.TrimSpace(string(it.ID))
		if id == "" {
			id = fmt.Sprintf("%s-q%d", key, i+1)
		}
		out = append(out, grading.Question{
			ID:           id,
			Prompt:       it.Question,
			Options:      it.Options,
			CorrectIndex: it.AnswerIndex,
			Topic:        strings.TrimSpace(it.Topic),
			Explanation:  it.Explanation,
			Difficulty:   it.Difficulty,
		})
	}
	return out, nil
}
