package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/abhisek/quizlens/internal/catalog"
	"github.com/abhisek/quizlens/internal/grading"
	"github.com/abhisek/quizlens/internal/llm"
	"github.com/abhisek/quizlens/internal/logger"
	"github.com/abhisek/quizlens/internal/store"
)

// DefaultHistory is how many previous results feed the narrative trend.
const DefaultHistory = 5

// ErrNoQuestionSource is returned when a request names no contest and
// carries no questions.
var ErrNoQuestionSource = errors.New("no contest key or questions in request")

// Request is an incoming quiz submission.
type Request struct {
	SubmissionID  string             `json:"submissionId,omitempty"`
	UserID        string             `json:"userId,omitempty"`
	ContestKey    string             `json:"contestKey,omitempty"`
	// QuestionIDs are the ids of the quiz instance served by Quiz, echoed
	// back so grading runs against the same set.
	QuestionIDs   []string           `json:"questionIds,omitempty"`
	Questions     []grading.Question `json:"questions,omitempty"`
	Answers       []grading.Answer   `json:"answers"`
	AutoSubmitted bool               `json:"autoSubmitted"`
	Language      string             `json:"language,omitempty"`
}

// HistoryEntry is one stored result in a user's history.
type HistoryEntry struct {
	SubmissionID     string    `json:"submissionId"`
	QuizID           string    `json:"quizId"`
	Score            int       `json:"score"`
	PerformanceLabel string    `json:"performanceLabel"`
	Flagged          bool      `json:"flagged"`
	CreatedAt        time.Time `json:"createdAt"`
}

// Service resolves questions from the catalog, runs the analyzer and
// persists the result keyed by submission id. Saving the same submission
// twice replaces the stored record.
type Service struct {
	analyzer *Analyzer
	catalog  catalog.Catalog
	results  store.ResultRepo
	log      *logger.Logger
	history  int
	newID    func() string
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithResultRepo enables persistence and history.
func WithResultRepo(r store.ResultRepo) ServiceOption {
	return func(s *Service) { s.results = r }
}

// WithServiceLogger sets the logger.
func WithServiceLogger(l *logger.Logger) ServiceOption {
	return func(s *Service) { s.log = l }
}

// WithHistory sets how many past results are read for the trend.
func WithHistory(n int) ServiceOption {
	return func(s *Service) { s.history = n }
}

// WithIDGenerator replaces uuid generation for submissions without an id.
func WithIDGenerator(f func() string) ServiceOption {
	return func(s *Service) { s.newID = f }
}

// NewService creates a Service. cat may be nil when every request carries
// its own questions.
func NewService(a *Analyzer, cat catalog.Catalog, opts ...ServiceOption) *Service {
	s := &Service{
		analyzer: a,
		catalog:  cat,
		log:      logger.Nop(),
		history:  DefaultHistory,
		newID:    uuid.NewString,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Quiz serves a shuffled question set for selector.
func (s *Service) Quiz(selector string) (*catalog.Set, error) {
	if s.catalog == nil {
		return nil, catalog.ErrNoContests
	}
	return s.catalog.Load(selector)
}

// Submit analyzes req and stores the result. A storage failure is logged
// and does not fail the analysis.
func (s *Service) Submit(ctx context.Context, req Request) (*Result, error) {
	id := strings.TrimSpace(req.SubmissionID)
	if id == "" {
		id = s.newID()
	}

	sub, err := s.submission(req)
	if err != nil {
		return nil, err
	}
	sub.History = s.previousScores(ctx, req.UserID, id)

	res, err := s.analyzer.Analyze(llm.WithSubmission(ctx, id), sub)
	if err != nil {
		return nil, err
	}
	res.SubmissionID = id

	if s.results != nil {
		if err := s.save(ctx, req, res); err != nil {
			s.log.Error("failed to store result", "submission_id", id, "error", err)
		}
	}
	return res, nil
}

func (s *Service) submission(req Request) (Submission, error) {
	sub := Submission{
		Questions:     req.Questions,
		Answers:       req.Answers,
		AutoSubmitted: req.AutoSubmitted,
		ContestKey:    req.ContestKey,
		Language:      req.Language,
	}
	if len(req.Questions) > 0 {
		return sub, nil
	}
	if strings.TrimSpace(req.ContestKey) == "" || s.catalog == nil {
		return sub, ErrNoQuestionSource
	}
	if len(req.QuestionIDs) > 0 {
		set, err := s.catalog.Served(req.ContestKey, req.QuestionIDs)
		if err != nil {
			return sub, fmt.Errorf("resolve quiz instance: %w", err)
		}
		sub.Questions = set.Questions
		sub.ContestKey = set.ContestKey
		sub.ContestName = set.ContestName
		return sub, nil
	}

	// Without the served ids, grade against the whole contest; the student
	// saw at most one capped instance of it.
	set, err := s.catalog.Contest(req.ContestKey)
	if err != nil {
		return sub, fmt.Errorf("resolve contest: %w", err)
	}
	sub.Questions = set.Questions
	sub.Served = min(len(set.Questions), s.catalog.MaxQuestions())
	sub.ContestKey = set.ContestKey
	sub.ContestName = set.ContestName
	return sub, nil
}

// previousScores returns the user's earlier scores newest first, skipping
// an earlier save of the same submission.
func (s *Service) previousScores(ctx context.Context, userID, submissionID string) []int {
	if s.results == nil || userID == "" || s.history <= 0 {
		return nil
	}
	recs, err := s.results.ListByUser(ctx, userID, s.history+1)
	if err != nil {
		s.log.Warn("failed to read result history", "user_id", userID, "error", err)
		return nil
	}
	var scores []int
	for _, r := range recs {
		if r.SubmissionID == submissionID {
			continue
		}
		scores = append(scores, r.Score)
		if len(scores) == s.history {
			break
		}
	}
	return scores
}

func (s *Service) save(ctx context.Context, req Request, res *Result) error {
	answers, err := json.Marshal(req.Answers)
	if err != nil {
		return fmt.Errorf("encode answers: %w", err)
	}
	timing := make(map[string]float64, len(req.Answers))
	for _, a := range req.Answers {
		timing[a.QuestionID] = a.TimeTakenSeconds
	}
	timeJSON, err := json.Marshal(timing)
	if err != nil {
		return fmt.Errorf("encode timings: %w", err)
	}
	analysis, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("encode analysis: %w", err)
	}

	return s.results.SaveResult(ctx, store.ResultRecord{
		SubmissionID:     res.SubmissionID,
		UserID:           req.UserID,
		QuizID:           res.ContestKey,
		Score:            res.Score,
		PerformanceLabel: string(res.PerformanceLabel),
		Flagged:          res.IsFlaggedForCheating,
		Answers:          answers,
		TimePerQuestion:  timeJSON,
		Analysis:         analysis,
	})
}

// Get returns a stored result.
func (s *Service) Get(ctx context.Context, submissionID string) (*Result, error) {
	if s.results == nil {
		return nil, store.ErrNotFound
	}
	rec, err := s.results.GetResult(ctx, submissionID)
	if err != nil {
		return nil, err
	}
	var res Result
	if err := json.Unmarshal(rec.Analysis, &res); err != nil {
		return nil, fmt.Errorf("decode stored analysis %s: %w", submissionID, err)
	}
	res.SubmissionID = rec.SubmissionID
	return &res, nil
}

// History lists a user's stored results newest first.
func (s *Service) History(ctx context.Context, userID string, limit int) ([]HistoryEntry, error) {
	if s.results == nil {
		return []HistoryEntry{}, nil
	}
	recs, err := s.results.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, err
	}
	out := make([]HistoryEntry, 0, len(recs))
	for _, r := range recs {
		out = append(out, HistoryEntry{
			SubmissionID:     r.SubmissionID,
			QuizID:           r.QuizID,
			Score:            r.Score,
			PerformanceLabel: r.PerformanceLabel,
			Flagged:          r.Flagged,
			CreatedAt:        r.CreatedAt,
		})
	}
	return out, nil
}
