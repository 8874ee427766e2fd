package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
)

const tableResults = "results"

var resultColumns = []string{
	"submission_id", "user_id", "quiz_id", "score", "performance_label",
	"flagged", "answers", "time_per_question", "analysis",
	"created_at", "updated_at",
}

// Columns replaced when a submission is saved again. created_at is not
// in the list so the first save time sticks.
var resultUpsertColumns = []string{
	"user_id", "quiz_id", "score", "performance_label", "flagged",
	"answers", "time_per_question", "analysis", "updated_at",
}

type resultRepo struct {
	db  *sql.DB
	now func() time.Time
}

func (r *resultRepo) clock() time.Time {
	if r.now != nil {
		return r.now()
	}
	return time.Now()
}

func (r *resultRepo) SaveResult(ctx context.Context, rec ResultRecord) error {
	if rec.SubmissionID == "" {
		return errors.New("save result: empty submission id")
	}

	now := formatTime(r.clock())
	query, args := builder().Insert(tableResults).
		Columns(resultColumns...).
		Values(
			rec.SubmissionID, rec.UserID, rec.QuizID, rec.Score, rec.PerformanceLabel,
			rec.Flagged, rawOr(rec.Answers, "[]"), rawOr(rec.TimePerQuestion, "[]"),
			rawOr(rec.Analysis, "{}"), now, now,
		).
		OnConflict(
			entsql.ConflictColumns("submission_id"),
			entsql.ResolveWith(func(u *entsql.UpdateSet) {
				for _, c := range resultUpsertColumns {
					u.SetExcluded(c)
				}
			}),
		).
		Query()

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("save result %s: %w", rec.SubmissionID, err)
	}
	return nil
}

func (r *resultRepo) GetResult(ctx context.Context, submissionID string) (*ResultRecord, error) {
	query, args := builder().Select(resultColumns...).
		From(entsql.Table(tableResults)).
		Where(entsql.EQ("submission_id", submissionID)).
		Query()

	rec, err := scanResult(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return rec, err
}

func (r *resultRepo) ListByUser(ctx context.Context, userID string, limit int) ([]ResultRecord, error) {
	sel := builder().Select(resultColumns...).
		From(entsql.Table(tableResults)).
		Where(entsql.EQ("user_id", userID)).
		OrderBy(entsql.Desc("created_at"), entsql.Desc("submission_id"))
	if limit > 0 {
		sel = sel.Limit(limit)
	}

	query, args := sel.Query()
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list results for %s: %w", userID, err)
	}
	defer rows.Close()

	var out []ResultRecord
	for rows.Next() {
		rec, err := scanResult(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

func scanResult(row rowScanner) (*ResultRecord, error) {
	var (
		rec                      ResultRecord
		answers, times, analysis string
		createdAt, updatedAt     string
	)
	err := row.Scan(&rec.SubmissionID, &rec.UserID, &rec.QuizID, &rec.Score,
		&rec.PerformanceLabel, &rec.Flagged, &answers, &times, &analysis,
		&createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan result: %w", err)
	}

	rec.Answers = json.RawMessage(answers)
	rec.TimePerQuestion = json.RawMessage(times)
	rec.Analysis = json.RawMessage(analysis)

	if rec.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if rec.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}
	return &rec, nil
}

func rawOr(raw json.RawMessage, def string) string {
	if len(raw) == 0 {
		return def
	}
	return string(raw)
}
