package data

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/prepwise/interview-api/internal/domain/model"
)

const interviewColumns = `
  id,
  job_id,
  student_id,
  interview_type,
  duration,
  number_of_questions,
  scores,
  feedbacks,
  viewed,
  created_at
`

// Default page size for history listings.
const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
)

// InterviewRepo provides database operations for scored interview records.
type InterviewRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
	logger       *slog.Logger
}

// InterviewRepoConfig holds configuration options for the interview repository.
type InterviewRepoConfig struct {
	Logger       *slog.Logger
	TimeProvider TimeProvider
}

// NewInterviewRepo creates a new InterviewRepo with the given database connection and configuration.
func NewInterviewRepo(db *sql.DB, cfg InterviewRepoConfig) *InterviewRepo {
	tp := cfg.TimeProvider
	if tp == nil {
		tp = &RealTimeProvider{}
	}

	return &InterviewRepo{
		DB:           db,
		timeProvider: tp,
		logger:       cfg.Logger,
	}
}

// CreateFromJob persists a scored interview keyed by the originating job ID.
// The UNIQUE constraint on job_id makes redelivery of the same job a no-op:
// the method returns false and leaves the existing record untouched.
func (r *InterviewRepo) CreateFromJob(ctx context.Context, req *model.CreateInterviewRequest) (bool, error) {
	if req == nil {
		return false, errors.New("create interview request is required")
	}
	if err := req.Validate(); err != nil {
		return false, err
	}

	scores, err := json.Marshal(req.Scores)
	if err != nil {
		return false, fmt.Errorf("marshal scores: %w", err)
	}
	feedbacks, err := json.Marshal(req.Feedbacks)
	if err != nil {
		return false, fmt.Errorf("marshal feedbacks: %w", err)
	}

	res, err := r.DB.ExecContext(ctx, `
		INSERT INTO interviews (id, job_id, student_id, interview_type, duration, number_of_questions, scores, feedbacks, viewed, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, FALSE, $9)
		ON CONFLICT (job_id) DO NOTHING
	`,
		uuid.NewString(),
		req.JobID,
		req.StudentID,
		req.InterviewType,
		req.Duration,
		req.NumberOfQuestions,
		scores,
		feedbacks,
		r.timeProvider.Now().UTC(),
	)
	if err != nil {
		if isUniqueViolation(err, "") {
			return false, nil
		}
		return false, fmt.Errorf("insert interview: %w", err)
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert interview rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

// GetDetail retrieves a single interview scoped to its owning student.
func (r *InterviewRepo) GetDetail(ctx context.Context, interviewID, studentID string) (*model.Interview, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT `+interviewColumns+`
		FROM interviews
		WHERE id = $1 AND student_id = $2
	`, interviewID, studentID)

	iv, err := scanInterview(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrInterviewNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get interview: %w", err)
	}
	return iv, nil
}

func scanInterview(scanner jobRowScanner) (*model.Interview, error) {
	var (
		iv                model.Interview
		scores, feedbacks []byte
	)
	if err := scanner.Scan(
		&iv.ID,
		&iv.JobID,
		&iv.StudentID,
		&iv.InterviewType,
		&iv.Duration,
		&iv.NumberOfQuestions,
		&scores,
		&feedbacks,
		&iv.Viewed,
		&iv.CreatedAt,
	); err != nil {
		return nil, err
	}

	if err := json.Unmarshal(scores, &iv.Scores); err != nil {
		return nil, fmt.Errorf("unmarshal scores: %w", err)
	}
	if err := json.Unmarshal(feedbacks, &iv.Feedbacks); err != nil {
		return nil, fmt.Errorf("unmarshal feedbacks: %w", err)
	}
	return &iv, nil
}

// ListHistory returns a student's interviews, newest first, optionally
// filtered by interview type.
func (r *InterviewRepo) ListHistory(ctx context.Context, opts model.InterviewListOptions) ([]*model.InterviewSummary, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	offset := opts.Offset
	if offset < 0 {
		offset = 0
	}

	query := `
		SELECT id, interview_type, duration, number_of_questions,
		       COALESCE((scores->>'totalScore')::int, 0), viewed, created_at
		FROM interviews
		WHERE student_id = $1
		  AND ($2::text IS NULL OR interview_type = $2)
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4
	`

	var typeFilter *string
	if opts.InterviewType != nil {
		s := string(*opts.InterviewType)
		typeFilter = &s
	}

	rows, err := r.DB.QueryContext(ctx, query, opts.StudentID, typeFilter, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list interviews: %w", err)
	}
	defer rows.Close()

	summaries := make([]*model.InterviewSummary, 0, limit)
	for rows.Next() {
		var s model.InterviewSummary
		if err := rows.Scan(
			&s.ID,
			&s.InterviewType,
			&s.Duration,
			&s.NumberOfQuestions,
			&s.TotalScore,
			&s.Viewed,
			&s.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan interview summary: %w", err)
		}
		summaries = append(summaries, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list interviews: %w", err)
	}
	return summaries, nil
}

// MarkViewed marks an interview as viewed by its owning student.
// Returns false when the interview does not exist or belongs to someone else.
func (r *InterviewRepo) MarkViewed(ctx context.Context, interviewID, studentID string) (bool, error) {
	res, err := r.DB.ExecContext(ctx, `
		UPDATE interviews
		SET viewed = TRUE
		WHERE id = $1 AND student_id = $2
	`, interviewID, studentID)
	if err != nil {
		return false, fmt.Errorf("mark interview viewed: %w", err)
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("mark viewed rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

// UnviewedCount returns the number of interviews the student has not opened yet.
func (r *InterviewRepo) UnviewedCount(ctx context.Context, studentID string) (int, error) {
	var count int
	err := r.DB.QueryRowContext(ctx, `
		SELECT count(*) FROM interviews
		WHERE student_id = $1 AND viewed = FALSE
	`, studentID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count unviewed interviews: %w", err)
	}
	return count, nil
}

// DashboardStats aggregates a student's interview performance. A student with
// no interviews gets a zero-valued block rather than an error.
func (r *InterviewRepo) DashboardStats(ctx context.Context, studentID string) (*model.DashboardStats, error) {
	stats := &model.DashboardStats{
		TypeScores: make(map[model.InterviewType]int),
	}

	err := r.DB.QueryRowContext(ctx, `
		SELECT
			count(*),
			COALESCE(round(avg((scores->>'grammar')::int)), 0),
			COALESCE(round(avg((scores->>'experience')::int)), 0),
			COALESCE(round(avg((scores->>'skills')::int)), 0),
			COALESCE(round(avg((scores->>'relevance')::int)), 0),
			COALESCE(round(avg((scores->>'fillerCount')::int)), 0),
			COALESCE(round(avg((scores->>'totalScore')::int)), 0),
			COALESCE(max((scores->>'totalScore')::int), 0)
		FROM interviews
		WHERE student_id = $1
	`, studentID).Scan(
		&stats.InterviewsCount,
		&stats.AverageScores.Grammar,
		&stats.AverageScores.Experience,
		&stats.AverageScores.Skills,
		&stats.AverageScores.Relevance,
		&stats.AverageScores.FillerCount,
		&stats.AverageScores.TotalScore,
		&stats.HighestScore,
	)
	if err != nil {
		return nil, fmt.Errorf("dashboard aggregates: %w", err)
	}

	rows, err := r.DB.QueryContext(ctx, `
		SELECT interview_type, round(avg((scores->>'totalScore')::int))
		FROM interviews
		WHERE student_id = $1
		GROUP BY interview_type
	`, studentID)
	if err != nil {
		return nil, fmt.Errorf("dashboard type scores: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			it    model.InterviewType
			score int
		)
		if err := rows.Scan(&it, &score); err != nil {
			return nil, fmt.Errorf("scan type score: %w", err)
		}
		stats.TypeScores[it] = score
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("dashboard type scores: %w", err)
	}

	return stats, nil
}
