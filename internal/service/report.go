package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	jmespath "github.com/jmespath-community/go-jmespath"

	"github.com/prepwise/interview-api/internal/core"
	"github.com/prepwise/interview-api/internal/domain/model"
	apperrors "github.com/prepwise/interview-api/internal/errors"
)

// JMESPathEvaluator abstracts JMESPath operations for testability.
type JMESPathEvaluator interface {
	Validate(expr string) error
	Evaluate(expr string, data any) (any, error)
}

// jmespathLibEvaluator implements JMESPathEvaluator using go-jmespath.
type jmespathLibEvaluator struct{}

func (j jmespathLibEvaluator) Validate(expr string) error {
	if strings.TrimSpace(expr) == "" {
		return nil
	}
	_, err := jmespath.Compile(expr)
	return err
}

func (j jmespathLibEvaluator) Evaluate(expr string, data any) (any, error) {
	return jmespath.Search(expr, data)
}

// ReportServiceOptions groups dependencies for ReportService.
type ReportServiceOptions struct {
	Jobs      core.JobRepository // Required: job stats source
	Evaluator JMESPathEvaluator  // Optional: defaults to the library evaluator
}

// ReportService builds operational snapshots of the queue and lets operators
// project them with JMESPath expressions.
type ReportService struct {
	jobs core.JobRepository
	jems JMESPathEvaluator
}

// NewReportService constructs a new ReportService.
func NewReportService(opts ReportServiceOptions) (*ReportService, error) {
	if opts.Jobs == nil {
		return nil, errors.New("JobRepository is required")
	}
	jems := opts.Evaluator
	if jems == nil {
		jems = jmespathLibEvaluator{}
	}
	return &ReportService{jobs: opts.Jobs, jems: jems}, nil
}

// QueueSnapshot captures the state of the feedback queue at one moment.
type QueueSnapshot struct {
	Jobs map[string]*model.JobStats `json:"jobs"`
}

// Snapshot collects per-type queue statistics.
func (s *ReportService) Snapshot(ctx context.Context) (*QueueSnapshot, error) {
	snapshot := &QueueSnapshot{Jobs: make(map[string]*model.JobStats)}

	stats, err := s.jobs.Stats(ctx, model.JobTypeFeedback)
	if err != nil {
		return nil, fmt.Errorf("collect feedback queue stats: %w", err)
	}
	snapshot.Jobs[string(model.JobTypeFeedback)] = stats

	return snapshot, nil
}

// Query evaluates a JMESPath expression against the current queue snapshot.
// An empty expression returns the whole snapshot.
func (s *ReportService) Query(ctx context.Context, expr string) (any, error) {
	if err := s.jems.Validate(expr); err != nil {
		return nil, apperrors.Validationf("invalid query expression: %v", err)
	}

	snapshot, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(expr) == "" {
		return snapshot, nil
	}

	// Round-trip through JSON so the evaluator sees plain maps and slices.
	raw, err := json.Marshal(snapshot)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}

	result, err := s.jems.Evaluate(expr, doc)
	if err != nil {
		return nil, apperrors.Validationf("evaluate query expression: %v", err)
	}
	return result, nil
}
