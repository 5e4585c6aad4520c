package api

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"castos/internal/queue"
)

// JobStore is the persistence the API needs.
type JobStore interface {
	Create(ctx context.Context, in queue.NewJob) (*queue.Job, error)
	GetByID(ctx context.Context, id int64) (*queue.Job, error)
	List(ctx context.Context, statuses ...queue.Status) ([]*queue.Job, error)
	Remove(ctx context.Context, id int64) (bool, error)
	Stats(ctx context.Context) (map[queue.Status]int, error)
	Ping(ctx context.Context) error
}

// ValidationError lists invalid request fields by their JSON name.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for field, msg := range e.Fields {
		parts = append(parts, field+": "+msg)
	}
	return "invalid request: " + strings.Join(parts, "; ")
}

// JobService validates submissions and converts stored jobs to DTOs.
type JobService struct {
	store    JobStore
	validate *validator.Validate
}

// NewJobService constructs a JobService around store.
func NewJobService(store JobStore) *JobService {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &JobService{store: store, validate: v}
}

// Submit validates req and stores a pending job. The plot is stored byte for
// byte as submitted; it is the extraction cache key input.
func (s *JobService) Submit(ctx context.Context, req SubmitRequest) (Job, error) {
	req.Title = strings.TrimSpace(req.Title)
	if err := s.Validate(req); err != nil {
		return Job{}, err
	}
	job, err := s.store.Create(ctx, queue.NewJob{
		Title:     req.Title,
		Plot:      req.Plot,
		BudgetCap: req.BudgetCap,
		Industry:  req.Industry,
	})
	if err != nil {
		return Job{}, err
	}
	return FromJob(job), nil
}

// Validate checks a submission against its struct tags. Text fields are
// checked trimmed so a whitespace-only plot is rejected; req is not modified.
func (s *JobService) Validate(req SubmitRequest) error {
	req.Title = strings.TrimSpace(req.Title)
	req.Plot = strings.TrimSpace(req.Plot)
	err := s.validate.Struct(req)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = fieldMessage(fe)
	}
	return &ValidationError{Fields: fields}
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "gt":
		return "must be greater than " + fe.Param()
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	default:
		return "failed " + fe.Tag()
	}
}

// List returns jobs filtered by status, newest first.
func (s *JobService) List(ctx context.Context, statuses ...queue.Status) ([]Job, error) {
	jobs, err := s.store.List(ctx, statuses...)
	if err != nil {
		return nil, err
	}
	return FromJobs(jobs), nil
}

// Describe fetches a single job; nil when it does not exist.
func (s *JobService) Describe(ctx context.Context, id int64) (*Job, error) {
	job, err := s.store.GetByID(ctx, id)
	if err != nil || job == nil {
		return nil, err
	}
	dto := FromJob(job)
	return &dto, nil
}

// Remove deletes a job and reports whether it existed.
func (s *JobService) Remove(ctx context.Context, id int64) (bool, error) {
	return s.store.Remove(ctx, id)
}

// Stats returns job counts keyed by status string.
func (s *JobService) Stats(ctx context.Context) (map[string]int, error) {
	stats, err := s.store.Stats(ctx)
	if err != nil {
		return nil, err
	}
	return MergeStats(stats), nil
}

// Ping checks database reachability.
func (s *JobService) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}
