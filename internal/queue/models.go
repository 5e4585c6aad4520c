package queue

import (
	"time"

	"github.com/goccy/go-json"
)

// Status is the lifecycle state of a casting job.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

var allStatuses = []Status{StatusPending, StatusCompleted, StatusFailed}

// AllStatuses returns every known status in lifecycle order.
func AllStatuses() []Status {
	out := make([]Status, len(allStatuses))
	copy(out, allStatuses)
	return out
}

// ParseStatus maps a string to a known status.
func ParseStatus(raw string) (Status, bool) {
	for _, s := range allStatuses {
		if string(s) == raw {
			return s, true
		}
	}
	return "", false
}

// IsTerminal reports whether no further transitions are allowed.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Job is a persisted casting job.
type Job struct {
	ID        int64
	Title     string
	Plot      string
	BudgetCap float64
	Industry  string
	Status    Status
	// RawCharactersJSON holds the pipeline output, {"characters": [...]}.
	RawCharactersJSON string
	// OptimizationResultJSON holds the selection list.
	OptimizationResultJSON string
	ErrorMessage           string
	CreatedAt              time.Time
	UpdatedAt              time.Time
}

// SetRawCharacters encodes the pipeline payload onto the job.
func (j *Job) SetRawCharacters(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	j.RawCharactersJSON = string(data)
	return nil
}

// SetOptimizationResult encodes the optimizer output onto the job.
func (j *Job) SetOptimizationResult(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	j.OptimizationResultJSON = string(data)
	return nil
}

// DecodeOptimizationResult decodes the stored result into target. It reports
// false when no result is stored.
func (j *Job) DecodeOptimizationResult(target any) (bool, error) {
	if j.OptimizationResultJSON == "" {
		return false, nil
	}
	return true, json.Unmarshal([]byte(j.OptimizationResultJSON), target)
}

// DecodeRawCharacters decodes the stored pipeline payload into target.
func (j *Job) DecodeRawCharacters(target any) (bool, error) {
	if j.RawCharactersJSON == "" {
		return false, nil
	}
	return true, json.Unmarshal([]byte(j.RawCharactersJSON), target)
}
