package api

import "github.com/goccy/go-json"

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// Job describes a casting job in a transport-friendly format.
type Job struct {
	ID                 int64           `json:"id"`
	Title              string          `json:"title"`
	Plot               string          `json:"plot"`
	BudgetCap          float64         `json:"budget_cap"`
	Industry           string          `json:"industry"`
	Status             string          `json:"status"`
	RawCharacters      json.RawMessage `json:"raw_characters,omitempty"`
	OptimizationResult json.RawMessage `json:"optimization_result,omitempty"`
	ErrorMessage       string          `json:"error_message,omitempty"`
	CreatedAt          string          `json:"created_at,omitempty"`
	UpdatedAt          string          `json:"updated_at,omitempty"`
}

// SubmitRequest is the body of POST /api/jobs.
type SubmitRequest struct {
	Title     string  `json:"title" validate:"required,max=200"`
	Plot      string  `json:"plot" validate:"required"`
	BudgetCap float64 `json:"budget_cap" validate:"gt=0"`
	Industry  string  `json:"industry" validate:"omitempty,max=64"`
}

// SubmitResponse acknowledges an accepted submission.
type SubmitResponse struct {
	ID     int64  `json:"id"`
	Status string `json:"status"`
}

// JobListResponse wraps a job listing.
type JobListResponse struct {
	Jobs []Job `json:"jobs"`
}

// RemoveResponse reports a deletion.
type RemoveResponse struct {
	Removed bool `json:"removed"`
}

// HealthResponse reports daemon health.
type HealthResponse struct {
	Status     string         `json:"status"`
	Database   string         `json:"database"`
	QueueStats map[string]int `json:"queue_stats"`
	InFlight   []int64        `json:"in_flight,omitempty"`
	LastError  string         `json:"last_error,omitempty"`
}

// ErrorResponse is returned for every non-2xx status.
type ErrorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}
