package api

import (
	"strings"

	"github.com/goccy/go-json"

	"castos/internal/queue"
)

// FromJob converts a stored job into its API representation.
func FromJob(job *queue.Job) Job {
	if job == nil {
		return Job{}
	}
	dto := Job{
		ID:           job.ID,
		Title:        job.Title,
		Plot:         job.Plot,
		BudgetCap:    job.BudgetCap,
		Industry:     job.Industry,
		Status:       string(job.Status),
		ErrorMessage: strings.TrimSpace(job.ErrorMessage),
	}
	if raw := strings.TrimSpace(job.RawCharactersJSON); raw != "" && json.Valid([]byte(raw)) {
		dto.RawCharacters = json.RawMessage(raw)
	}
	if raw := strings.TrimSpace(job.OptimizationResultJSON); raw != "" && json.Valid([]byte(raw)) {
		dto.OptimizationResult = json.RawMessage(raw)
	}
	if !job.CreatedAt.IsZero() {
		dto.CreatedAt = job.CreatedAt.UTC().Format(dateTimeFormat)
	}
	if !job.UpdatedAt.IsZero() {
		dto.UpdatedAt = job.UpdatedAt.UTC().Format(dateTimeFormat)
	}
	return dto
}

// FromJobs converts a slice of stored jobs.
func FromJobs(jobs []*queue.Job) []Job {
	out := make([]Job, 0, len(jobs))
	for _, job := range jobs {
		if job == nil {
			continue
		}
		out = append(out, FromJob(job))
	}
	return out
}

// MergeStats returns counts for every status, including those with no jobs.
func MergeStats(stats map[queue.Status]int) map[string]int {
	out := make(map[string]int, len(queue.AllStatuses()))
	for _, status := range queue.AllStatuses() {
		out[string(status)] = stats[status]
	}
	return out
}
