package queueaccess

import (
	"context"
	"strings"

	"castos/internal/api"
	"castos/internal/queue"
)

// Access provides job operations regardless of HTTP or direct store backing.
type Access interface {
	Submit(ctx context.Context, req api.SubmitRequest) (api.Job, error)
	List(ctx context.Context, statuses []string) ([]api.Job, error)
	Describe(ctx context.Context, id int64) (*api.Job, error)
	Remove(ctx context.Context, id int64) (bool, error)
	Stats(ctx context.Context) (map[string]int, error)
}

// NewHTTPAccess returns an Access backed by the daemon's HTTP API.
func NewHTTPAccess(client *Client) Access {
	return &httpAccess{client: client}
}

// NewStoreAccess returns an Access backed by direct DB access.
func NewStoreAccess(store *queue.Store) Access {
	return &storeAccess{service: api.NewJobService(store)}
}

type httpAccess struct {
	client *Client
}

func (a *httpAccess) Submit(ctx context.Context, req api.SubmitRequest) (api.Job, error) {
	ack, err := a.client.Submit(ctx, req)
	if err != nil {
		return api.Job{}, err
	}
	job, err := a.client.Describe(ctx, ack.ID)
	if err != nil || job == nil {
		return api.Job{ID: ack.ID, Status: ack.Status, Title: req.Title}, err
	}
	return *job, nil
}

func (a *httpAccess) List(ctx context.Context, statuses []string) ([]api.Job, error) {
	return a.client.List(ctx, statuses)
}

func (a *httpAccess) Describe(ctx context.Context, id int64) (*api.Job, error) {
	return a.client.Describe(ctx, id)
}

func (a *httpAccess) Remove(ctx context.Context, id int64) (bool, error) {
	return a.client.Remove(ctx, id)
}

func (a *httpAccess) Stats(ctx context.Context) (map[string]int, error) {
	health, err := a.client.Health(ctx)
	if err != nil {
		return nil, err
	}
	return health.QueueStats, nil
}

type storeAccess struct {
	service *api.JobService
}

func (a *storeAccess) Submit(ctx context.Context, req api.SubmitRequest) (api.Job, error) {
	return a.service.Submit(ctx, req)
}

func (a *storeAccess) List(ctx context.Context, statuses []string) ([]api.Job, error) {
	var filters []queue.Status
	for _, s := range statuses {
		if parsed, ok := queue.ParseStatus(strings.ToLower(strings.TrimSpace(s))); ok {
			filters = append(filters, parsed)
		}
	}
	return a.service.List(ctx, filters...)
}

func (a *storeAccess) Describe(ctx context.Context, id int64) (*api.Job, error) {
	return a.service.Describe(ctx, id)
}

func (a *storeAccess) Remove(ctx context.Context, id int64) (bool, error) {
	return a.service.Remove(ctx, id)
}

func (a *storeAccess) Stats(ctx context.Context) (map[string]int, error) {
	return a.service.Stats(ctx)
}
