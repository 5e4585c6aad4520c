package queueaccess

import (
	"context"
	"fmt"
	"time"

	"castos/internal/queue"
)

// Session represents a queue access handle and its cleanup function.
type Session struct {
	Access Access
	// Remote reports whether the session goes through the daemon.
	Remote bool
	close  func() error
}

// Close releases resources associated with the session.
func (s Session) Close() error {
	if s.close == nil {
		return nil
	}
	return s.close()
}

// Dial connects to the daemon API at bind and verifies it answers.
func Dial(ctx context.Context, bind string) (*Client, error) {
	client, err := NewClient(bind)
	if err != nil {
		return nil, err
	}
	probeCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if _, err := client.Health(probeCtx); err != nil {
		return nil, err
	}
	return client, nil
}

// OpenWithFallback tries daemon-backed access first, then falls back to direct store access.
func OpenWithFallback(
	dial func() (*Client, error),
	openStore func() (*queue.Store, error),
) (Session, error) {
	if dial != nil {
		if client, err := dial(); err == nil {
			return Session{Access: NewHTTPAccess(client), Remote: true}, nil
		}
	}

	if openStore == nil {
		return Session{}, fmt.Errorf("open job store: no store opener configured")
	}
	store, err := openStore()
	if err != nil {
		return Session{}, fmt.Errorf("open job store: %w", err)
	}
	return Session{
		Access: NewStoreAccess(store),
		close:  store.Close,
	}, nil
}
