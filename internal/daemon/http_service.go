package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"castos/internal/logging"
)

// httpService runs the API server as a supervised service.
type httpService struct {
	bind            string
	handler         http.Handler
	shutdownTimeout time.Duration
	logger          *slog.Logger

	mu   sync.Mutex
	addr net.Addr
}

func newHTTPService(bind string, handler http.Handler, logger *slog.Logger) *httpService {
	return &httpService{
		bind:            bind,
		handler:         handler,
		shutdownTimeout: 10 * time.Second,
		logger:          logging.NewComponentLogger(logger, "api-server"),
	}
}

// Serve implements suture.Service. It listens until ctx is cancelled and then
// shuts the server down gracefully.
func (h *httpService) Serve(ctx context.Context) error {
	listener, err := net.Listen("tcp", h.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	h.mu.Lock()
	h.addr = listener.Addr()
	h.mu.Unlock()

	server := &http.Server{
		Handler:           h.handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()
	h.logger.Info("api server listening",
		logging.String(logging.FieldEventType, "api_listening"),
		logging.String("address", listener.Addr().String()),
	)

	select {
	case err, ok := <-errCh:
		if ok && err != nil {
			return fmt.Errorf("api server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), h.shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		h.logger.Warn("api server shutdown incomplete", logging.Error(err))
	}
	return ctx.Err()
}

// Addr returns the bound address once the server is listening.
func (h *httpService) Addr() net.Addr {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.addr
}

func (h *httpService) String() string { return "http-server" }
