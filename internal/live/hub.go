package live

import (
	"context"
	"sync"

	"github.com/codecraftpk/craftsite/internal/errors"
	"github.com/codecraftpk/craftsite/internal/logging"
	"github.com/codecraftpk/craftsite/internal/logos"
)

// Hub tracks the running sessions.
type Hub struct {
	logger logging.Logger

	mu       sync.Mutex
	sessions map[*Session]context.CancelFunc
	closed   bool
	wg       sync.WaitGroup
}

// NewHub creates an empty hub.
func NewHub(logger logging.Logger) *Hub {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Hub{
		logger:   logger.WithComponent("hub"),
		sessions: make(map[*Session]context.CancelFunc),
	}
}

// Serve registers s, runs it until it ends and unregisters it. It fails
// without running s once the hub is closed.
func (h *Hub) Serve(ctx context.Context, s *Session) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		_ = s.transport.Close("server shutting down")
		return errors.NewInternalError(errors.ErrCodeSessionClosed, "hub is closed", nil)
	}
	h.sessions[s] = cancel
	count := len(h.sessions)
	h.wg.Add(1)
	h.mu.Unlock()
	defer h.wg.Done()

	h.logger.Info(ctx, "Client connected", "session", s.ID(), "total", count)

	err := s.Run(ctx)

	h.mu.Lock()
	delete(h.sessions, s)
	count = len(h.sessions)
	h.mu.Unlock()

	if err != nil {
		h.logger.Warn(ctx, err, "Live session ended with error", "session", s.ID())
	}
	h.logger.Info(ctx, "Client disconnected", "session", s.ID(), "total", count)
	return err
}

// Count returns the number of running sessions.
func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.sessions)
}

func (h *Hub) snapshot() []*Session {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]*Session, 0, len(h.sessions))
	for s := range h.sessions {
		out = append(out, s)
	}
	return out
}

// UpdateLogos hands a fresh entry list to every session.
func (h *Hub) UpdateLogos(ctx context.Context, entries []logos.Entry) {
	sessions := h.snapshot()
	for _, s := range sessions {
		s.ReplaceLogos(entries)
	}
	h.logger.Info(ctx, "Broadcast logo update", "sessions", len(sessions), "entries", len(entries))
}

// Close ends every session and waits for them to unmount. Later Serve calls
// fail.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	for _, cancel := range h.sessions {
		cancel()
	}
	h.mu.Unlock()
	h.wg.Wait()
}
