package server

import (
	"net/http"
	"net/url"

	"github.com/codecraftpk/craftsite/internal/errors"
	"github.com/codecraftpk/craftsite/internal/live"
)

func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	if err := checkOrigin(r, s.config.Server.AllowedOrigins); err != nil {
		s.logger.Warn(r.Context(), err, "Live connection rejected",
			"origin", r.Header.Get("Origin"),
			"ip", s.proxies.ClientIP(r))
		http.Error(w, "Origin not allowed", http.StatusForbidden)
		return
	}

	conn, err := live.Accept(w, r, originPatterns(s.config.Server.AllowedOrigins))
	if err != nil {
		s.logger.Warn(r.Context(), err, "WebSocket upgrade failed")
		return
	}

	// Hub logs how the session ended.
	_ = s.hub.Serve(r.Context(), live.NewSession(s.sessionConfig(r), conn))
}

// originPatterns turns allowed origins into the host patterns the websocket
// handshake checks.
func originPatterns(allowedOrigins []string) []string {
	patterns := make([]string, 0, len(allowedOrigins))
	for _, allowed := range allowedOrigins {
		if u, err := url.Parse(allowed); err == nil && u.Host != "" {
			patterns = append(patterns, u.Host)
		}
	}
	return patterns
}

// checkOrigin validates the origin of a live connection. A missing Origin
// header is rejected.
func checkOrigin(r *http.Request, allowedOrigins []string) error {
	if r.Header.Get("Origin") == "" {
		return errors.NewValidationError(errors.ErrCodeInvalidOrigin, "missing origin header")
	}
	if !isValidOrigin(r, allowedOrigins) {
		return errors.NewValidationError(errors.ErrCodeInvalidOrigin, "origin not allowed").
			WithContext("origin", r.Header.Get("Origin"))
	}
	return nil
}
