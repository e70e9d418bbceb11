package server

import (
	"context"
	"embed"
	"encoding/json"
	"io/fs"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/a-h/templ"

	"github.com/codecraftpk/craftsite/internal/contact"
	"github.com/codecraftpk/craftsite/internal/live"
	"github.com/codecraftpk/craftsite/internal/version"
	"github.com/codecraftpk/craftsite/internal/view"
)

//go:embed static
var staticFiles embed.FS

func (s *Server) model(mode view.Mode) view.Model {
	return view.Model{
		Site:  s.site,
		Logos: s.catalog.Snapshot(),
		Mode:  mode,
		Year:  s.clock.Now().Year(),
	}
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, c templ.Component, status int) {
	templ.Handler(c, templ.WithStatus(status)).ServeHTTP(w, r)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	mode := view.ModeDeferred
	if r.URL.Query().Get("full") == "1" {
		mode = view.ModeFull
	}
	s.render(w, r, view.Page(s.model(mode)), http.StatusOK)
}

func (s *Server) handleSections(w http.ResponseWriter, r *http.Request) {
	part := view.ParsePart(r.URL.Query().Get("part"))
	s.render(w, r, view.Deferred(s.model(view.ModeFull), part), http.StatusOK)
}

// handleContact runs the contact flow once for a form post and renders the
// full page with the outcome. A failed attempt echoes the draft back.
func (s *Server) handleContact(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	var draft contact.Draft
	for _, field := range contact.Fields {
		// Every name in Fields is known to Set.
		_ = draft.Set(field, r.PostForm.Get(field))
	}

	m := s.model(view.ModeFull)

	clientIP := s.proxies.ClientIP(r)
	result := s.limiter.Check(clientIP)
	setRateLimitHeaders(w, s.limiter, result)
	if !result.Allowed {
		s.limiter.logRejected(r, clientIP)
		m.Contact = view.ContactModel{
			Draft: draft,
			Toast: &contact.Notification{Severity: contact.SeverityError, Message: live.MessageRateLimited},
		}
		s.render(w, r, view.Page(m), http.StatusTooManyRequests)
		return
	}

	var toast contact.Notification
	opts := []contact.Option{contact.WithLogger(s.logger), contact.WithNow(s.clock.Now)}
	if s.recorder != nil {
		opts = append(opts, contact.WithRecorder(s.recorder))
	}
	flow := contact.NewFlow(s.contactConfig(), s.relay, contact.NotifierFunc(func(_ context.Context, n contact.Notification) {
		toast = n
	}), opts...)
	flow.SetDraft(draft)

	outcome := flow.Submit(r.Context())
	m.Contact = view.ContactModel{Draft: flow.Draft(), Toast: &toast}

	status := http.StatusOK
	switch outcome {
	case contact.OutcomeInvalid, contact.OutcomeBot:
		status = http.StatusUnprocessableEntity
	case contact.OutcomeFailed:
		status = http.StatusBadGateway
	}
	s.render(w, r, view.Page(m), status)
}

// LogosResponse is the body of GET /api/logos.
type LogosResponse struct {
	Assets  int             `json:"assets"`
	Entries []live.LogoView `json:"entries"`
}

func (s *Server) handleLogos(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, r, http.StatusOK, LogosResponse{
		Assets:  s.catalog.AssetCount(),
		Entries: live.LogoViews(s.catalog.Snapshot()),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	health := map[string]interface{}{
		"status":    "healthy",
		"timestamp": s.clock.Now().UTC().Format(time.RFC3339),
		"version":   version.GetShortVersion(),
		"checks": map[string]interface{}{
			"live":  map[string]interface{}{"status": "healthy", "sessions": s.hub.Count()},
			"logos": map[string]interface{}{"status": "healthy", "assets": s.catalog.AssetCount()},
		},
	}
	s.writeJSON(w, r, http.StatusOK, health)
}

func (s *Server) writeJSON(w http.ResponseWriter, r *http.Request, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn(r.Context(), err, "Failed to encode JSON response", "path", r.URL.Path)
	}
}

func staticHandler() http.Handler {
	sub, err := fs.Sub(staticFiles, "static")
	if err != nil {
		panic(err)
	}
	return http.StripPrefix("/static/", noDirectoryListing(http.FileServer(http.FS(sub))))
}

// logoHandler serves the logo directory. A missing directory serves nothing.
func logoHandler(dir string) http.Handler {
	if dir == "" {
		return http.NotFoundHandler()
	}
	return http.StripPrefix(LogoURLPrefix+"/", noDirectoryListing(http.FileServer(http.FS(os.DirFS(dir)))))
}

func noDirectoryListing(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "" || strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}
