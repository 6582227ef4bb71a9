package panel

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/rendis/vetassist/internal/streaming"
)

const sseKeepAlive = 25 * time.Second

// handleSSEGlobal streams every session's events. Repeated ?type= parameters
// restrict the event types.
func (s *PanelServer) handleSSEGlobal(w http.ResponseWriter, r *http.Request) {
	s.serveSSE(w, r, streaming.EventFilter{EventTypes: r.URL.Query()["type"]})
}

func (s *PanelServer) handleSSESession(w http.ResponseWriter, r *http.Request) {
	s.serveSSE(w, r, streaming.EventFilter{
		SessionID:  r.PathValue("id"),
		EventTypes: r.URL.Query()["type"],
	})
}

// serveSSE subscribes before sending headers so no event published after the
// response starts is missed. Idle streams get a comment line every
// sseKeepAlive to keep proxies from closing them.
func (s *PanelServer) serveSSE(w http.ResponseWriter, r *http.Request, filter streaming.EventFilter) {
	if s.deps.Hub == nil {
		writeError(w, http.StatusNotFound, "event streaming is not configured")
		return
	}

	events, cancel, err := s.deps.Hub.Subscribe(r.Context(), filter)
	if err != nil {
		s.deps.Logger.Error("sse subscribe", slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "subscribe failed")
		return
	}
	defer cancel()

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	rc := http.NewResponseController(w)
	if err := rc.Flush(); err != nil {
		s.deps.Logger.Warn("sse flush unsupported", slog.Any("error", err))
		return
	}

	ping := time.NewTicker(sseKeepAlive)
	defer ping.Stop()
	for {
		select {
		case <-r.Context().Done():
			return
		case <-ping.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
		case ev, ok := <-events:
			if !ok {
				return
			}
			data, err := json.Marshal(ev)
			if err != nil {
				s.deps.Logger.Warn("sse encode", slog.String("event", ev.EventType), slog.Any("error", err))
				continue
			}
			if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.EventType, data); err != nil {
				return
			}
		}
		if err := rc.Flush(); err != nil {
			return
		}
	}
}
