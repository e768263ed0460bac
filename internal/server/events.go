package server

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/coder/websocket"
)

// decidedEvent is the single frame broadcast to subscribed browsers
// once the decision lands, so other open tabs can lock their UI.
type decidedEvent struct {
	Type     string `json:"type"`
	Approved bool   `json:"approved"`
}

// handleEvents upgrades to a websocket and holds the connection until
// the session is decided or stopped. Best-effort: a failed notifier
// never affects the decision flow.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		// Remote sessions arrive through a tunnel whose host is not
		// known ahead of time.
		InsecureSkipVerify: true,
	})
	if err != nil {
		slog.Warn("Websocket upgrade failed", "session_id", s.id, "error", err)
		return
	}

	// CloseRead watches for the client going away.
	ctx := ws.CloseRead(r.Context())

	select {
	case <-ctx.Done():
		ws.Close(websocket.StatusNormalClosure, "client closed")
		return
	case <-s.stopped:
		ws.Close(websocket.StatusGoingAway, "session stopped")
		return
	case <-s.decided:
	}

	s.mu.Lock()
	approved := s.decision.Approved
	s.mu.Unlock()

	data, err := json.Marshal(decidedEvent{Type: "decided", Approved: approved})
	if err == nil {
		if err := ws.Write(ctx, websocket.MessageText, data); err != nil {
			slog.Debug("Failed to notify subscriber", "session_id", s.id, "error", err)
		}
	}
	ws.Close(websocket.StatusNormalClosure, "session decided")
}
