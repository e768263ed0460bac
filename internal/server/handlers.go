package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/plannotator/plannotator/internal/review"
	"github.com/plannotator/plannotator/web"
)

// decisionRequest is the body of POST /decision.
type decisionRequest struct {
	Approved bool             `json:"approved"`
	Feedback *review.Feedback `json:"feedback,omitempty"`
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

// handleIndex serves the review UI with the plan and origin injected.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	html, err := web.Index(web.BootPayload{Plan: s.plan, Origin: s.origin})
	if err != nil {
		slog.Error("Failed to render review UI", "session_id", s.id, "error", err)
		Error(w, http.StatusInternalServerError, "failed to render review UI")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(html)
}

// handlePlan serves the boot payload directly, for UI bundles whose
// inline injection was stripped by an intermediary.
func (s *Server) handlePlan(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, web.BootPayload{Plan: s.plan, Origin: s.origin})
}

// handleDecision accepts the one decision of the session. The first
// request wins; every later one is rejected without effect.
func (s *Server) handleDecision(w http.ResponseWriter, r *http.Request) {
	var req decisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, "malformed decision body")
		return
	}

	d := review.Decision{Approved: req.Approved, DecidedAt: time.Now()}
	if !req.Approved {
		var fb review.Feedback
		if req.Feedback != nil {
			fb = *req.Feedback
		}
		d.Feedback = review.FormatFeedback(fb)
	}

	if !s.recordDecision(d) {
		Error(w, http.StatusConflict, "session already decided")
		return
	}

	slog.Info("Decision recorded", "session_id", s.id, "approved", d.Approved)
	JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
