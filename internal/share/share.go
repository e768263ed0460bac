// Package share builds self-contained review links for remote
// sessions. The plan travels in the URL fragment, compressed, so the
// page that reconstructs it needs no server-side session.
package share

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/plannotator/plannotator/internal/codec"
)

// DefaultBaseURL is the hosted portal that reconstructs a review from
// the URL fragment alone.
const DefaultBaseURL = "https://plannotator.ai"

// payload is the fragment schema. Keys are single letters to keep the
// encoded fragment short.
type payload struct {
	Plan        string   `json:"p"`
	Annotations []string `json:"a"`
}

// GenerateRemoteShareURL returns a browser-openable URL whose fragment
// carries the compressed plan. baseURL falls back to DefaultBaseURL
// when empty.
func GenerateRemoteShareURL(plan, baseURL string) (string, error) {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	encoded, err := codec.Compress(payload{Plan: plan, Annotations: []string{}})
	if err != nil {
		return "", fmt.Errorf("encode share payload: %w", err)
	}
	return baseURL + "/#" + encoded, nil
}

// WriteRemoteShareLink formats the share link plus its size to w. This
// is a best-effort convenience for tunneled setups: failures are logged
// and swallowed, never surfaced to the decision flow.
func WriteRemoteShareLink(w io.Writer, plan, baseURL string) {
	url, err := GenerateRemoteShareURL(plan, baseURL)
	if err != nil {
		slog.Warn("Failed to generate share link", "error", err)
		return
	}
	fmt.Fprintf(w, "\nShare link (%s):\n%s\n", FormatSize(len(url)), url)
}

// FormatSize renders a byte count for humans: plain bytes below 1 KB,
// one decimal place of KB below 100 KB, whole KB above.
func FormatSize(n int) string {
	const kb = 1024
	switch {
	case n < kb:
		return fmt.Sprintf("%d B", n)
	case n < 100*kb:
		return fmt.Sprintf("%.1f KB", float64(n)/kb)
	default:
		return fmt.Sprintf("%.0f KB", float64(n)/kb)
	}
}
