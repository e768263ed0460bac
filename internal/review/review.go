// Package review defines the domain types for a plan review session:
// the submitted plan, reviewer annotations, and the terminal decision.
package review

import (
	"fmt"
	"strings"
	"time"
)

// NoChanges is the sentinel feedback emitted when the reviewer submitted
// nothing actionable. Downstream consumers treat it as "no annotations".
const NoChanges = "No changes detected."

// Annotation is one piece of line-anchored feedback. Start and End are
// 1-based inclusive line numbers into the plan. Overlapping ranges are
// allowed and kept in insertion order.
type Annotation struct {
	Start int    `json:"start"`
	End   int    `json:"end"`
	Text  string `json:"text"`
}

// Feedback is the payload of a denial: the annotation set plus an
// optional free-text comment, delivered atomically with the decision.
type Feedback struct {
	Annotations []Annotation `json:"annotations"`
	Comment     string       `json:"comment,omitempty"`
}

// Outcome is the terminal result of a session.
type Outcome string

const (
	OutcomeApproved Outcome = "approved"
	OutcomeDenied   Outcome = "denied"
)

// Decision is the write-once result of a review session. Feedback is
// only meaningful when Approved is false.
type Decision struct {
	Approved  bool
	Feedback  string
	DecidedAt time.Time
}

// Outcome maps the decision to its snapshot status string.
func (d Decision) Outcome() Outcome {
	if d.Approved {
		return OutcomeApproved
	}
	return OutcomeDenied
}

// FormatFeedback renders a Feedback into the text handed back to the
// agent: one block per annotation in insertion order, then the comment.
// An empty feedback set renders as the NoChanges sentinel.
func FormatFeedback(fb Feedback) string {
	var b strings.Builder
	for _, a := range fb.Annotations {
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		if a.Start == a.End {
			fmt.Fprintf(&b, "Line %d: %s", a.Start, a.Text)
		} else {
			fmt.Fprintf(&b, "Lines %d-%d: %s", a.Start, a.End, a.Text)
		}
	}
	if c := strings.TrimSpace(fb.Comment); c != "" {
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString("Comment: ")
		b.WriteString(c)
	}
	if b.Len() == 0 {
		return NoChanges
	}
	return b.String()
}
