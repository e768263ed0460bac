package main

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/plannotator/plannotator/internal/planstore"
)

// lockedBuffer lets the test poll command output while the command
// goroutine is still writing.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

var reviewURL = regexp.MustCompile(`Review your plan at: (http://localhost:\d+)`)

func writePlanFile(t *testing.T, plan string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "plan.md")
	if err := os.WriteFile(path, []byte(plan), 0o644); err != nil {
		t.Fatalf("Failed to write plan file: %v", err)
	}
	return path
}

func isolateEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"PLANNOTATOR_REMOTE", "PLANNOTATOR_PORT", "PLANNOTATOR_PLAN_DIR", "PLANNOTATOR_SHARE_BASE_URL"} {
		t.Setenv(key, "")
	}
	// cobra caches the subcommand's context across Execute calls; clear
	// it so each test's ExecuteContext context is the one in effect.
	reviewCmd.SetContext(nil)
}

func TestAbortedReviewLeavesNoRecord(t *testing.T) {
	isolateEnv(t)
	planDenied = false

	planDir := filepath.Join(t.TempDir(), "plans")
	planFile := writePlanFile(t, "# Abort Flow\n\nStep one.")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errOut := &lockedBuffer{}
	rootCmd.SetErr(errOut)
	rootCmd.SetOut(&lockedBuffer{})
	rootCmd.SetArgs([]string{"review", planFile, "--plan-dir", planDir})

	done := make(chan error, 1)
	go func() {
		done <- rootCmd.ExecuteContext(ctx)
	}()

	// Wait for the session to be listening, then abandon it.
	waitFor(t, func() bool { return reviewURL.MatchString(errOut.String()) })
	cancel()

	err := <-done
	if err == nil || !strings.Contains(err.Error(), "aborted") {
		t.Fatalf("Expected an aborted-review error, got %v", err)
	}

	// No part of the stored record may exist without a decision.
	entries, readErr := os.ReadDir(planDir)
	if readErr == nil && len(entries) > 0 {
		t.Errorf("Expected no stored record after abort, found %d file(s)", len(entries))
	}
	if readErr != nil && !os.IsNotExist(readErr) {
		t.Fatalf("Failed to inspect plan directory: %v", readErr)
	}
}

func TestDecidedReviewPersistsFullRecord(t *testing.T) {
	isolateEnv(t)
	planDenied = false
	defer func() { planDenied = false }()

	plan := "# Cmd Flow\n\nStep one.\nStep two."
	planDir := filepath.Join(t.TempDir(), "plans")
	planFile := writePlanFile(t, plan)

	errOut := &lockedBuffer{}
	stdOut := &lockedBuffer{}
	rootCmd.SetErr(errOut)
	rootCmd.SetOut(stdOut)
	rootCmd.SetArgs([]string{"review", planFile, "--plan-dir", planDir})

	done := make(chan error, 1)
	go func() {
		done <- rootCmd.ExecuteContext(context.Background())
	}()

	waitFor(t, func() bool { return reviewURL.MatchString(errOut.String()) })
	url := reviewURL.FindStringSubmatch(errOut.String())[1]

	// While undecided, nothing is on disk.
	if entries, err := os.ReadDir(planDir); err == nil && len(entries) > 0 {
		t.Errorf("Expected no files before the decision, found %d", len(entries))
	}

	body := `{"approved": false, "feedback": {"annotations": [{"start": 3, "end": 3, "text": "tighten this"}]}}`
	resp, err := http.Post(url+"/decision", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST /decision failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", resp.StatusCode)
	}

	if err := <-done; err != nil {
		t.Fatalf("Command failed: %v", err)
	}
	if !planDenied {
		t.Error("Expected the denied exit path")
	}
	if !strings.Contains(stdOut.String(), "Line 3: tighten this") {
		t.Errorf("Expected feedback on stdout, got %q", stdOut.String())
	}

	slug := planstore.Slug(plan, time.Now())
	wantFeedback := "Line 3: tighten this"
	checks := []struct {
		file string
		want string
	}{
		{slug + ".md", plan},
		{slug + ".annotations.md", wantFeedback},
		{fmt.Sprintf("%s-denied.md", slug), plan + "\n\n---\n\n" + wantFeedback},
	}
	for _, c := range checks {
		data, err := os.ReadFile(filepath.Join(planDir, c.file))
		if err != nil {
			t.Errorf("Missing record file %s: %v", c.file, err)
			continue
		}
		if string(data) != c.want {
			t.Errorf("Record file %s = %q, want %q", c.file, string(data), c.want)
		}
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("Condition not met within deadline")
}
