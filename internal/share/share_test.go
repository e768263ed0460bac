package share

import (
	"strings"
	"testing"

	"github.com/plannotator/plannotator/internal/codec"
)

func TestGenerateRemoteShareURL(t *testing.T) {
	url, err := GenerateRemoteShareURL("# My Plan\n\nDo things.", "")
	if err != nil {
		t.Fatalf("GenerateRemoteShareURL failed: %v", err)
	}
	if !strings.HasPrefix(url, DefaultBaseURL+"/#") {
		t.Fatalf("Expected default base URL prefix, got %q", url)
	}

	fragment := strings.TrimPrefix(url, DefaultBaseURL+"/#")
	var got map[string]any
	if err := codec.Decompress(fragment, &got); err != nil {
		t.Fatalf("Fragment did not decode: %v", err)
	}
	if got["p"] != "# My Plan\n\nDo things." {
		t.Errorf("Plan did not survive the fragment round trip: %v", got["p"])
	}
	if anns, ok := got["a"].([]any); !ok || len(anns) != 0 {
		t.Errorf("Expected empty annotation list, got %v", got["a"])
	}
}

func TestGenerateRemoteShareURLCustomBase(t *testing.T) {
	url, err := GenerateRemoteShareURL("plan", "https://review.example.com")
	if err != nil {
		t.Fatalf("GenerateRemoteShareURL failed: %v", err)
	}
	if !strings.HasPrefix(url, "https://review.example.com/#") {
		t.Errorf("Expected custom base URL, got %q", url)
	}
}

func TestWriteRemoteShareLink(t *testing.T) {
	var buf strings.Builder
	WriteRemoteShareLink(&buf, "# Plan", "")

	out := buf.String()
	if !strings.Contains(out, "Share link") {
		t.Errorf("Expected share link header in output, got %q", out)
	}
	if !strings.Contains(out, DefaultBaseURL+"/#") {
		t.Errorf("Expected link in output, got %q", out)
	}
}

func TestFormatSize(t *testing.T) {
	cases := []struct {
		n    int
		want string
	}{
		{0, "0 B"},
		{512, "512 B"},
		{1023, "1023 B"},
		{2048, "2.0 KB"},
		{1536, "1.5 KB"},
		{200_000, "195 KB"},
		{1_048_576, "1024 KB"},
	}
	for _, tc := range cases {
		if got := FormatSize(tc.n); got != tc.want {
			t.Errorf("FormatSize(%d) = %q, want %q", tc.n, got, tc.want)
		}
	}
}
