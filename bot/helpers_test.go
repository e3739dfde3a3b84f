package bot

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/google/go-cmp/cmp"
)

func TestSanitize(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		input string
		want  string
	}{
		"plain":   {"hello", "hello"},
		"markup":  {"<b>bold & loud</b>", "&lt;b&gt;bold &amp; loud&lt;/b&gt;"},
		"empty":   {"", ""},
		"partial": {"a > b", "a &gt; b"},
	}
	for name, tc := range tests {
		tc := tc
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			if got := Sanitize(tc.input); got != tc.want {
				t.Errorf("Sanitize(%q) = %q, want %q", tc.input, got, tc.want)
			}
		})
	}
}

func TestSplitMessage(t *testing.T) {
	t.Parallel()

	short := "fits in one message"
	if got := splitMessage(short, 100); len(got) != 1 || got[0] != short {
		t.Errorf("short text: got %v", got)
	}

	long := strings.Repeat("line\n", 10)
	parts := splitMessage(long, 12)
	if len(parts) < 2 {
		t.Fatalf("expected multiple parts, got %d", len(parts))
	}
	for i, part := range parts {
		if len(part) > 12 {
			t.Errorf("part %d exceeds limit: %d bytes", i, len(part))
		}
	}
	if joined := strings.Join(parts, ""); joined != long {
		t.Errorf("parts do not reassemble: %q", joined)
	}

	// Splits prefer newline boundaries when one is present.
	parts = splitMessage("first\nsecond", 10)
	want := []string{"first\n", "second"}
	if diff := cmp.Diff(want, parts); diff != "" {
		t.Errorf("newline split mismatch (-want +got):\n%s", diff)
	}
}

func TestSplitMessageRuneBoundary(t *testing.T) {
	t.Parallel()

	// Each emoji is 4 bytes, so a 10-byte limit falls mid-rune.
	text := strings.Repeat("🙂", 5)
	parts := splitMessage(text, 10)
	for i, part := range parts {
		if !utf8.ValidString(part) {
			t.Errorf("part %d is not valid UTF-8: %q", i, part)
		}
		if len(part) > 10 {
			t.Errorf("part %d exceeds limit: %d bytes", i, len(part))
		}
	}
	if joined := strings.Join(parts, ""); joined != text {
		t.Errorf("parts do not reassemble: %q", joined)
	}
}

func TestChunkIds(t *testing.T) {
	t.Parallel()

	ids := []int64{1, 2, 3, 4, 5, 6, 7}
	got := chunkIds(ids, 3)
	want := [][]int64{{1, 2, 3}, {4, 5, 6}, {7}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("chunkIds mismatch (-want +got):\n%s", diff)
	}

	if chunkIds(nil, 3) != nil {
		t.Error("expected nil for no recipients")
	}
	if chunkIds(ids, 0) != nil {
		t.Error("expected nil for non-positive chunk size")
	}
	if got := chunkIds(ids, 100); len(got) != 1 || len(got[0]) != 7 {
		t.Errorf("oversized chunk: %v", got)
	}
}

func TestDedupe(t *testing.T) {
	t.Parallel()

	got := dedupe([]string{"@a", "", "@b", "@a", "@b", "@c"})
	want := []string{"@a", "@b", "@c"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("dedupe mismatch (-want +got):\n%s", diff)
	}
	if dedupe(nil) != nil {
		t.Error("expected nil for empty input")
	}
}
