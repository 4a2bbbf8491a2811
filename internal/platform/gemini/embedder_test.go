package gemini

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestTruncateForEmbedKeepsRunesWhole(t *testing.T) {
	if got := truncateForEmbed("hello"); got != "hello" {
		t.Fatalf("short text altered: %q", got)
	}

	long := strings.Repeat("€", 2700)
	got := truncateForEmbed(long)
	if len(got) > maxEmbedChars {
		t.Fatalf("length: want<=%d got=%d", maxEmbedChars, len(got))
	}
	if !utf8.ValidString(got) {
		t.Fatalf("truncation split a rune")
	}
	if want := 7998; len(got) != want {
		t.Fatalf("cut point: want=%d got=%d", want, len(got))
	}
}
