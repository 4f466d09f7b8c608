package feed

import (
	"testing"
	"unicode/utf8"
)

func TestSanitizeFilename(t *testing.T) {
	tests := map[string]string{
		"ep.1":                            "ep.1",
		"ep 1!":                           "ep_1_",
		"":                                "",
		"a-b.c":                           "a-b.c",
		"https://example.com/ep?id=4&x=1": "https___example.com_ep_id_4_x_1",
		"tag:soundcloud,2010:tracks/123":  "tag_soundcloud_2010_tracks_123",
		"$+<=>^`|~":                       "_________",
		"tab\there":                       "tab_here",
		"café":                            "café",
	}

	for input, expected := range tests {
		if got := SanitizeFilename(input); got != expected {
			t.Errorf("SanitizeFilename(%q): expected %q, got %q", input, expected, got)
		}
	}
}

func TestSanitizeFilenamePreservesLength(t *testing.T) {
	inputs := []string{"ep 1!", "  ..--  ", "日本語 ポッドキャスト", "a/b\\c"}
	for _, input := range inputs {
		got := SanitizeFilename(input)
		if utf8.RuneCountInString(got) != utf8.RuneCountInString(input) {
			t.Errorf("Expected %q to keep its length, got %q", input, got)
		}
	}
}

func TestSanitizeFilenameDoesNotRewriteLeadingCharacters(t *testing.T) {
	if got := SanitizeFilename(".hidden"); got != ".hidden" {
		t.Errorf("Expected leading dot to be kept, got %q", got)
	}
	if got := SanitizeFilename("-dash"); got != "-dash" {
		t.Errorf("Expected leading dash to be kept, got %q", got)
	}
}
