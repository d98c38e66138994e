package sanitize

import (
	"strings"
	"testing"
)

func TestSanitizeWorkedExamples(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"", "untitled"},
		{"   ", "untitled"},
		{"Artist - Song Title", "artist---song-title"},
		{`Track!@#$%^&*()`, "track"},
		{"Tëst Tráck", "tëst-tráck"},
	}
	for _, c := range cases {
		if got := Sanitize(c.in); got != c.want {
			t.Errorf("Sanitize(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestSanitizeReservedChars(t *testing.T) {
	got := Sanitize(`a/b\c:d?e"f*g<h>i|j`)
	if strings.ContainsAny(got, `/\:?"*<>|`) {
		t.Fatalf("Sanitize result %q still contains a reserved character", got)
	}
}

func TestSanitizeDropsDots(t *testing.T) {
	got := Sanitize("v1.2.3 release")
	if strings.Contains(got, ".") {
		t.Fatalf("Sanitize result %q still contains a dot", got)
	}
}

func TestSanitizeNoLeadingTrailingHyphen(t *testing.T) {
	for _, in := range []string{"  leading space", "trailing space  ", "---dashes---", ".", "*"} {
		got := Sanitize(in)
		if strings.HasPrefix(got, "-") || strings.HasSuffix(got, "-") {
			t.Fatalf("Sanitize(%q) = %q has a leading or trailing hyphen", in, got)
		}
	}
}

func TestSanitizeTruncatesTo50Runes(t *testing.T) {
	long := strings.Repeat("a", 200)
	got := Sanitize(long)
	if n := len([]rune(got)); n > maxSlugRunes {
		t.Fatalf("Sanitize result has %d runes, want <= %d", n, maxSlugRunes)
	}
}

func TestSanitizeIdempotent(t *testing.T) {
	inputs := []string{
		"Artist - Song Title",
		`Track!@#$%^&*()`,
		"Tëst Tráck",
		"",
		"   ",
		strings.Repeat("x ", 60),
	}
	for _, in := range inputs {
		once := Sanitize(in)
		twice := Sanitize(once)
		if once != twice {
			t.Fatalf("Sanitize not idempotent for %q: %q != %q", in, once, twice)
		}
	}
}

func TestSanitizeNeverEmpty(t *testing.T) {
	for _, in := range []string{"", "   ", "...", "***", "!!!"} {
		if got := Sanitize(in); got == "" {
			t.Fatalf("Sanitize(%q) returned empty string", in)
		}
	}
}

func TestDeriveTagsHashtagsAndExplicit(t *testing.T) {
	tags := DeriveTags("great mix #house #Techno", []string{"Deep", "house"})
	want := []string{"deep", "house", "techno"}
	if len(tags) != len(want) {
		t.Fatalf("DeriveTags = %v, want %v", tags, want)
	}
	for i := range want {
		if tags[i] != want[i] {
			t.Fatalf("DeriveTags = %v, want %v", tags, want)
		}
	}
}

func TestDeriveTagsEmpty(t *testing.T) {
	if tags := DeriveTags("no hashtags here", nil); tags != nil {
		t.Fatalf("DeriveTags = %v, want nil", tags)
	}
}

func TestEffectiveTagsFallsBackToUntagged(t *testing.T) {
	tags := EffectiveTags("plain description", nil)
	if len(tags) != 1 || tags[0] != Untagged {
		t.Fatalf("EffectiveTags = %v, want [%s]", tags, Untagged)
	}
}

func TestHasTag(t *testing.T) {
	if !HasTag("mix #ambient", nil, "ambient") {
		t.Fatal("HasTag should find derived hashtag")
	}
	if HasTag("no tags here", nil, "ambient") {
		t.Fatal("HasTag should not match when tag absent")
	}
	if !HasTag("no tags here", nil, Untagged) {
		t.Fatal("HasTag should match untagged fallback")
	}
}
