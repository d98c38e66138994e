// Package sanitize implements the track-title-to-slug sanitization contract
// and the derived-tag-set computation shared by the projection layer and the
// download pipeline.
package sanitize

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
)

// Untitled is the slug returned for empty or all-punctuation titles.
const Untitled = "untitled"

// Untagged is the synthetic tag assigned to tracks whose derived tag set is
// empty.
const Untagged = "untagged"

const maxSlugRunes = 50

var (
	invalidChars = regexp.MustCompile(`[/\\:?"*<>|]`)
	whitespaceRe = regexp.MustCompile(`\s+`)
	hashtagRe    = regexp.MustCompile(`#[A-Za-z0-9_]+`)
)

// isSlugRune reports whether r survives the stray-punctuation strip: letters,
// digits, underscore, whitespace and hyphen all pass through untouched.
func isSlugRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) || r == '-' || r == '_'
}

// Sanitize converts a track title into a filesystem-safe, collision-stable
// slug:
//  1. empty/absent -> "untitled"
//  2. replace / \ : ? " * < > | with '-', one rune at a time
//  3. remove '.' entirely
//  4. strip any remaining character that is not a letter, digit, underscore,
//     whitespace, or hyphen (drops stray punctuation like !@#$%^&())
//  5. collapse each run of whitespace into a single '-'; existing hyphens are
//     left exactly as they are, so "a - b" yields "a---b", not "a-b"
//  6. trim leading/trailing hyphens and whitespace
//  7. lowercase (Unicode-aware)
//  8. truncate to 50 code points, re-trimming any hyphen left dangling by the cut
//  9. empty result -> "untitled"
//
// Sanitize is pure and total, and idempotent: Sanitize(Sanitize(s)) == Sanitize(s).
func Sanitize(s string) string {
	if s == "" {
		return Untitled
	}

	s = invalidChars.ReplaceAllString(s, "-")
	s = strings.ReplaceAll(s, ".", "")
	s = strings.Map(func(r rune) rune {
		if isSlugRune(r) {
			return r
		}
		return -1
	}, s)
	s = whitespaceRe.ReplaceAllString(s, "-")
	s = strings.Trim(s, "- \t\n\r\v\f")
	s = strings.ToLower(s)

	runes := []rune(s)
	if len(runes) > maxSlugRunes {
		runes = runes[:maxSlugRunes]
		s = strings.Trim(string(runes), "- \t\n\r\v\f")
	} else {
		s = string(runes)
	}

	if s == "" {
		return Untitled
	}
	return s
}

// DeriveTags returns the lowercased, deduplicated union of hashtags found in
// description (matching #[A-Za-z0-9_]+) and the explicit tag list. The
// result is sorted for deterministic listing order; an empty result means
// the caller should treat the track as belonging to Untagged.
func DeriveTags(description string, explicit []string) []string {
	seen := make(map[string]struct{})
	for _, m := range hashtagRe.FindAllString(description, -1) {
		tag := strings.ToLower(strings.TrimPrefix(m, "#"))
		if tag != "" {
			seen[tag] = struct{}{}
		}
	}
	for _, tag := range explicit {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag != "" {
			seen[tag] = struct{}{}
		}
	}
	if len(seen) == 0 {
		return nil
	}
	out := make([]string, 0, len(seen))
	for tag := range seen {
		out = append(out, tag)
	}
	sort.Strings(out)
	return out
}

// EffectiveTags returns DeriveTags's result, or []string{Untagged} when it is
// empty, matching the tag-tree's "empty derived set belongs to untagged"
// rule from the data model.
func EffectiveTags(description string, explicit []string) []string {
	tags := DeriveTags(description, explicit)
	if len(tags) == 0 {
		return []string{Untagged}
	}
	return tags
}

// HasTag reports whether tag is in the track's effective (derived-or-untagged)
// tag set.
func HasTag(description string, explicit []string, tag string) bool {
	for _, t := range EffectiveTags(description, explicit) {
		if t == tag {
			return true
		}
	}
	return false
}
