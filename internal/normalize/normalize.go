// Package normalize implements the deterministic text canonicalization
// pipeline that maps a raw benefit phrase to a dense match key.
package normalize

import (
	"regexp"
	"strings"
)

var (
	nonAlnumSpace = regexp.MustCompile(`[^a-z0-9\s]+`)
	multiSpace    = regexp.MustCompile(`\s+`)
	nonAlnum      = regexp.MustCompile(`[^a-z0-9]+`)
)

// fillerPatterns are stock conversational phrases stripped before
// matching. Order matters: patterns are applied sequentially, so an
// earlier removal can expose text matched by a later pattern.
// Apostrophes are already gone by the time these run ("what's" -> "whats").
var fillerPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\bwhats\b`),
	regexp.MustCompile(`\bwhat is\b`),
	regexp.MustCompile(`\bwhat are\b`),
	regexp.MustCompile(`\bhow much is\b`),
	regexp.MustCompile(`\btell me about\b`),
	regexp.MustCompile(`\bhelp me with\b`),
	regexp.MustCompile(`\bhelp me\b`),
	regexp.MustCompile(`\bplease show\b`),
	regexp.MustCompile(`\bshow me\b`),
	regexp.MustCompile(`\bcan you\b`),
	regexp.MustCompile(`\bgive me\b`),
	// Standalone "me" last among the me-phrases, so it catches the
	// leftover when an earlier removal splits a phrase ("please show"
	// out of "please show me").
	regexp.MustCompile(`\bme\b`),
	regexp.MustCompile(`\bplease\b`),
	regexp.MustCompile(`\bmy\b`),
	regexp.MustCompile(`\bthe\b`),
	regexp.MustCompile(`\bfor\b`),
}

type synonymRule struct {
	pattern   *regexp.Regexp
	canonical string
}

// synonymRules expand domain phrasing variants to one canonical term.
// Applied in order over the whole (already lowercased, punctuation-free)
// string. Canonical forms are chosen from the dataset's own label
// vocabulary: the matcher tests containment of the query key inside the
// label key, and label keys see none of these rewrites, so a canonical
// term longer than what labels actually say can never match. "copay"
// stays short for that reason, and a fuller label ("Copayment") still
// contains it.
var synonymRules = []synonymRule{
	{regexp.MustCompile(`\bco ?pay(ment)?s?\b`), "copay"},
	{regexp.MustCompile(`\boops?\b`), "out of pocket"},
	{regexp.MustCompile(`\bout of pockets?\b`), "out of pocket"},
	{regexp.MustCompile(`\bco ?insurances?\b`), "coinsurance"},
	{regexp.MustCompile(`\bdeductibles\b`), "deductible"},
	{regexp.MustCompile(`\bmax(imum)?\b`), "maximum"},
	{regexp.MustCompile(`\brx\b`), "prescription"},
}

// Normalize maps a raw phrase to its dense match key. The pipeline order
// is load-bearing: lowercase/strip, filler removal, whitespace collapse,
// synonym expansion, final compaction to [a-z0-9]. Normalize is
// idempotent: Normalize(Normalize(s)) == Normalize(s).
func Normalize(raw string) string {
	s := strings.ToLower(raw)
	s = nonAlnumSpace.ReplaceAllString(s, "")

	for _, p := range fillerPatterns {
		s = p.ReplaceAllString(s, " ")
	}

	s = strings.TrimSpace(multiSpace.ReplaceAllString(s, " "))

	for _, r := range synonymRules {
		s = r.pattern.ReplaceAllString(s, r.canonical)
	}

	return nonAlnum.ReplaceAllString(s, "")
}

// CompactKey lowercases and strips everything outside [a-z0-9]. This is
// the label-side normalizer: dataset labels skip filler and synonym
// handling so the stored key mirrors the label as written.
func CompactKey(s string) string {
	return nonAlnum.ReplaceAllString(strings.ToLower(s), "")
}

// labelJunk covers typographic dashes, zero-width characters, and
// non-breaking spaces that show up in spreadsheet exports. The
// invisible ones are spelled as escapes: a literal BOM is not valid
// Go source past the first byte of a file.
var labelJunk = strings.NewReplacer(
	"‐", "-", "‑", "-", "‒", "-", "–", "-",
	"—", "-", "―", "-",
	"\u200b", "", "\u200c", "", "\u200d", "", "\ufeff", "",
	"\u00a0", " ",
)

// CleanLabel trims surrounding whitespace and replaces typographic
// dash/zero-width characters before a label is normalized or displayed.
func CleanLabel(s string) string {
	return strings.TrimSpace(labelJunk.Replace(s))
}
