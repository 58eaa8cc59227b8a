package core

import "strings"

const (
	// offsetSearchWindow is how far before the hint the exact-match search
	// may begin. Extractor hints are close but rarely exact.
	offsetSearchWindow = 200

	// offsetPrefixLen is the prefix length used by the truncated-prefix
	// tier. Extractors sometimes truncate or paraphrase the tail of a
	// passage; the head is far more reliable.
	offsetPrefixLen = 80
)

// ResolveSpan recovers the exact half-open character span of passageText
// within source, using hintStart as an approximate starting point. The hint
// may be inaccurate or out of range; no error is ever returned.
//
// Three tiers, first success wins:
//
//  1. Exact substring search starting at max(0, hintStart-200), unbounded
//     forward.
//  2. Search for the first 80 characters only, from the same window start.
//     The returned end is start + len(passageText) even though only the
//     prefix matched: this assumes the untruncated passage occupies
//     contiguous space after the matched prefix. Near the end of the
//     document that end can exceed len(source); the approximation is
//     deliberate and callers must tolerate it.
//  3. Fall back to (hintStart, hintStart+len(passageText)) verbatim, with
//     no bounds validation. Spans from this tier are unverified.
//
// Matching is always exact substring search, never fuzzy: fast and
// deterministic, at the cost of missing passages the extractor reworded.
// Reworded text is still indexed; only its offsets may be wrong.
func ResolveSpan(source, passageText string, hintStart int) (start, end int) {
	searchStart := hintStart - offsetSearchWindow
	if searchStart < 0 {
		searchStart = 0
	}

	if searchStart < len(source) {
		if idx := strings.Index(source[searchStart:], passageText); idx >= 0 {
			start = searchStart + idx
			return start, start + len(passageText)
		}

		prefix := passageText
		if len(prefix) > offsetPrefixLen {
			prefix = prefix[:offsetPrefixLen]
		}
		if idx := strings.Index(source[searchStart:], prefix); idx >= 0 {
			start = searchStart + idx
			return start, start + len(passageText)
		}
	}

	return hintStart, hintStart + len(passageText)
}
