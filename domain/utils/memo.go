package utils

import (
	"strconv"
	"strings"
)

// NormalizeMemo canonicalizes a transfer memo or actor identifier for
// comparison: whitespace trimmed, lower-cased, leading @ stripped. Memo
// matching is the de facto authentication mechanism, so it deliberately
// tolerates the variance of hand-typed input.
func NormalizeMemo(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.TrimPrefix(s, "@")
}

// MemoMatches reports whether a transaction memo identifies the actor.
// An empty memo never matches.
func MemoMatches(memo, actorID string) bool {
	normalized := NormalizeMemo(memo)
	if normalized == "" {
		return false
	}
	return normalized == NormalizeMemo(actorID)
}

// FormatTON renders a nanoton amount as a human-readable TON string
func FormatTON(nanotons int64) string {
	whole := nanotons / 1_000_000_000
	frac := nanotons % 1_000_000_000
	if frac < 0 {
		frac = -frac
	}
	if frac == 0 {
		return strconv.FormatInt(whole, 10) + " TON"
	}
	s := strings.TrimRight(strconv.FormatInt(frac+1_000_000_000, 10)[1:], "0")
	return strconv.FormatInt(whole, 10) + "." + s + " TON"
}
