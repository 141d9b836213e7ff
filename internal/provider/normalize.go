package provider

import (
	"strings"
	"time"
)

// extractBranchFromRef strips the refs/heads/ (or refs/) prefix from a Git
// ref, e.g. "refs/heads/release/2.0" -> "release/2.0".
func extractBranchFromRef(ref string) string {
	if branch, ok := strings.CutPrefix(ref, "refs/heads/"); ok {
		return branch
	}
	if branch, ok := strings.CutPrefix(ref, "refs/"); ok {
		return branch
	}
	return ref
}

// timestampFallbacks are tried after RFC 3339 fails. Providers are not
// perfectly consistent about offsets and separators.
var timestampFallbacks = []string{
	"2006-01-02T15:04:05-0700",
	"2006-01-02 15:04:05 -0700",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// parseTimestamp parses a provider commit timestamp. It returns the current
// wall-clock time and false when no format matches; a bad timestamp must
// never fail the whole commit.
func parseTimestamp(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Now().UTC(), false
	}

	if ts, err := time.Parse(time.RFC3339, value); err == nil {
		return ts, true
	}

	// Layouts without a zone parse as UTC, which is the assumption we want.
	for _, layout := range timestampFallbacks {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts, true
		}
	}

	return time.Now().UTC(), false
}

// splitRawAuthor parses Bitbucket's raw author format "Name <email>". When
// the angle brackets are absent the whole string is treated as the name.
func splitRawAuthor(raw string) (name, email string) {
	open := strings.Index(raw, "<")
	end := strings.LastIndex(raw, ">")
	if open < 0 || end < open {
		return strings.TrimSpace(raw), ""
	}
	return strings.TrimSpace(raw[:open]), strings.TrimSpace(raw[open+1 : end])
}
