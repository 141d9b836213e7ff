package utils

import "strings"

// NormalizeRepoURL normalizes a repository URL for comparison: trimmed,
// lower-cased, no .git suffix, no trailing slash. Mapping records are stored
// in this form, so webhook lookups reduce to exact equality.
func NormalizeRepoURL(repoURL string) string {
	url := strings.ToLower(strings.TrimSpace(repoURL))
	url = strings.TrimSuffix(url, "/")
	url = strings.TrimSuffix(url, ".git")
	return url
}
