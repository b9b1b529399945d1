package analysis

import (
	"regexp"
	"strings"
)

// WorktreeMarker is the path fragment identifying an agent's isolated
// working copy. File-access matches outside it are accidental.
const WorktreeMarker = "/worktrees/"

var (
	diffGitLine = regexp.MustCompile(`^diff --git a/(.+?) b/(.+?)$`)
	newFileLine = regexp.MustCompile(`^\+\+\+ b/(.+)$`)
	oldFileLine = regexp.MustCompile(`^--- a/(.+)$`)

	worktreePathLine = regexp.MustCompile(`.*` + WorktreeMarker + `.*`)
)

// ParseDiffFilePaths extracts the file paths a unified diff touches from its
// header lines. Three shapes are recognized: "diff --git a/p b/p" (both
// paths), "+++ b/p", and "--- a/p". Every other line is ignored. Paths come
// back deduplicated in first-seen order.
func ParseDiffFilePaths(diff string) []string {
	var paths []string
	for _, line := range strings.Split(diff, "\n") {
		line = strings.TrimSpace(line)
		if m := diffGitLine.FindStringSubmatch(line); m != nil {
			paths = append(paths, m[1], m[2])
			continue
		}
		if m := newFileLine.FindStringSubmatch(line); m != nil {
			paths = append(paths, m[1])
			continue
		}
		if m := oldFileLine.FindStringSubmatch(line); m != nil {
			paths = append(paths, m[1])
		}
	}

	seen := make(map[string]struct{}, len(paths))
	unique := paths[:0]
	for _, p := range paths {
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		unique = append(unique, p)
	}
	return unique
}

// MatchWorktreePaths resolves each diff path against the ordered file-access
// list. For every diff path the first access entry that ends with it and
// lives under a worktree wins; later occurrences are not considered.
func MatchWorktreePaths(diffPaths, fileAccessOrder []string) []string {
	var matches []string
	for _, diffPath := range diffPaths {
		for _, accessPath := range fileAccessOrder {
			if strings.Contains(accessPath, WorktreeMarker) && strings.HasSuffix(accessPath, diffPath) {
				matches = append(matches, accessPath)
				break
			}
		}
	}
	return matches
}
