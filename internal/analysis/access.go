package analysis

import (
	"sort"
	"strings"

	"github.com/lunarfall/swevals/internal/session"
	"github.com/lunarfall/swevals/internal/transcript"
)

// Tools whose inputs name files directly. Their path arguments are read from
// the call input instead of scraped out of the output text.
var pathInputTools = map[string]struct{}{
	"read": {},
	"edit": {},
	"grep": {},
	"glob": {},
}

// Housekeeping tools that emit worktree paths without touching files. Their
// output would pollute the access order with false positives.
var skippedAccessTools = map[string]struct{}{
	"knowledge-graph_list_projects": {},
	"knowledge-graph_index_project": {},
	"knowledge-graph_repo_map":      {},
}

// ReconstructFileAccess rebuilds the ordered list of file paths a session
// touched, from its completed tool calls. Calls to path-taking tools
// contribute the path-like values of their inputs; every other tool
// contributes worktree paths found in its output text. Paths appear in call
// order and repeat on repeated access.
func ReconstructFileAccess(s *session.SessionData) []string {
	var order []string
	for _, call := range transcript.CompletedToolCalls(s.Records) {
		if _, skip := skippedAccessTools[call.Tool]; skip {
			continue
		}
		if _, ok := pathInputTools[call.Tool]; ok {
			order = append(order, pathsFromInput(call.State.Input)...)
			continue
		}
		order = append(order, worktreePathLine.FindAllString(call.State.Output, -1)...)
	}
	return order
}

// pathsFromInput collects string values under path-like input keys. Keys are
// visited in sorted order so reconstruction is deterministic across runs.
func pathsFromInput(input map[string]any) []string {
	keys := make([]string, 0, len(input))
	for k := range input {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var paths []string
	for _, k := range keys {
		if !isPathKey(k) {
			continue
		}
		switch v := input[k].(type) {
		case string:
			paths = append(paths, v)
		case []any:
			for _, item := range v {
				if s, ok := item.(string); ok {
					paths = append(paths, s)
				}
			}
		}
	}
	return paths
}

func isPathKey(key string) bool {
	k := strings.ToLower(key)
	return strings.Contains(k, "path") || strings.Contains(k, "file")
}

// CorrelateDiff fills in the session's derived access fields: the full access
// order and the worktree paths matching the files its patch modified.
func CorrelateDiff(s *session.SessionData) {
	s.FileAccessOrder = ReconstructFileAccess(s)
	diffPaths := ParseDiffFilePaths(s.Patch.ModelPatch)
	s.PatchPaths = MatchWorktreePaths(diffPaths, s.FileAccessOrder)
}
