package analyzer

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"
)

// builtinIgnore covers volatile and generated paths: build output,
// dependency install caches, version-control metadata. Changes under
// these never perturb the fingerprint.
var builtinIgnore = []string{
	".git",
	"__pycache__",
	"node_modules",
	".venv",
	"venv",
	".env",
	"*.pyc",
	"*.pyo",
	".DS_Store",
	"*.log",
	"dist",
	"build",
	"target",
	".idea",
	".vscode",
}

type ignoreMatcher struct {
	globs []glob.Glob
}

// loadIgnoreMatcher merges the built-in volatile set, caller extras, and
// any .gitignore / .dockerignore patterns found at the project root.
// Patterns that fail to compile are dropped rather than failing analysis.
func loadIgnoreMatcher(root string, extra []string) *ignoreMatcher {
	patterns := append([]string{}, builtinIgnore...)
	patterns = append(patterns, extra...)

	for _, name := range []string{".gitignore", ".dockerignore"} {
		data, err := os.ReadFile(filepath.Join(root, name))
		if err != nil {
			continue
		}
		for _, line := range strings.Split(string(data), "\n") {
			line = strings.TrimSpace(line)
			if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "!") {
				continue
			}
			patterns = append(patterns, strings.TrimSuffix(strings.TrimPrefix(line, "/"), "/"))
		}
	}

	m := &ignoreMatcher{}
	for _, p := range patterns {
		g, err := glob.Compile(p, '/')
		if err != nil {
			continue
		}
		m.globs = append(m.globs, g)
	}
	return m
}

// Match reports whether a slash-separated relative path is ignored.
// Patterns match against the full relative path, the basename, and each
// leading path segment, so "node_modules" prunes the whole subtree.
func (m *ignoreMatcher) Match(rel string) bool {
	base := filepath.Base(rel)
	for _, g := range m.globs {
		if g.Match(rel) || g.Match(base) {
			return true
		}
	}
	// Check path segments so a directory pattern also hides files below
	// a directory that was reached before pruning.
	segs := strings.Split(rel, "/")
	for i := 1; i < len(segs); i++ {
		prefix := strings.Join(segs[:i], "/")
		for _, g := range m.globs {
			if g.Match(prefix) || g.Match(segs[i-1]) {
				return true
			}
		}
	}
	return false
}
