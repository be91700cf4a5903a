// Package analyzer scans a project tree and produces a deterministic
// structured summary plus a stable content fingerprint. The analysis is
// recomputed fresh on every invocation and is never cached itself.
package analyzer

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/lucasnoah/dockhand/internal/artifact"
)

// maxManifestSize caps how much of a manifest file is read for prompt
// context (100KB).
const maxManifestSize = 100_000

// ProjectContext is the analyzer's deterministic summary of a project.
type ProjectContext struct {
	Root      string
	Language  string
	Framework string
	// DecidedBy names the manifest (or "extensions") that decided the
	// language, so a multi-manifest tree is never ambiguous.
	DecidedBy string
	// Manifests lists dependency-manifest files found at the root,
	// in priority order.
	Manifests []string
	// Ports are ports declared in manifests, entrypoints, or a
	// pre-existing Dockerfile, in order of discovery.
	Ports []int
	// HasDockerfile reports a pre-existing user-authored Dockerfile.
	// A Dockerfile this tool generated (per its sidecar) doesn't count.
	HasDockerfile bool
	Fingerprint   string

	FileTree   []string
	TotalFiles int
	Extensions map[string]int
	// ManifestContents holds the (size-capped) text of each manifest,
	// keyed by relative path. Feeds prompt construction.
	ManifestContents map[string]string
}

// AnalysisError is returned when the project path does not exist, is not
// a directory, or cannot be read.
type AnalysisError struct {
	Path   string
	Reason string
	Err    error
}

func (e *AnalysisError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("analyze %s: %s: %v", e.Path, e.Reason, e.Err)
	}
	return fmt.Sprintf("analyze %s: %s", e.Path, e.Reason)
}

func (e *AnalysisError) Unwrap() error { return e.Err }

// Analyzer inspects project directories.
type Analyzer struct {
	// ExtraIgnore adds glob patterns to the built-in volatile set.
	ExtraIgnore []string
}

// New creates an Analyzer.
func New() *Analyzer {
	return &Analyzer{}
}

// Analyze scans the tree rooted at path and returns its context.
func (a *Analyzer) Analyze(path string) (*ProjectContext, error) {
	root, err := filepath.Abs(path)
	if err != nil {
		return nil, &AnalysisError{Path: path, Reason: "resolve path", Err: err}
	}

	info, err := os.Stat(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &AnalysisError{Path: root, Reason: "path does not exist"}
		}
		return nil, &AnalysisError{Path: root, Reason: "stat path", Err: err}
	}
	if !info.IsDir() {
		return nil, &AnalysisError{Path: root, Reason: "not a directory"}
	}

	ignore := loadIgnoreMatcher(root, a.ExtraIgnore)

	tree, exts, err := collectTree(root, ignore)
	if err != nil {
		return nil, &AnalysisError{Path: root, Reason: "walk tree", Err: err}
	}

	pc := &ProjectContext{
		Root:       root,
		FileTree:   tree,
		TotalFiles: len(tree),
		Extensions: exts,
	}

	present := make(map[string]bool, len(tree))
	for _, f := range tree {
		present[f] = true
	}

	pc.ManifestContents = map[string]string{}
	for _, name := range configFiles {
		if !present[name] {
			continue
		}
		pc.Manifests = append(pc.Manifests, name)
		if content, ok := readCapped(filepath.Join(root, name)); ok {
			pc.ManifestContents[name] = content
		}
	}

	pc.HasDockerfile = hasUserDockerfile(root, present)
	pc.Language, pc.Framework, pc.DecidedBy = detect(pc)
	pc.Ports = discoverPorts(root, pc, present)

	fp, err := computeFingerprint(root, relevantFiles(root, present))
	if err != nil {
		return nil, &AnalysisError{Path: root, Reason: "fingerprint", Err: err}
	}
	pc.Fingerprint = fp

	return pc, nil
}

// collectTree walks the project, pruning ignored directories, and returns
// the sorted relative file list plus an extension histogram.
func collectTree(root string, ignore *ignoreMatcher) ([]string, map[string]int, error) {
	var tree []string
	exts := map[string]int{}

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			return nil // unreadable subtree: skip, not fatal
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil || rel == "." {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if ignore.Match(rel) {
				return filepath.SkipDir
			}
			return nil
		}
		if ignore.Match(rel) {
			return nil
		}

		tree = append(tree, rel)
		if ext := strings.ToLower(filepath.Ext(rel)); ext != "" {
			exts[ext]++
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	sort.Strings(tree)
	return tree, exts, nil
}

// hasUserDockerfile reports a pre-existing Dockerfile not written by this
// tool. The sidecar is the authority: if it marks the file as generated,
// the project counts as having no user Dockerfile.
func hasUserDockerfile(root string, present map[string]bool) bool {
	if !present[artifact.DockerfileName] {
		return false
	}
	art, err := artifact.Load(root)
	if err != nil {
		// Unreadable sidecar: assume user-authored, the safe direction.
		return true
	}
	return art.Source == artifact.SourceUser
}

func readCapped(path string) (string, bool) {
	info, err := os.Stat(path)
	if err != nil || info.Size() > maxManifestSize {
		return "", false
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", false
	}
	return string(data), true
}
