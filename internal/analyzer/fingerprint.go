package analyzer

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"os"
	"path/filepath"
	"sort"

	"github.com/lucasnoah/dockhand/internal/artifact"
)

// entrypointCandidates is the bounded set of conventional entrypoint
// files that join the fingerprint's relevant set when present.
var entrypointCandidates = []string{
	"main.go",
	"main.py",
	"app.py",
	"manage.py",
	"main.rs",
	"src/main.rs",
	"index.js",
	"index.ts",
	"server.js",
	"app.js",
	"src/index.js",
	"src/index.ts",
	"src/main.ts",
	"src/server.js",
	"app.rb",
	"config.ru",
	"index.php",
}

// relevantFiles returns the sorted relative paths whose content defines
// the fingerprint: all manifests, conventional entrypoint candidates,
// and a pre-existing user-authored Dockerfile. A Dockerfile this tool
// generated is excluded, otherwise writing the artifact would invalidate
// the cache entry that references it.
func relevantFiles(root string, present map[string]bool) []string {
	var rel []string
	for _, name := range configFiles {
		if present[name] {
			rel = append(rel, name)
		}
	}
	for _, name := range entrypointCandidates {
		if present[name] {
			rel = append(rel, name)
		}
	}
	if hasUserDockerfile(root, present) {
		rel = append(rel, artifact.DockerfileName)
	}
	sort.Strings(rel)
	return rel
}

// computeFingerprint hashes the ordered sequence of (relative path,
// content hash) pairs. Every field is length-prefixed so adjacent fields
// can never be confused, and ordering by path makes the result
// independent of traversal order.
func computeFingerprint(root string, files []string) (string, error) {
	h := sha256.New()

	writeField := func(data []byte) {
		var n [8]byte
		binary.BigEndian.PutUint64(n[:], uint64(len(data)))
		h.Write(n[:])
		h.Write(data)
	}

	var count [8]byte
	binary.BigEndian.PutUint64(count[:], uint64(len(files)))
	h.Write(count[:])

	for _, rel := range files {
		data, err := os.ReadFile(filepath.Join(root, rel))
		if err != nil {
			return "", err
		}
		sum := sha256.Sum256(data)
		writeField([]byte(rel))
		writeField(sum[:])
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}
