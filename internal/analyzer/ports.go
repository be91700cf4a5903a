package analyzer

import (
	"os"
	"path/filepath"
	"regexp"
	"strconv"

	"github.com/lucasnoah/dockhand/internal/artifact"
)

// exposeRe matches EXPOSE instructions in an existing Dockerfile.
var exposeRe = regexp.MustCompile(`(?mi)^\s*EXPOSE\s+(\d{1,5})`)

// portAssignRe matches common port declarations in manifests and
// entrypoints: PORT=3000, "port": 8080, port: 5000, .listen(3000).
var portAssignRe = regexp.MustCompile(`(?i)\bport\b["']?\s*[:=]\s*["']?(\d{2,5})|\.listen\(\s*(\d{2,5})`)

// discoverPorts scans the Dockerfile (if user-authored), manifests, and
// entrypoint candidates for declared ports. Entries are returned in
// discovery order, deduplicated.
func discoverPorts(root string, pc *ProjectContext, present map[string]bool) []int {
	var ports []int
	seen := map[int]bool{}
	add := func(p int) {
		if p > 0 && p < 65536 && !seen[p] {
			seen[p] = true
			ports = append(ports, p)
		}
	}

	if pc.HasDockerfile {
		if data, err := os.ReadFile(artifact.DockerfilePath(root)); err == nil {
			for _, m := range exposeRe.FindAllStringSubmatch(string(data), -1) {
				if p, err := strconv.Atoi(m[1]); err == nil {
					add(p)
				}
			}
		}
	}

	scan := func(content string) {
		for _, m := range portAssignRe.FindAllStringSubmatch(content, -1) {
			raw := m[1]
			if raw == "" {
				raw = m[2]
			}
			if p, err := strconv.Atoi(raw); err == nil {
				add(p)
			}
		}
	}

	for _, name := range pc.Manifests {
		if content, ok := pc.ManifestContents[name]; ok {
			scan(content)
		}
	}
	for _, name := range entrypointCandidates {
		if !present[name] {
			continue
		}
		if content, ok := readCapped(filepath.Join(root, name)); ok {
			scan(content)
		}
	}

	return ports
}
