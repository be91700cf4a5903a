package agent

import (
	"fmt"
	"strings"
)

// sanitize strips markdown code fences and surrounding whitespace from a
// raw model response. Models wrap output in fences despite instructions
// not to, so this is handled rather than rejected.
func sanitize(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	lines := strings.Split(s, "\n")
	// Drop the opening fence line (```dockerfile, ```Dockerfile, ```).
	lines = lines[1:]
	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "```" {
		lines = lines[:len(lines)-1]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// validate checks that untrusted model output is a plausible Dockerfile:
// non-empty, and its first instruction is FROM. ARG lines may precede
// FROM, matching Dockerfile grammar. Comments and blank lines are
// skipped. Returns the sanitized text or a rejection reason.
func validate(raw string) (string, error) {
	text := sanitize(raw)
	if text == "" {
		return "", fmt.Errorf("empty response")
	}

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		switch strings.ToUpper(fields[0]) {
		case "ARG":
			continue
		case "FROM":
			if len(fields) < 2 {
				return "", fmt.Errorf("FROM instruction has no image reference")
			}
			return text, nil
		default:
			return "", fmt.Errorf("first instruction is %q, want FROM", fields[0])
		}
	}
	return "", fmt.Errorf("no FROM instruction found")
}
