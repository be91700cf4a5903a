package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/lucasnoah/dockhand/internal/analyzer"
	"github.com/lucasnoah/dockhand/internal/config"
	"github.com/spf13/cobra"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [path]",
	Short: "Analyze a project directory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadDefault()
		if err != nil {
			return err
		}

		a := analyzer.New()
		a.ExtraIgnore = cfg.Analyzer.Ignore

		pc, err := a.Analyze(args[0])
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Project: %s\n", pc.Root)
		fmt.Fprintf(out, "Language: %s (decided by %s)\n", pc.Language, pc.DecidedBy)
		if pc.Framework != "" {
			fmt.Fprintf(out, "Framework: %s\n", pc.Framework)
		}
		fmt.Fprintf(out, "Total files: %d\n", pc.TotalFiles)
		fmt.Fprintf(out, "Fingerprint: %s\n", pc.Fingerprint)
		if pc.HasDockerfile {
			fmt.Fprintln(out, "Existing Dockerfile: yes (user-authored)")
		} else {
			fmt.Fprintln(out, "Existing Dockerfile: no")
		}
		if len(pc.Ports) > 0 {
			ports := make([]string, len(pc.Ports))
			for i, p := range pc.Ports {
				ports[i] = fmt.Sprintf("%d", p)
			}
			fmt.Fprintf(out, "Declared ports: %s\n", strings.Join(ports, ", "))
		}

		fmt.Fprintln(out, "\nFile extensions:")
		for _, ec := range topExtensions(pc.Extensions, 10) {
			fmt.Fprintf(out, "  %s: %d\n", ec.ext, ec.count)
		}

		fmt.Fprintln(out, "\nManifest files found:")
		if len(pc.Manifests) == 0 {
			fmt.Fprintln(out, "  (none)")
		}
		for _, m := range pc.Manifests {
			fmt.Fprintf(out, "  %s\n", m)
		}
		return nil
	},
}

type extCount struct {
	ext   string
	count int
}

// topExtensions returns the n most frequent extensions, count-descending
// with a name tie-break, so output is stable across runs.
func topExtensions(exts map[string]int, n int) []extCount {
	out := make([]extCount, 0, len(exts))
	for ext, count := range exts {
		out = append(out, extCount{ext, count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].count != out[j].count {
			return out[i].count > out[j].count
		}
		return out[i].ext < out[j].ext
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}
