package cli

import (
	"fmt"

	"github.com/lucasnoah/dockhand/internal/agent"
	"github.com/lucasnoah/dockhand/internal/analyzer"
	"github.com/lucasnoah/dockhand/internal/artifact"
	"github.com/lucasnoah/dockhand/internal/config"
	"github.com/spf13/cobra"
)

var generateCmd = &cobra.Command{
	Use:   "generate [path]",
	Short: "Generate a Dockerfile for the project",
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

		gen := agent.New(newModelClient(cfg))
		if _, err := gen.Generate(cmd.Context(), pc, nil, ""); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Dockerfile generated: %s\n", artifact.DockerfilePath(pc.Root))
		return nil
	},
}
