package cli

import (
	"time"

	"github.com/spf13/cobra"
)

var version = "dev"

func SetVersion(v string) {
	version = v
}

var rootCmd = &cobra.Command{
	Use:   "dockhand",
	Short: "AI-assisted containerization for project directories",
	Long: `dockhand inspects a project directory, generates a Dockerfile for its
detected stack with a generative model, and builds a container image.

Generated Dockerfiles are cached by project fingerprint: repeated builds
of an unchanged project skip the model entirely. Failed builds feed their
error log back into regeneration, up to a bounded attempt cap.`,
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(historyCmd)
}

// parseDuration parses a duration string, falling back to def when the
// string is empty or malformed.
func parseDuration(s string, def time.Duration) time.Duration {
	if s == "" {
		return def
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return def
	}
	return d
}
