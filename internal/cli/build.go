package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/lucasnoah/dockhand/internal/agent"
	"github.com/lucasnoah/dockhand/internal/analyzer"
	"github.com/lucasnoah/dockhand/internal/builder"
	"github.com/lucasnoah/dockhand/internal/config"
	"github.com/lucasnoah/dockhand/internal/history"
	"github.com/spf13/cobra"
)

var buildCmd = &cobra.Command{
	Use:   "build [path]",
	Short: "Generate a Dockerfile if needed and build a container image",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tag, _ := cmd.Flags().GetString("tag")
		quiet, _ := cmd.Flags().GetBool("quiet")
		regenerate, _ := cmd.Flags().GetBool("regenerate")

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

		b := builder.New(&builder.ExecRunner{})
		b.Timeout = parseDuration(cfg.Build.Timeout, 15*time.Minute)
		b.Platform = cfg.Build.Platform
		if cfg.Build.Platform == "none" {
			b.Platform = ""
		}
		if !quiet {
			b.Output = cmd.OutOrStdout()
		}

		journal := openJournal(cmd.Context(), cfg, quiet)
		defer journal.Close()

		opts := builder.RunOpts{
			Tag:             tag,
			ForceRegenerate: regenerate,
			MaxAttempts:     cfg.Build.MaxAttempts,
			Notify: func(event string, attempt int, detail string) {
				_ = journal.Record(cmd.Context(), pc.Root, event, attempt, detail)
			},
		}
		if !quiet {
			opts.Logf = func(format string, args ...interface{}) {
				fmt.Fprintf(cmd.OutOrStdout(), format+"\n", args...)
			}
		}

		gen := agent.New(newModelClient(cfg))
		res, err := b.Run(cmd.Context(), pc, gen, opts)
		if err != nil {
			return err
		}

		printBuildOutcome(cmd.OutOrStdout(), res, quiet)
		return nil
	},
}

// printBuildOutcome writes the success output. Quiet mode emits exactly
// one identifier and nothing else, for piping: the image ID, or the tag
// when the engine did not report an ID.
func printBuildOutcome(w io.Writer, res *builder.BuildResult, quiet bool) {
	if quiet {
		id := res.ImageID
		if id == "" {
			id = res.Tag
		}
		fmt.Fprintln(w, id)
		return
	}
	fmt.Fprintln(w, "\nBuild successful!")
	if res.ImageID != "" {
		fmt.Fprintf(w, "Image ID: %s\n", res.ImageID)
	}
	fmt.Fprintf(w, "Tagged as: %s\n", res.Tag)
	fmt.Fprintf(w, "Duration: %s\n", res.Duration.Round(time.Millisecond))
}

// newModelClient builds the completion client from config.
func newModelClient(cfg *config.Config) *agent.HTTPClient {
	return agent.NewHTTPClient(
		cfg.Model.Endpoint,
		cfg.Model.Name,
		cfg.APIKey(),
		cfg.Model.Temperature,
		parseDuration(cfg.Model.Timeout, 2*time.Minute),
	)
}

// openJournal connects the optional event journal. Failures degrade to
// no journaling rather than aborting the build.
func openJournal(ctx context.Context, cfg *config.Config, quiet bool) *history.Journal {
	dsn := cfg.HistoryDSN()
	if dsn == "" {
		return nil
	}
	journal, err := history.Open(ctx, dsn)
	if err != nil {
		if !quiet {
			fmt.Fprintf(os.Stderr, "warning: build history disabled: %v\n", err)
		}
		return nil
	}
	return journal
}

func init() {
	buildCmd.Flags().StringP("tag", "t", "", "Tag for the built image (e.g. myapp:latest)")
	buildCmd.Flags().BoolP("quiet", "q", false, "Output only the image ID (for piping)")
	buildCmd.Flags().Bool("regenerate", false, "Regenerate the Dockerfile even if cached")
	_ = buildCmd.MarkFlagRequired("tag")
}
