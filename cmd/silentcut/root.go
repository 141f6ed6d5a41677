package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/maauso/silentcut/internal/config"
	"github.com/maauso/silentcut/internal/pipeline"
)

// cliContext carries state shared by every subcommand.
type cliContext struct {
	cfg    *config.Config
	logger *slog.Logger

	presetPath string
	workDir    string
	params     detectionFlags
}

type detectionFlags struct {
	thresholdDB  float64
	minSilence   float64
	mergeGap     float64
	startPadding float64
	endPadding   float64
}

func newRootCommand() *cobra.Command {
	ctx := &cliContext{}
	defaults := pipeline.DefaultConfig()

	rootCmd := &cobra.Command{
		Use:           "silentcut",
		Short:         "Remove long silences from videos",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return ctx.load()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&ctx.presetPath, "preset", "", "TOML file with detection parameters")
	flags.StringVar(&ctx.workDir, "work-dir", "", "Directory for temporary files (default: $TEMP_DIR)")
	flags.Float64Var(&ctx.params.thresholdDB, "threshold-db", defaults.ThresholdDB, "Loudness in dBFS at or below which audio is silent")
	flags.Float64Var(&ctx.params.minSilence, "min-silence", defaults.MinSilenceDurationSec, "Shortest silence to remove, in seconds")
	flags.Float64Var(&ctx.params.mergeGap, "merge-gap", defaults.MergeGapSec, "Join kept segments separated by at most this many seconds")
	flags.Float64Var(&ctx.params.startPadding, "start-padding", defaults.StartPaddingSec, "Seconds kept before each segment")
	flags.Float64Var(&ctx.params.endPadding, "end-padding", defaults.EndPaddingSec, "Seconds kept after each segment")

	rootCmd.AddCommand(newProcessCommand(ctx))
	rootCmd.AddCommand(newAnalyzeCommand(ctx))

	return rootCmd
}

// load reads the environment configuration. Logs go to stderr so stdout
// stays clean for results.
func (c *cliContext) load() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	c.cfg = cfg
	c.logger = config.NewLogger(os.Stderr, cfg.LogFormat, cfg.LogLevel)
	return nil
}

// resolveParams layers the environment defaults, the preset file and the
// explicitly set flags, in that order.
func (c *cliContext) resolveParams(changed func(name string) bool) (pipeline.Config, error) {
	params := c.cfg.PipelineDefaults()
	if c.presetPath != "" {
		var err error
		params, err = config.LoadPreset(c.presetPath, params)
		if err != nil {
			return pipeline.Config{}, err
		}
	}

	if changed("threshold-db") {
		params.ThresholdDB = c.params.thresholdDB
	}
	if changed("min-silence") {
		params.MinSilenceDurationSec = c.params.minSilence
	}
	if changed("merge-gap") {
		params.MergeGapSec = c.params.mergeGap
	}
	if changed("start-padding") {
		params.StartPaddingSec = c.params.startPadding
	}
	if changed("end-padding") {
		params.EndPaddingSec = c.params.endPadding
	}

	if err := params.Validate(); err != nil {
		return pipeline.Config{}, err
	}
	return params, nil
}

func (c *cliContext) workDirOrDefault() string {
	if c.workDir != "" {
		return c.workDir
	}
	return c.cfg.TempDir
}
