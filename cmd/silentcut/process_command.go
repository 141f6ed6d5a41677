package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/maauso/silentcut/internal/bootstrap"
	"github.com/maauso/silentcut/internal/pipeline"
	"github.com/maauso/silentcut/internal/progress"
)

func newProcessCommand(ctx *cliContext) *cobra.Command {
	var output string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "process INPUT",
		Short: "Cut long silences out of a video",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := ctx.resolveParams(cmd.Flags().Changed)
			if err != nil {
				return err
			}

			input := args[0]
			if output == "" {
				output = defaultOutputPath(input)
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			var reporter progress.Reporter = progress.Logger{L: ctx.logger}
			if isTerminal(cmd.ErrOrStderr()) {
				reporter = progressPrinter{w: cmd.ErrOrStderr()}
			}

			res := bootstrap.NewPipeline(ctx.cfg, ctx.logger, nil).Process(runCtx, pipeline.Request{
				InputPath:  input,
				OutputPath: output,
				WorkDir:    ctx.workDirOrDefault(),
				Config:     params,
			}, reporter)

			if asJSON {
				if err := writeJSON(cmd, res); err != nil {
					return err
				}
			} else if res.Success {
				printResult(cmd.OutOrStdout(), res)
			}
			if !res.Success {
				return res.Err
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default: INPUT_silentcut.mp4)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the result as JSON")

	return cmd
}

// defaultOutputPath puts the result next to the input as <stem>_silentcut.mp4.
func defaultOutputPath(input string) string {
	stem := strings.TrimSuffix(input, filepath.Ext(input))
	return stem + "_silentcut.mp4"
}

func printResult(w io.Writer, res pipeline.Result) {
	fmt.Fprintf(w, "Wrote %s\n", res.OutputPath)
	fmt.Fprintf(w, "  original: %s\n", formatDuration(res.OriginalDuration))
	fmt.Fprintf(w, "  output:   %s\n", formatDuration(res.OutputDuration))
	fmt.Fprintf(w, "  removed:  %s (%d segments kept)\n", formatDuration(res.RemovedSeconds), len(res.Segments))
	if res.SkippedSegments > 0 {
		fmt.Fprintf(w, "  skipped:  %d segments failed to extract\n", res.SkippedSegments)
	}
}

// progressPrinter writes one line per update for interactive use.
type progressPrinter struct {
	w io.Writer
}

func (p progressPrinter) Report(fraction float64, message string) {
	fmt.Fprintf(p.w, "[%3.0f%%] %s\n", progress.Clamp(fraction)*100, message)
}
