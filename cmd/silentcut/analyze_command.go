package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/maauso/silentcut/internal/bootstrap"
	"github.com/maauso/silentcut/internal/pipeline"
)

func newAnalyzeCommand(ctx *cliContext) *cobra.Command {
	var asJSON bool
	var withFrames bool

	cmd := &cobra.Command{
		Use:   "analyze INPUT",
		Short: "Show which spans of a video would be kept, without writing output",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := ctx.resolveParams(cmd.Flags().Changed)
			if err != nil {
				return err
			}

			analysis, err := bootstrap.NewPipeline(ctx.cfg, ctx.logger, nil).
				Analyze(cmd.Context(), args[0], ctx.workDirOrDefault(), params)
			if err != nil {
				return err
			}

			if !withFrames {
				analysis.Detection.Loudness = nil
			}
			if asJSON || !isTerminal(cmd.OutOrStdout()) {
				return writeJSON(cmd, analysis)
			}
			fmt.Fprint(cmd.OutOrStdout(), renderAnalysis(analysis, params))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON even on a terminal")
	cmd.Flags().BoolVar(&withFrames, "frames", false, "Include per-frame loudness in JSON output")

	return cmd
}

func renderAnalysis(a pipeline.Analysis, params pipeline.Config) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Duration:  %s (%d Hz)\n", formatDuration(a.Duration), a.SampleRate)
	fmt.Fprintf(&b, "Threshold: %.1f dB, min silence %.2fs, merge gap %.2fs, padding %.2fs/%.2fs\n",
		params.ThresholdDB, params.MinSilenceDurationSec, params.MergeGapSec,
		params.StartPaddingSec, params.EndPaddingSec)
	fmt.Fprintf(&b, "Silences:  %d detected, %d long enough to cut\n",
		len(a.Detection.Silences), len(a.Detection.LongSilences))
	fmt.Fprintf(&b, "Kept:      %s, removed %s\n\n", formatDuration(a.KeptSeconds), formatDuration(a.RemovedSeconds))

	if len(a.Padded) == 0 {
		b.WriteString("No segments would be kept.\n")
		return b.String()
	}

	rows := make([][]string, 0, len(a.Padded))
	for i, seg := range a.Padded {
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			formatSeconds(seg.Start),
			formatSeconds(seg.End),
			formatSeconds(seg.Duration()),
		})
	}
	b.WriteString(renderTable(
		[]string{"#", "Start", "End", "Length"},
		rows,
		[]columnAlignment{alignRight, alignRight, alignRight, alignRight},
	))
	b.WriteString("\n")
	if a.Dropped > 0 {
		fmt.Fprintf(&b, "%d segment(s) merged into a neighbour by padding\n", a.Dropped)
	}
	return b.String()
}
