package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/user/e8audit/pkg/engine"
	"github.com/user/e8audit/pkg/report"
)

var diffOpts struct {
	baseline   string
	strategies []string
}

var diffCmd = &cobra.Command{
	Use:   "diff [paths...]",
	Short: "Evaluate evidence and compare the findings with a saved snapshot",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := newEngine(cmd)
		if err != nil {
			return err
		}

		filename := diffOpts.baseline
		if filename == "" {
			filename = cfg.SnapshotPath
		}

		baseline := engine.NewLedger()
		if _, err := baseline.LoadSnapshot(filename); err != nil {
			return fmt.Errorf("load baseline snapshot %q: %w", filename, err)
		}

		findings, err := evaluatePaths(cmd, eng, diffOpts.strategies, args)
		if err != nil {
			return err
		}
		current := engine.NewLedger()
		current.AddFindings(findings)

		return report.RenderDiff(cmd.OutOrStdout(), filename, current.CompareSnapshot(baseline))
	},
}

func init() {
	diffCmd.Flags().StringVarP(&diffOpts.baseline, "baseline", "b", "", "Baseline snapshot (default: snapshot_path from config)")
	diffCmd.Flags().StringSliceVarP(&diffOpts.strategies, "strategy", "s", nil, "Strategy IDs to run (default: all)")
	rootCmd.AddCommand(diffCmd)
}
