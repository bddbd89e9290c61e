package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/user/e8audit/pkg/engine"
	"github.com/user/e8audit/pkg/log"
)

var remediateOpts struct {
	playbooks  string
	strategies []string
	vars       map[string]string
}

var remediateCmd = &cobra.Command{
	Use:   "remediate [paths...]",
	Short: "Print fix plans for every FAIL finding that has a playbook",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := log.WithContext(cmd.Context())

		eng, err := newEngine(cmd)
		if err != nil {
			return err
		}

		dir := remediateOpts.playbooks
		if dir == "" {
			dir = cfg.PlaybooksDir
		}
		remediationEng := engine.NewRemediationEngine()
		if err := remediationEng.LoadPlaybooks(dir); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("load playbooks: %w", err)
			}
			logger.Warn("no playbooks directory", "dir", dir)
		}

		findings, err := evaluatePaths(cmd, eng, remediateOpts.strategies, args)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		planned := 0
		for _, f := range findings {
			if f.Verdict != engine.VerdictFail {
				continue
			}
			if _, ok := remediationEng.Playbooks[f.TestID]; !ok {
				fmt.Fprintf(out, "%s: %s\n\n", f.TestID, f.Recommendation)
				continue
			}

			plan, err := remediationEng.GeneratePlan(f, remediateOpts.vars)
			if err != nil {
				return fmt.Errorf("%s: %w", f.TestID, err)
			}
			fmt.Fprintln(out, plan)
			planned++
		}

		logger.Debug("remediation complete", "findings", len(findings), "plans", planned,
			"playbooks", strings.Join(remediationEng.ListPlaybooks(), "; "))
		return nil
	},
}

func init() {
	remediateCmd.Flags().StringVar(&remediateOpts.playbooks, "playbooks", "", "Directory of YAML remediation playbooks")
	remediateCmd.Flags().StringSliceVarP(&remediateOpts.strategies, "strategy", "s", nil, "Strategy IDs to run (default: all)")
	remediateCmd.Flags().StringToStringVar(&remediateOpts.vars, "var", nil, "Playbook variables (key=value)")
	rootCmd.AddCommand(remediateCmd)
}
