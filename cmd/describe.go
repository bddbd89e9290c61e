package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/user/e8audit/pkg/engine"
)

var describeChecks bool

var describeCmd = &cobra.Command{
	Use:   "describe [strategy-id]",
	Short: "List strategies and what they check",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := newEngine(cmd)
		if err != nil {
			return err
		}

		strategies := eng.ListStrategies()
		if len(args) == 1 {
			s, err := eng.GetStrategy(args[0])
			if err != nil {
				return err
			}
			strategies = []engine.Strategy{s}
		}

		out := cmd.OutOrStdout()
		for _, s := range strategies {
			fmt.Fprintf(out, "%s  %s\n    %s\n", s.ID(), s.Name(), s.Describe())

			rb, ok := s.(*engine.Rulebook)
			if !describeChecks || !ok {
				continue
			}
			for _, c := range rb.Checks() {
				fmt.Fprintf(out, "    - %s [%s] %s\n", c.ID, c.Level, c.Label)
			}
		}
		return nil
	},
}

func init() {
	describeCmd.Flags().BoolVar(&describeChecks, "checks", false, "Also list each strategy's checks")
	rootCmd.AddCommand(describeCmd)
}
