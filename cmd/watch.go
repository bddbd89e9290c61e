package cmd

import (
	"errors"
	"os/signal"
	"slices"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/user/e8audit/pkg/evidence"
	"github.com/user/e8audit/pkg/log"
	"github.com/user/e8audit/pkg/report"
)

// ErrWatchStdin is returned when watch is asked to follow standard input.
var ErrWatchStdin = errors.New("watch needs file or directory paths, not stdin")

var watchOpts struct {
	strategies []string
	format     string
}

var watchCmd = &cobra.Command{
	Use:   "watch [paths...]",
	Short: "Re-evaluate evidence files whenever they change",
	Args: func(cmd *cobra.Command, args []string) error {
		if err := cobra.MinimumNArgs(1)(cmd, args); err != nil {
			return err
		}
		if slices.Contains(args, evidence.Stdin) {
			return ErrWatchStdin
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := newEngine(cmd)
		if err != nil {
			return err
		}
		renderer, err := newRenderer(watchOpts.format, "")
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		logger := log.WithContext(ctx)

		render := func(doc evidence.Document) {
			ctx, span := tracer.Start(ctx, "watch.evaluate")
			defer span.End()

			findings, err := evaluateDocument(eng, watchOpts.strategies, doc)
			if err != nil {
				log.WithContext(ctx).Error("evaluate evidence", "source", doc.Label, "err", err)
				return
			}
			log.WithContext(ctx).Debug("evaluated evidence", "source", doc.Label, "findings", len(findings))
			if err := renderer.Render(cmd.OutOrStdout(), report.New(findings)); err != nil {
				logger.Error("render report", "err", err)
			}
		}

		// Initial pass over what is already on disk.
		docs, err := evidence.LoadAll(args, cmd.InOrStdin())
		if err != nil {
			return err
		}
		for _, doc := range docs {
			render(doc)
		}

		logger.Info("watching evidence", "paths", args)
		return evidence.Watch(ctx, args, render)
	},
}

func init() {
	watchCmd.Flags().StringSliceVarP(&watchOpts.strategies, "strategy", "s", nil, "Strategy IDs to run (default: all)")
	watchCmd.Flags().StringVarP(&watchOpts.format, "format", "f", "", "Output format (text, json, yaml)")
	rootCmd.AddCommand(watchCmd)
}
