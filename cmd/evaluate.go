package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/attribute"

	"github.com/user/e8audit/pkg/engine"
	"github.com/user/e8audit/pkg/evidence"
	"github.com/user/e8audit/pkg/log"
	"github.com/user/e8audit/pkg/report"
)

// ErrFailThreshold is returned when a FAIL finding meets --fail-on.
var ErrFailThreshold = errors.New("failed findings at or above threshold")

var evaluateOpts struct {
	strategies   []string
	format       string
	templatePath string
	saveSnapshot string
	failOn       string
}

var evaluateCmd = &cobra.Command{
	Use:   "evaluate [paths...]",
	Short: "Evaluate evidence files (or - for stdin) against the control checks",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := newEngine(cmd)
		if err != nil {
			return err
		}

		findings, err := evaluatePaths(cmd, eng, evaluateOpts.strategies, args)
		if err != nil {
			return err
		}

		renderer, err := newRenderer(evaluateOpts.format, evaluateOpts.templatePath)
		if err != nil {
			return err
		}
		if err := renderer.Render(cmd.OutOrStdout(), report.New(findings)); err != nil {
			return fmt.Errorf("render report: %w", err)
		}

		if evaluateOpts.saveSnapshot != "" {
			ledger := engine.NewLedger()
			ledger.AddFindings(findings)
			runID, err := ledger.SaveSnapshot(evaluateOpts.saveSnapshot)
			if err != nil {
				return err
			}
			log.WithContext(cmd.Context()).Info("saved snapshot", "path", evaluateOpts.saveSnapshot, "run_id", runID, "findings", len(findings))
		}

		return checkThreshold(findings, evaluateOpts.failOn)
	},
}

// evaluatePaths loads the evidence and runs the selected strategies (all
// of them when ids is empty) over each document.
func evaluatePaths(cmd *cobra.Command, eng *engine.Engine, ids []string, paths []string) ([]engine.Finding, error) {
	ctx, span := tracer.Start(cmd.Context(), "evaluate")
	defer span.End()
	logger := log.WithContext(ctx)

	docs, err := evidence.LoadAll(paths, cmd.InOrStdin())
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	findings := make([]engine.Finding, 0)
	for _, doc := range docs {
		fs, err := evaluateDocument(eng, ids, doc)
		if err != nil {
			span.RecordError(err)
			return nil, err
		}
		logger.Debug("evaluated evidence", "source", doc.Label, "bytes", len(doc.Text), "findings", len(fs))
		findings = append(findings, fs...)
	}
	span.SetAttributes(
		attribute.Int("documents", len(docs)),
		attribute.Int("findings", len(findings)),
	)
	return findings, nil
}

func evaluateDocument(eng *engine.Engine, ids []string, doc evidence.Document) ([]engine.Finding, error) {
	if len(ids) == 0 {
		return eng.EvaluateAll(doc.Text, doc.Label), nil
	}
	return eng.EvaluateWith(ids, doc.Text, doc.Label)
}

func newRenderer(format, templatePath string) (*report.Renderer, error) {
	if format == "" {
		format = cfg.OutputFormat
	}
	f, err := report.ParseFormat(format)
	if err != nil {
		return nil, err
	}
	return report.NewRenderer(f, templatePath)
}

func checkThreshold(findings []engine.Finding, failOn string) error {
	if failOn == "" {
		failOn = cfg.FailOn
	}
	if failOn == "" || failOn == "none" {
		return nil
	}

	p, err := engine.ParsePriority(failOn)
	if err != nil {
		return fmt.Errorf("--fail-on: %w", err)
	}
	if engine.HasFailureAtOrAbove(findings, p) {
		return fmt.Errorf("%w (%s)", ErrFailThreshold, p)
	}
	return nil
}

func init() {
	evaluateCmd.Flags().StringSliceVarP(&evaluateOpts.strategies, "strategy", "s", nil, "Strategy IDs to run (default: all)")
	evaluateCmd.Flags().StringVarP(&evaluateOpts.format, "format", "f", "", "Output format (text, json, yaml, template)")
	evaluateCmd.Flags().StringVar(&evaluateOpts.templatePath, "template", "", "Go template file for --format template")
	evaluateCmd.Flags().StringVar(&evaluateOpts.saveSnapshot, "save-snapshot", "", "Write findings to a snapshot file")
	evaluateCmd.Flags().StringVar(&evaluateOpts.failOn, "fail-on", "", "Exit non-zero on a FAIL at or above this priority (low, medium, high, none)")
	rootCmd.AddCommand(evaluateCmd)
}
