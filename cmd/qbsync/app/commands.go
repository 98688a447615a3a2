package app

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ledgermesh/qbsync/internal/excel"
	"github.com/ledgermesh/qbsync/internal/gateway"
	"github.com/ledgermesh/qbsync/pkg/errors"
	"github.com/ledgermesh/qbsync/pkg/report"
	qbsync "github.com/ledgermesh/qbsync/pkg/sync"
)

// NewCompareCommand creates the compare command: reconcile and report
// without writing anything to QuickBooks.
func (a *App) NewCompareCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare <workbook.xlsx>",
		Short: "Compare spreadsheet customers against QuickBooks without writing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd.Context(), args[0], true)
		},
	}
	a.addRunFlags(cmd)
	return cmd
}

// NewSyncCommand creates the sync command: reconcile, push
// spreadsheet-only customers into QuickBooks, and report.
func (a *App) NewSyncCommand() *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "sync <workbook.xlsx>",
		Short: "Reconcile and push spreadsheet-only customers into QuickBooks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd.Context(), args[0], dryRun)
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "compare and report only, do not write to QuickBooks")
	a.addRunFlags(cmd)
	return cmd
}

// NewVersionCommand creates the version command.
func (a *App) NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "qbsync %s (commit %s, built %s)\n", a.version, a.commit, a.date)
		},
	}
}

func (a *App) addRunFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&a.config.ReportPath, "report", a.config.ReportPath, "report output path")
	cmd.Flags().StringVar(&a.config.Sheet, "sheet", a.config.Sheet, "worksheet to read customers from")
}

// run executes one reconciliation and always writes a report, success or
// error. Only input problems (missing workbook, bad worksheet, no usable
// rows) and failures to write the report itself escape to the caller and
// exit non-zero; those fail fast before any remote call.
func (a *App) run(ctx context.Context, workbook string, dryRun bool) error {
	format, err := report.ParseFormat(a.config.Format)
	if err != nil {
		return err
	}

	reader := excel.NewReader(workbook,
		excel.WithSheet(a.config.Sheet),
		excel.WithLogger(a.logger),
	)
	remote := gateway.New(
		gateway.NewHTTPTransport(a.config.BridgeURL),
		gateway.WithLogger(a.logger),
	)
	pipeline := qbsync.New(reader, remote,
		qbsync.WithLogger(a.logger),
		qbsync.WithDryRun(dryRun),
	)

	result, runErr := pipeline.Run(ctx)

	var payload *report.Payload
	switch {
	case runErr == nil:
		payload = report.New(result)
	case errors.IsInput(runErr):
		return runErr
	default:
		a.logger.Error().Err(runErr).Msg("reconciliation failed")
		payload = report.NewError(runErr)
	}

	if err := payload.WriteFile(a.config.ReportPath, format); err != nil {
		return err
	}
	a.logger.Info().Str("path", a.config.ReportPath).Str("status", string(payload.Status)).Msg("report written")

	if runErr == nil {
		a.logSummary(result)
	}
	return nil
}

// logSummary mirrors the report's headline numbers to the log so a run
// can be judged without opening the report file.
func (a *App) logSummary(result *qbsync.Result) {
	event := a.logger.Info().
		Int("matched", result.Comparison.Matched).
		Int("conflicts", len(result.Comparison.Conflicts)).
		Int("only_in_excel", len(result.Comparison.OnlyInExcel)).
		Int("only_in_qb", len(result.Comparison.OnlyInQB))
	if result.WriteBack != nil {
		event = event.
			Int("created", result.WriteBack.Created()).
			Int("already_exists", result.WriteBack.AlreadyExists()).
			Int("failed", result.WriteBack.Failed())
	}
	event.Msg("reconciliation summary")
}
