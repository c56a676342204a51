package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"
)

func newReconcileCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile",
		Short: "Re-sync every subscribed profile from live processor state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.reconcile(cmd.Context(), cmd.OutOrStdout())
		},
	}
}

func (a *app) reconcile(ctx context.Context, out io.Writer) error {
	d, err := a.buildDeps(ctx)
	if err != nil {
		return err
	}
	defer d.Close()

	svc, _, err := a.buildService(d)
	if err != nil {
		return err
	}

	report, err := svc.Reconcile(ctx)
	if err != nil {
		return err
	}
	a.log.InfoContext(ctx, "reconciliation finished",
		slog.Int("checked", report.Checked),
		slog.Int("updated", report.Updated),
		slog.Int("failed", report.Failed),
	)

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return err
	}
	if report.Failed > 0 {
		return fmt.Errorf("%w: %d failed", ErrReconcileIncomplete, report.Failed)
	}
	return nil
}
