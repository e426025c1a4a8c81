package commands

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

func newAnalyticsCmd(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analytics",
		Short: "inspect visitor analytics",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "stats",
			Short: "show summary statistics",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				stats, err := opts.analytics().Stats(cmd.Context())
				if err != nil {
					return err
				}
				return render(opts.Stdout, opts.Output, stats)
			},
		},
		&cobra.Command{
			Use:   "dashboard",
			Short: "show the live dashboard",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				d, err := opts.analytics().Dashboard(cmd.Context())
				if err != nil {
					return err
				}
				return render(opts.Stdout, opts.Output, d)
			},
		},
		&cobra.Command{
			Use:   "visitors",
			Short: "list visitors currently online",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				visitors, err := opts.analytics().Visitors(cmd.Context())
				if err != nil {
					return err
				}
				return render(opts.Stdout, opts.Output, visitors)
			},
		},
		newExportCmd(opts),
		newClearCmd(opts),
		newVisitCmd(opts),
	)
	return cmd
}

func newExportCmd(opts *Options) *cobra.Command {
	var (
		format string
		file   string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "export recorded events and live visitors",
		Example: `  $ veloractl analytics export
  $ veloractl analytics export --format events -f events.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := opts.analytics().Export(cmd.Context(), format)
			if err != nil {
				return err
			}
			if file == "" {
				return renderRaw(opts.Stdout, opts.Output, raw)
			}
			if err := os.WriteFile(file, raw, 0o644); err != nil {
				return fmt.Errorf("write export: %w", err)
			}
			fmt.Fprintf(opts.Stderr, "exported to %s\n", file)
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", "bundle", "export format: bundle|events")
	cmd.Flags().StringVarP(&file, "file", "f", "", "write the JSON export to a file")
	return cmd
}

func newClearCmd(opts *Options) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "delete all recorded events and live visitors",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return fmt.Errorf("refusing to clear analytics data without --yes")
			}
			if err := opts.analytics().ClearAll(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(opts.Stdout, "analytics data cleared")
			return nil
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm deletion")
	return cmd
}

func newVisitCmd(opts *Options) *cobra.Command {
	var (
		page     string
		interval time.Duration
	)

	cmd := &cobra.Command{
		Use:   "visit",
		Short: "simulate one open browser tab",
		Long: `Open a page session and keep it alive with heartbeats until interrupted.
The session is closed on exit.`,
		Example: `  $ veloractl analytics visit --page https://velora.example/pricing`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVisit(cmd.Context(), opts, page, interval)
		},
	}
	cmd.Flags().StringVar(&page, "page", "/", "page URL the visitor is on")
	cmd.Flags().DurationVar(&interval, "interval", 30*time.Second, "heartbeat interval")
	return cmd
}

func runVisit(ctx context.Context, opts *Options, page string, interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("interval must be positive")
	}

	client := opts.analytics()
	session, err := client.OpenSession(ctx, page)
	if err != nil {
		return fmt.Errorf("open session: %w", err)
	}
	fmt.Fprintf(opts.Stdout, "session %s opened on %s\n", session.SessionID, session.Page)

	defer func() {
		if err := client.CloseSession(context.WithoutCancel(ctx), session.SessionID); err != nil {
			fmt.Fprintf(opts.Stderr, "close session: %v\n", err)
			return
		}
		fmt.Fprintf(opts.Stdout, "session %s closed\n", session.SessionID)
	}()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := client.Heartbeat(ctx, session.SessionID, page); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				// 单次心跳失败不退出，在线记录在宽限期内保持
				fmt.Fprintf(opts.Stderr, "heartbeat: %v\n", err)
			}
		}
	}
}
