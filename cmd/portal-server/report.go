package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/medportal/portal/internal/domain/analytics"
	"github.com/medportal/portal/internal/platform/db"
)

func reportCmd() *cobra.Command {
	var raw analytics.RawQuery
	var preview int

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Compute the admin dashboard once and print it as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			logger := newLogger(os.Stderr, cfg)

			q, err := analytics.ParseQuery(raw, time.Now(), analytics.QueryDefaults{
				Scope:        analytics.Scope(cfg.LeaderboardScope),
				MaxRangeDays: cfg.MaxRangeDays,
			})
			if err != nil {
				return err
			}

			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			svc := analytics.NewService(analytics.NewRepoPG(pool), logger)
			svc.SetQueryTimeout(cfg.QueryTimeout)
			return writeReport(ctx, cmd.OutOrStdout(), svc, q, preview)
		},
	}

	cmd.Flags().StringVar(&raw.Start, "start", "", "First day of the range (YYYY-MM-DD)")
	cmd.Flags().StringVar(&raw.End, "end", "", "Last day of the range (YYYY-MM-DD, default today)")
	cmd.Flags().StringVar(&raw.Granularity, "granularity", "auto", "day, week, month, year or auto")
	cmd.Flags().StringVar(&raw.Date, "date", "", "Only show timeline events on this UTC day (YYYY-MM-DD)")
	cmd.Flags().StringVar(&raw.Scope, "scope", "", "Leaderboard scope: all-time or range")
	cmd.Flags().IntVar(&preview, "preview", 0, "Cut the timeline to this many events (0 keeps all)")
	return cmd
}

func writeReport(ctx context.Context, w io.Writer, svc *analytics.Service, q analytics.Query, preview int) error {
	d, err := svc.Dashboard(ctx, q)
	if err != nil {
		return fmt.Errorf("compute dashboard: %w", err)
	}
	if preview > 0 {
		d.Timeline = analytics.Timeline{Events: d.Timeline}.Preview(preview)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(d)
}
