package main

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/spf13/cobra"

	"ruuvari-collector/internal/config"
	"ruuvari-collector/internal/event/infrastructure/postgres"
)

func newHistoryCmd(load func() (config.Config, error)) *cobra.Command {
	var (
		beacon string
		since  time.Duration
	)
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Print stored events of one beacon as JSON lines",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			if !cfg.Forward.Postgres.Enabled() {
				return errors.New("history: postgres dsn not configured")
			}
			if since <= 0 {
				return errors.New("history: --since must be positive")
			}

			ctx := cmd.Context()
			db, err := postgres.Open(ctx, cfg.Forward.Postgres.DSN)
			if err != nil {
				return err
			}
			defer db.Close()

			repo, err := postgres.NewEventRepository(db, postgres.WithTable(cfg.Forward.Postgres.Table))
			if err != nil {
				return err
			}
			end := time.Now().UTC()
			events, err := postgres.NewEventQuery(repo).Range(ctx, beacon, end.Add(-since), end)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			for _, evt := range events {
				if err := enc.Encode(evt); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&beacon, "beacon", "", "beacon address, e.g. D7:58:D2:87:08:F8")
	cmd.Flags().DurationVar(&since, "since", 24*time.Hour, "how far back to look")
	_ = cmd.MarkFlagRequired("beacon")
	return cmd
}
