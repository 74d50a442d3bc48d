package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/drugqa/internal/domain"
)

func newStatsCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "stats [tenant]",
		Short: "Describe a tenant index",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tenant := domain.PublicTenant
			if len(args) == 1 {
				tenant = domain.TenantID(args[0])
			}

			cfg, logger, err := flags.load(true)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			a, err := buildApp(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer a.Close()

			stats, err := a.ingest.Stats(cmd.Context(), tenant)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(stats)
		},
	}
}
