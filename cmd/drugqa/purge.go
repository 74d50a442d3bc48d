package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/drugqa/internal/domain"
)

func newPurgeCmd(flags *globalFlags) *cobra.Command {
	var tenant, drugID, fileID string

	cmd := &cobra.Command{
		Use:   "purge",
		Short: "Remove a drug or a file from a tenant index",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if (drugID == "") == (fileID == "") {
				return errors.New("exactly one of --drug-id or --file-id is required")
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

			t := domain.TenantID(tenant)
			var deleted bool
			if drugID != "" {
				deleted, err = a.ingest.DeleteDrug(cmd.Context(), t, drugID)
			} else {
				deleted, err = a.ingest.DeleteFile(cmd.Context(), t, fileID)
			}
			if err != nil {
				return err
			}
			if !deleted {
				fmt.Println("nothing matched")
				return nil
			}
			fmt.Println("deleted")
			return nil
		},
	}

	cmd.Flags().StringVarP(&tenant, "tenant", "t", string(domain.PublicTenant), "tenant index")
	cmd.Flags().StringVar(&drugID, "drug-id", "", "remove every chunk of this drug")
	cmd.Flags().StringVar(&fileID, "file-id", "", "remove every chunk of this file")
	return cmd
}
