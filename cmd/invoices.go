package main

import (
	"encoding/json"
	"errors"

	"github.com/spf13/cobra"
)

func newInvoicesCmd(configPath *string) *cobra.Command {
	var tenantID, email string

	cmd := &cobra.Command{
		Use:   "invoices",
		Short: "Print a buyer's reconciled invoices as JSON",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if tenantID == "" || email == "" {
				return errors.New("--tenant and --email are required")
			}
			cfg, log, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			a, err := newApp(cmd.Context(), cfg, log, false)
			if err != nil {
				return err
			}
			defer a.close()

			records, err := a.reconcile.Invoices(cmd.Context(), tenantID, email)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(records)
		},
	}
	cmd.Flags().StringVar(&tenantID, "tenant", "", "tenant id")
	cmd.Flags().StringVar(&email, "email", "", "buyer email")
	return cmd
}
