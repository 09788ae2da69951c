package main

import (
	"github.com/fjod/go_cart/storefront-payments/internal/config"
	"github.com/spf13/cobra"
)

func newMigrateCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply webhook journal migrations and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			if cfg.JournalDriver == config.JournalNone {
				log.Info("journal disabled, nothing to migrate")
				return nil
			}
			j, err := openJournal(cfg)
			if err != nil {
				return err
			}
			defer j.Close()
			log.Info("journal migrations completed", "driver", cfg.JournalDriver)
			return nil
		},
	}
}
