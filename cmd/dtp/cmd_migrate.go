package main

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func newMigrateCommand(debug *bool) *cobra.Command {
	var rollback bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Long: `Apply pending database migrations and exit.

With --rollback the most recent migration is reverted instead.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := openStore(loadConfig(*debug))
			if err != nil {
				return err
			}
			defer store.Close()

			if rollback {
				if err := store.RollbackLast(); err != nil {
					return fmt.Errorf("rollback: %w", err)
				}
				log.Info().Msg("Rolled back last migration")
				return nil
			}
			log.Info().Msg("Migrations applied")
			return nil
		},
	}
	cmd.Flags().BoolVar(&rollback, "rollback", false, "Revert the most recent migration")
	return cmd
}
