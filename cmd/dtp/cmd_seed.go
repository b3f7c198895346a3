package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/dtp-id/talenta/internal/catalog"
	"github.com/dtp-id/talenta/internal/config"
	"github.com/dtp-id/talenta/internal/seed"
)

func newSeedCommand(debug *bool) *cobra.Command {
	var (
		candidates int
		randSeed   uint64
	)

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create the admin account and demo candidates",
		Long: `Create the admin account (admin@dtp.id) if it is missing, then add demo
candidates with education, experience and certification records.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := openStore(loadConfig(*debug))
			if err != nil {
				return err
			}
			defer store.Close()

			cat, err := catalog.Load(filepath.Join(config.DataDir(), catalog.FileName))
			if err != nil {
				return fmt.Errorf("load catalog: %w", err)
			}
			if randSeed == 0 {
				randSeed = uint64(time.Now().UnixNano())
			}

			res, err := seed.New(store, cat, randSeed).Run(cmd.Context(), candidates)
			if err != nil {
				return err
			}
			log.Info().Bool("admin_created", res.AdminCreated).Int("candidates", res.Candidates).Msg("Seed complete")
			return nil
		},
	}
	cmd.Flags().IntVar(&candidates, "candidates", seed.DefaultCandidates, "Number of demo candidates to create")
	cmd.Flags().Uint64Var(&randSeed, "rand-seed", 0, "Random seed for reproducible data (0 picks one)")
	return cmd
}
