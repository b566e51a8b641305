package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tbourn/go-dealer-assistant/internal/app"
	"github.com/tbourn/go-dealer-assistant/internal/seed"
)

var seedValue uint64

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Populate an empty database with demo dealers, SKUs, claims and sales",
	RunE: func(cmd *cobra.Command, _ []string) error {
		c := cfg
		c.Seed.OnStart = false
		a, err := app.Open(cmd.Context(), c)
		if err != nil {
			return err
		}
		defer func() { _ = a.Close() }()

		s := cfg.Seed.Seed
		if cmd.Flags().Changed("seed") {
			s = seedValue
		}
		res, err := a.Seed(cmd.Context(), seed.Options{Seed: s})
		if err != nil {
			return err
		}
		if res.Skipped {
			fmt.Fprintln(cmd.OutOrStdout(), "data already present, nothing to do")
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "seeded %d dealers, %d SKUs, %d claims, %d sales\n",
			res.Dealers, res.SKUs, res.Claims, res.Sales)
		return nil
	},
}

func init() {
	seedCmd.Flags().Uint64Var(&seedValue, "seed", 42, "random seed (overrides SEED_VALUE)")
}
