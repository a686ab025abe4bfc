package cli

import (
	"fmt"

	"go-drink-stand/database"

	"github.com/spf13/cobra"
)

type SeedOptions struct {
	*RootOptions
	File string
}

func NewSeedCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SeedOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "seed --file <seed.yaml>",
		Short: "Load drinks and approved customers from a YAML file",
		Long: `Load drinks and approved customers from a YAML file.

Records whose name is already in the store, in any casing, are skipped, so
seeding twice is harmless.

Example:
  drinkstand seed --file ./seed.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig(opts.RootOptions)
			if err != nil {
				return err
			}
			seed, err := database.LoadSeedFile(opts.File)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			store, err := database.Open(ctx, cfg.StoreDriver, cfg.StoreDSN(), cfg.MongoDatabase)
			if err != nil {
				return err
			}
			defer store.Close(ctx)

			result, err := database.Seed(ctx, store, seed)
			if err != nil {
				return err
			}
			log.Info("seeded store", "file", opts.File, "drinks", result.DrinksAdded, "users", result.UsersAdded)
			fmt.Fprintf(cmd.OutOrStdout(), "added %d drinks and %d approved customers\n", result.DrinksAdded, result.UsersAdded)
			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.File, "file", "f", "", "path to the seed file (required)")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}
