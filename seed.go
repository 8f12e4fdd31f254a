package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/stevemurr/cafe-server/collection"
	"github.com/stevemurr/cafe-server/seed"
	"github.com/stevemurr/cafe-server/store"
)

func newSeedCmd(load configLoader) *cobra.Command {
	var (
		name  string
		file  string
		force bool
	)
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load fixture records into an empty collection",
		Long: `Load fixture records into a collection. Without --file the built-in
demo catalog is loaded into productos. A collection that already holds
records is left untouched unless --force is given, in which case the
fixtures are appended with fresh ids.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load(cmd)
			if err != nil {
				return err
			}
			fixtures, err := seed.Catalog()
			if file != "" {
				fixtures, err = seed.Load(file)
			}
			if err != nil {
				return err
			}

			s, err := store.New(cmd.Context(), cfg.Backend, cfg.DataDir, cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer s.Close()

			n, err := seed.Apply(cmd.Context(), collection.New(name, s), fixtures, force)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d records into %s\n", n, name)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "collection", "productos", "collection to seed")
	cmd.Flags().StringVar(&file, "file", "", "YAML or JSON fixture file (default: built-in catalog)")
	cmd.Flags().BoolVar(&force, "force", false, "append even when the collection is not empty")
	return cmd
}
