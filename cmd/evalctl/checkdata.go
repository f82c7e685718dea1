package main

import (
	"github.com/spf13/cobra"

	"github.com/okian/peereval/internal/adapters/datasource"
	"github.com/okian/peereval/pkg/logger"
)

var checkDataCmd = &cobra.Command{
	Use:   "check-data",
	Short: "Load the users, assignments and catalog files and report counts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		dir, err := datasource.Load(cmd.Context(), datasource.Paths{
			Users:       cfg.UsersPath,
			Assignments: cfg.AssignmentsPath,
			Catalog:     cfg.CatalogPath,
		}, datasource.WithLogger(logger.Get().Named("datasource")), datasource.WithBcryptCost(cfg.BcryptCost))
		if err != nil {
			return err
		}

		roster := dir.Roster()
		assigned := 0
		for _, s := range roster {
			assigned += len(dir.Targets(s))
		}
		return printJSON(cmd, map[string]int{
			"roster":          len(roster),
			"assigned_pairs":  assigned,
			"catalog":         len(dir.Catalog()),
			"catalog_skipped": dir.CatalogSkipped(),
		})
	},
}
