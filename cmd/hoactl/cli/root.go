// Package cli implements the hoactl operator commands.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/kylemastercoder14/HomeownersAssociation/internal/app"
)

// NewRootCommand assembles the hoactl command tree.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          "hoactl",
		Short:        "Operate the homeowners' association dues service",
		SilenceUsage: true,
	}
	root.AddCommand(newMigrateCommand(), newJobsCommand(), newSeedCommand())
	return root
}

func loadConfig() (*app.Config, error) {
	return app.LoadConfig()
}
