package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kylemastercoder14/HomeownersAssociation/internal/platform/db"
	"github.com/kylemastercoder14/HomeownersAssociation/internal/platform/migrations"
)

func newMigrateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			pool, err := db.New(cmd.Context(), cfg.DBOptions())
			if err != nil {
				return err
			}
			defer pool.Close()

			applied, err := migrations.Apply(cmd.Context(), pool)
			for _, v := range applied {
				fmt.Fprintf(cmd.OutOrStdout(), "applied %s\n", v)
			}
			if err != nil {
				return err
			}
			if len(applied) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "schema is up to date")
			}
			return nil
		},
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List embedded migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			all, err := migrations.Load()
			if err != nil {
				return err
			}
			for _, m := range all {
				fmt.Fprintln(cmd.OutOrStdout(), m.Version)
			}
			return nil
		},
	})
	return cmd
}
