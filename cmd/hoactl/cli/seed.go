package cli

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/kylemastercoder14/HomeownersAssociation/internal/auth"
	"github.com/kylemastercoder14/HomeownersAssociation/internal/dues"
	"github.com/kylemastercoder14/HomeownersAssociation/internal/households"
	"github.com/kylemastercoder14/HomeownersAssociation/internal/platform/db"
	"github.com/kylemastercoder14/HomeownersAssociation/internal/seed"
	"github.com/kylemastercoder14/HomeownersAssociation/internal/shared"
)

func newSeedCommand() *cobra.Command {
	var email, name, password, monthly string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create the admin account and sample households with this month's dues",
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := decimal.NewFromString(monthly)
			if err != nil {
				return fmt.Errorf("invalid --monthly-amount: %w", err)
			}
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			pool, err := db.New(cmd.Context(), cfg.DBOptions())
			if err != nil {
				return err
			}
			defer pool.Close()

			logger := newQuietLogger(cmd)
			audit := shared.NewAuditLogger(pool)
			seeder := seed.Seeder{
				Admins:     auth.NewService(auth.NewRepository(pool)),
				Households: households.NewService(households.NewStore(pool), audit, logger),
				Dues: dues.NewService(dues.ServiceParams{
					Repo:     dues.NewRepository(pool),
					Audit:    audit,
					Logger:   logger,
					Location: cfg.Location(),
				}),
			}
			sum, err := seeder.Run(cmd.Context(), seed.Options{
				AdminEmail:    email,
				AdminName:     name,
				AdminPassword: password,
				MonthlyAmount: amount,
				Out:           cmd.OutOrStdout(),
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "admin=%s households=%d dues=%d skipped=%d\n",
				sum.AdminID, sum.HouseholdsCreated, sum.DuesCreated, sum.DuesSkipped)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "admin@hoa.local", "admin email")
	cmd.Flags().StringVar(&name, "name", "HOA Administrator", "admin display name")
	cmd.Flags().StringVar(&password, "password", "changeme123", "admin password (min 8 characters)")
	cmd.Flags().StringVar(&monthly, "monthly-amount", "500", "monthly dues amount")
	return cmd
}
