package cli

import (
	"fmt"

	"github.com/booktime/booktime-backend/config"
	"github.com/booktime/booktime-backend/internal/db"
	"github.com/booktime/booktime-backend/pkg/logger"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

// RootOptions holds global flags and the database shared by all commands.
type RootOptions struct {
	Verbose bool

	// DB is opened from the environment on first use unless already set.
	DB *gorm.DB
}

// NewRootCommand creates the root command for the booktimectl CLI.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	var opened bool

	cmd := &cobra.Command{
		Use:          "booktimectl",
		Short:        "BookTime operations",
		Long:         "Maintenance commands for the BookTime shop: migrations, staff accounts, catalog imports and reports.",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level := "info"
			if opts.Verbose {
				level = "debug"
			}
			logger.Initialize(logger.Config{
				Level:  level,
				Format: "console",
				Output: cmd.ErrOrStderr(),
			})

			if opts.DB != nil {
				return nil
			}
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if err := db.Initialize(&cfg.Database); err != nil {
				return fmt.Errorf("connect to database: %w", err)
			}
			opts.DB = db.GetDB()
			opened = true
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if !opened {
				return nil
			}
			return db.Close()
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")

	cmd.AddCommand(NewMigrateCommand(opts))
	cmd.AddCommand(NewCreateSuperuserCommand(opts))
	cmd.AddCommand(NewGrantRoleCommand(opts))
	cmd.AddCommand(NewImportProductsCommand(opts))
	cmd.AddCommand(NewSalesReportCommand(opts))

	return cmd
}
