package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yeisme/imagevault/pkg/configs"
	"github.com/yeisme/imagevault/pkg/internal/storage/db"
)

var (
	dbCmd = &cobra.Command{
		Use:   "db",
		Short: "Database related commands",
	}

	dbMigrateCmd = &cobra.Command{
		Use:   "migrate",
		Short: "connect with the current config and migrate all tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := configs.GetConfig().DB
			cfg.AutoMigrate = false

			client, err := db.New(cmd.Context(), &cfg)
			if err != nil {
				return err
			}
			defer client.Close()

			if err := db.Migrate(cmd.Context(), client.DB); err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), "migrated", cfg.GetDBType())

			return nil
		},
	}

	dbListCmd = &cobra.Command{
		Use:   "ls",
		Short: "list all registered database types",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "Registered database types:")
			for _, dbType := range db.GetRegisteredDBTypes() {
				fmt.Fprintln(cmd.OutOrStdout(), " - "+dbType)
			}
		},
	}
)

// registerDBCommands 注册数据库相关命令.
func registerDBCommands() {
	rootCmd.AddCommand(dbCmd)

	dbCmd.AddCommand(dbListCmd, dbMigrateCmd)
}
