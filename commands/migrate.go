package commands

import (
	"log"

	"coffee-shop/config"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create any missing database tables",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadConfig(envFile)
		db, err := openMySQL(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer db.Close()
		log.Printf("Database %s is up to date", cfg.DBName)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
