package commands

import (
	"log"

	"coffee-shop/config"
	"coffee-shop/services"
	"coffee-shop/validation"

	"github.com/spf13/cobra"
)

var adminInput services.RegisterInput

var createAdminCmd = &cobra.Command{
	Use:   "create-admin",
	Short: "Create an admin account",
	Long: `Create an admin account in the MySQL store.

Examples:
  coffee-shop create-admin --email ops@example.com --name Ops --password s3cret!`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := validation.Struct(adminInput); err != nil {
			return err
		}

		cfg := config.LoadConfig(envFile)
		st, err := openStores(cmd.Context(), cfg, storeMySQL)
		if err != nil {
			return err
		}
		defer st.close()

		auth := services.NewAuthService(st.users, cfg.JWTSecret, cfg.JWTTTL)
		user, err := auth.CreateAdmin(cmd.Context(), adminInput)
		if err != nil {
			return err
		}
		log.Printf("Admin created successfully for email: %s (id %s)", user.Email, user.ID)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(createAdminCmd)

	createAdminCmd.Flags().StringVar(&adminInput.Email, "email", "", "Admin email")
	createAdminCmd.Flags().StringVar(&adminInput.Name, "name", "Admin", "Admin display name")
	createAdminCmd.Flags().StringVar(&adminInput.Password, "password", "", "Admin password (at least 6 characters)")
	_ = createAdminCmd.MarkFlagRequired("email")
	_ = createAdminCmd.MarkFlagRequired("password")
}
