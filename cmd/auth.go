package cmd

import (
	"fmt"

	"panson/infrastructure/drive"

	"github.com/spf13/cobra"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Authenticate with Google",
	Long: `Run the Google OAuth flow and store the token. The token covers Drive
uploads and Gmail notifications, so this only needs to happen once (and
again when the token is revoked).

Example:
  panson auth`,
	RunE: runAuth,
}

func init() {
	rootCmd.AddCommand(authCmd)
}

func runAuth(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	if cfg == nil {
		return fmt.Errorf("config file not found. Run 'panson setup' first")
	}

	_, err := drive.NewAuthenticatedClient(cmd.Context(), drive.OAuthConfig{
		CredentialsFile: cfg.Google.CredentialsFile,
		TokenFile:       cfg.Google.TokenFile,
	})
	if err != nil {
		return err
	}

	fmt.Printf("Token stored at %s\n", cfg.Google.TokenFile)
	return nil
}
