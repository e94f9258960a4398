package command

import (
	"fmt"

	"coursehub/cmd/cli/authentication"
	"coursehub/cmd/cli/command/client"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// authCmd groups login, logout and whoami
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Authentication commands",
	Long:  `Store the token issued by your identity provider and register yourself with the server.`,
}

// loginCmd saves the caller as a principal, then keeps the token in the keychain
var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Save a bearer token and register with the server",
	RunE: func(cmd *cobra.Command, args []string) error {
		if token == "" {
			return fmt.Errorf("--token is required")
		}
		name, _ := cmd.Flags().GetString("name")
		photo, _ := cmd.Flags().GetString("photo")

		httpClient := client.NewHTTPClient(apiURL, token)
		response, err := httpClient.SaveMe(name, photo)
		if err != nil {
			return fmt.Errorf("login process failed: %w", err)
		}

		if err := authentication.StoreTokens(&authentication.StoredCredentials{
			AccessToken: token,
			Email:       response.Principal.Email,
			APIURL:      apiURL,
		}); err != nil {
			return fmt.Errorf("failed to store token: %w", err)
		}

		if response.Created {
			color.Green("✓ Welcome %s! Your account was created.", response.Principal.Email)
		} else {
			color.Green("✓ Logged in as %s (%s)", response.Principal.Email, response.Principal.Role)
		}
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored token",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := authentication.DeleteTokens(); err != nil {
			return err
		}
		fmt.Println("✓ Successfully logged out.")
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the principal behind the current token",
	RunE: func(cmd *cobra.Command, args []string) error {
		httpClient, err := newClient()
		if err != nil {
			return err
		}
		me, err := httpClient.Me()
		if err != nil {
			return err
		}
		fmt.Printf("%s <%s> role=%s\n", me.Name, me.Email, me.Role)
		return nil
	},
}

func init() {
	authCmd.AddCommand(loginCmd)
	authCmd.AddCommand(logoutCmd)
	authCmd.AddCommand(whoamiCmd)
	rootCmd.AddCommand(authCmd)

	loginCmd.Flags().String("name", "", "display name (defaults to the token's name claim)")
	loginCmd.Flags().String("photo", "", "avatar URL (defaults to the token's picture claim)")
}
