package command

// root.go defines the root command for the coursehub CLI and its global flags.

import (
	"errors"
	"fmt"
	"os"

	"coursehub/cmd/cli/authentication"
	"coursehub/cmd/cli/command/client"

	"github.com/spf13/cobra"
)

var (
	apiURL string // Global flag for API server URL
	token  string // bearer token issued by the identity provider
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "coursehub",
	Short: "coursehub - course chat command line interface",
	Long: `coursehub talks to the coursehub API server. Use it to:
- read the chat history of a course room
- join a course room and chat in real time
- send admin announcements and directed messages
- manage roles and delete messages

Use "coursehub [command] --help" to see all available commands.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err) // Print error to standard error
		os.Exit(1)
	}
}

func init() {
	// Global persistent flags = available to all subcommands
	rootCmd.PersistentFlags().StringVar(&apiURL, "api", envOr("COURSEHUB_API", "http://localhost:8080"), "API server URL")
	rootCmd.PersistentFlags().StringVarP(&token, "token", "t", os.Getenv("COURSEHUB_TOKEN"), "bearer token (defaults to the stored login)")
}

// resolveToken returns the --token flag, COURSEHUB_TOKEN or the stored login
func resolveToken() (string, error) {
	if token != "" {
		return token, nil
	}
	creds, err := authentication.GetTokens()
	if err != nil {
		if errors.Is(err, authentication.ErrNotLoggedIn) {
			return "", fmt.Errorf("not logged in, run 'coursehub auth login --token <jwt>' or pass --token")
		}
		return "", fmt.Errorf("failed to read stored token: %w", err)
	}
	return creds.AccessToken, nil
}

func newClient() (*client.HTTPClient, error) {
	t, err := resolveToken()
	if err != nil {
		return nil, err
	}
	return client.NewHTTPClient(apiURL, t), nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
