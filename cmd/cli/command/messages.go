package command

import (
	"fmt"

	"coursehub/cmd/cli/command/client"

	"github.com/spf13/cobra"
)

var messagesCmd = &cobra.Command{
	Use:   "messages",
	Short: "Course room history",
}

var messagesListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show the history of a room visible to you",
	RunE: func(cmd *cobra.Command, args []string) error {
		room, _ := cmd.Flags().GetString("room")

		httpClient, err := newClient()
		if err != nil {
			return err
		}
		response, err := httpClient.ListMessages(room)
		if err != nil {
			return err
		}

		if response.Count == 0 {
			fmt.Println("No messages yet.")
			return nil
		}
		for _, msg := range response.Messages {
			fmt.Printf("%s  %s\n", msg.ID, client.FormatMessage(msg))
		}
		return nil
	},
}

var messagesDeleteCmd = &cobra.Command{
	Use:   "delete <message-id>",
	Short: "Delete one of your messages (admins may delete any)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		httpClient, err := newClient()
		if err != nil {
			return err
		}
		if err := httpClient.DeleteMessage(args[0]); err != nil {
			return err
		}
		fmt.Println("✓ Message deleted.")
		return nil
	},
}

func init() {
	messagesCmd.AddCommand(messagesListCmd)
	messagesCmd.AddCommand(messagesDeleteCmd)
	rootCmd.AddCommand(messagesCmd)

	messagesListCmd.Flags().StringP("room", "r", "", "course ID (required)")
	messagesListCmd.MarkFlagRequired("room")
}
