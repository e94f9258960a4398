package command

import (
	"fmt"

	"coursehub/internal/microservices/http-api/dto"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Admin-only commands",
}

var adminSendCmd = &cobra.Command{
	Use:   "send",
	Short: "Send an announcement, or a directed message with --to",
	RunE: func(cmd *cobra.Command, args []string) error {
		var req dto.AdminSendMessageRequest
		req.Room, _ = cmd.Flags().GetString("room")
		req.Body, _ = cmd.Flags().GetString("body")
		req.TargetEmail, _ = cmd.Flags().GetString("to")

		httpClient, err := newClient()
		if err != nil {
			return err
		}
		msg, err := httpClient.AdminSend(req)
		if err != nil {
			return err
		}
		color.Green("✓ Sent message %s to room %s", msg.ID, msg.RoomID)
		return nil
	},
}

var adminParticipantsCmd = &cobra.Command{
	Use:   "participants",
	Short: "List everyone who posted in a room",
	RunE: func(cmd *cobra.Command, args []string) error {
		room, _ := cmd.Flags().GetString("room")

		httpClient, err := newClient()
		if err != nil {
			return err
		}
		response, err := httpClient.Participants(room)
		if err != nil {
			return err
		}

		fmt.Printf("%-30s %-25s %s\n", "EMAIL", "NAME", "MESSAGES")
		for _, p := range response.Participants {
			fmt.Printf("%-30s %-25s %d\n", p.Email, p.Name, p.MessageCount)
		}
		return nil
	},
}

var adminUsersCmd = &cobra.Command{
	Use:   "users",
	Short: "List all principals",
	RunE: func(cmd *cobra.Command, args []string) error {
		httpClient, err := newClient()
		if err != nil {
			return err
		}
		users, err := httpClient.ListUsers()
		if err != nil {
			return err
		}
		for _, u := range users {
			fmt.Printf("%-30s %-25s %s\n", u.Email, u.Name, u.Role)
		}
		return nil
	},
}

var adminRoleCmd = &cobra.Command{
	Use:   "role <email> <admin|user>",
	Short: "Change a principal's role",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		httpClient, err := newClient()
		if err != nil {
			return err
		}
		p, err := httpClient.SetRole(args[0], args[1])
		if err != nil {
			return err
		}
		color.Green("✓ %s is now %s", p.Email, p.Role)
		return nil
	},
}

func init() {
	adminCmd.AddCommand(adminSendCmd)
	adminCmd.AddCommand(adminParticipantsCmd)
	adminCmd.AddCommand(adminUsersCmd)
	adminCmd.AddCommand(adminRoleCmd)
	rootCmd.AddCommand(adminCmd)

	adminSendCmd.Flags().StringP("room", "r", "", "course ID (required)")
	adminSendCmd.Flags().StringP("body", "b", "", "message text (required)")
	adminSendCmd.Flags().String("to", "", "target email for a directed message")
	adminSendCmd.MarkFlagRequired("room")
	adminSendCmd.MarkFlagRequired("body")

	adminParticipantsCmd.Flags().StringP("room", "r", "", "course ID (required)")
	adminParticipantsCmd.MarkFlagRequired("room")
}
