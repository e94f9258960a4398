package command

import (
	"os"

	c "coursehub/cmd/cli/command/client"

	"github.com/spf13/cobra"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat room related commands",
	Long:  `Join a course room and send and receive messages in real time.`,
}

var chatJoinCmd = &cobra.Command{
	Use:   "join",
	Short: "Join a course chat room",
	Long: `Join a course chat room. Every line you type is sent to the room.
  /admin <text>          send an admin announcement
  /to <email> <text>     send an admin message directed at one student
  /quit                  leave`,
	RunE: func(cmd *cobra.Command, args []string) error {
		roomID, _ := cmd.Flags().GetString("room")

		t, err := resolveToken()
		if err != nil {
			return err
		}
		return c.JoinChatRoom(apiURL, roomID, t, os.Stdin)
	},
}

func init() {
	chatCmd.AddCommand(chatJoinCmd)
	rootCmd.AddCommand(chatCmd)

	chatJoinCmd.Flags().StringP("room", "r", "", "course ID for the chat room (required)")
	chatJoinCmd.MarkFlagRequired("room")
}
