package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var inboxCmd = &cobra.Command{
	Use:   "inbox",
	Short: "Show your notifications",
	Long: `List notifications for the acting user: assignments, status changes and
priority changes on your issues.`,
	Run: func(_ *cobra.Command, _ []string) {
		actor := requireActor()

		notifications, err := store.ListNotifications(rootCtx, actor.ID)
		if err != nil {
			fatal(err)
		}

		if jsonOutput {
			outputJSON(notifications)
			return
		}
		if len(notifications) == 0 {
			fmt.Println("No notifications")
			return
		}
		for _, n := range notifications {
			marker := " "
			if !n.Read {
				marker = "*"
			}
			fmt.Printf("%s %s  %s: %s\n", marker, n.CreatedAt.Format("2006-01-02 15:04"), n.Title, n.Message)
		}
	},
}

func init() {
	rootCmd.AddCommand(inboxCmd)
}
