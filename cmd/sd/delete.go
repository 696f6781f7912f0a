package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var deleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete an issue",
	Long: `Delete an issue. Child issues are detached, not deleted.

Deletion is stricter than editing: besides the master admin and the project
owner, only the lead of the issue's own team may delete it.`,
	Args: cobra.ExactArgs(1),
	Run: func(_ *cobra.Command, args []string) {
		actor := requireActor()
		issueID := parseID(args[0])

		if err := svc.DeleteIssue(rootCtx, actor, issueID); err != nil {
			fatal(err)
		}
		if jsonOutput {
			outputJSON(map[string]int64{"deleted": issueID})
			return
		}
		fmt.Printf("Deleted issue #%d\n", issueID)
	},
}

func init() {
	rootCmd.AddCommand(deleteCmd)
}
