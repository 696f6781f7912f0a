package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var activityCmd = &cobra.Command{
	Use:   "activity <id>",
	Short: "Show an issue's change history",
	Long: `List the activity trail of an issue, newest first. Each entry records
who changed what: "Issue Created" on creation, then one "field: old → new"
line per changed field.`,
	Args: cobra.ExactArgs(1),
	Run: func(_ *cobra.Command, args []string) {
		actor := requireActor()
		issueID := parseID(args[0])

		activities, err := svc.Activities(rootCtx, actor, issueID)
		if err != nil {
			fatal(err)
		}

		if jsonOutput {
			outputJSON(activities)
			return
		}
		if len(activities) == 0 {
			fmt.Println("No activity")
			return
		}
		for _, a := range activities {
			who := "unknown"
			if a.UserID != nil {
				who = fmt.Sprintf("user %d", *a.UserID)
			}
			fmt.Printf("%s  %s  %s\n", a.CreatedAt.Format("2006-01-02 15:04"), a.Action, who)
			for _, line := range strings.Split(a.Changes, "\n") {
				fmt.Printf("    %s\n", line)
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(activityCmd)
}
