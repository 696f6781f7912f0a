package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var updateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Update an issue",
	Long: `Update fields on an issue. Only the flags you pass are changed; every
change is appended to the issue's activity trail.

Marking an issue Done requires all of its children to be Done first.
Reparenting re-runs the hierarchy checks, including cycle detection.

Examples:
  sd update 12 --status "In Progress"
  sd update 12 --priority High --assignee 4
  sd update 12 --parent 7
  sd update 12 --parent 0        # detach from parent`,
	Args: cobra.ExactArgs(1),
	Run:  runUpdate,
}

func init() {
	updateCmd.Flags().String("title", "", "New title")
	updateCmd.Flags().StringP("description", "d", "", "New description")
	updateCmd.Flags().StringP("status", "s", "", "New status")
	updateCmd.Flags().StringP("priority", "p", "", "New priority")
	updateCmd.Flags().Int64("parent", -1, "New parent issue id (0 detaches)")
	updateCmd.Flags().Int64("team", -1, "New team id (0 clears)")
	updateCmd.Flags().Int64("assignee", -1, "New assignee user id (0 unassigns)")
	updateCmd.Flags().String("reviewer", "", "New reviewer")
	updateCmd.Flags().String("release", "", "New release number")
	updateCmd.Flags().String("sprint", "", "New sprint number")

	rootCmd.AddCommand(updateCmd)
}

func runUpdate(cmd *cobra.Command, args []string) {
	actor := requireActor()
	issueID := parseID(args[0])

	updates := map[string]any{}
	for flag, key := range map[string]string{
		"title":       "title",
		"description": "description",
		"status":      "status",
		"priority":    "priority",
		"reviewer":    "reviewer",
		"release":     "release_number",
		"sprint":      "sprint_number",
	} {
		if cmd.Flags().Changed(flag) {
			v, _ := cmd.Flags().GetString(flag)
			updates[key] = v
		}
	}
	for flag, key := range map[string]string{
		"parent":   "parent_id",
		"team":     "team_id",
		"assignee": "assignee_id",
	} {
		if cmd.Flags().Changed(flag) {
			v, _ := cmd.Flags().GetInt64(flag)
			if v == 0 {
				updates[key] = nil
			} else {
				updates[key] = v
			}
		}
	}
	if len(updates) == 0 {
		fmt.Println("Nothing to update")
		return
	}

	issue, err := svc.UpdateIssue(rootCtx, actor, issueID, updates)
	if err != nil {
		fatal(err)
	}

	if jsonOutput {
		outputJSON(issue)
		return
	}
	fmt.Printf("Updated %s (#%d)\n", issue.StoryCode, issue.ID)
}
