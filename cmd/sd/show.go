package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var showCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show an issue and its children",
	Args:  cobra.ExactArgs(1),
	Run: func(_ *cobra.Command, args []string) {
		actor := requireActor()
		issueID := parseID(args[0])

		issue, err := svc.GetIssue(rootCtx, actor, issueID)
		if err != nil {
			fatal(err)
		}
		children, err := store.GetChildren(rootCtx, issue.ID)
		if err != nil {
			fatal(err)
		}

		if jsonOutput {
			outputJSON(map[string]any{"issue": issue, "children": children})
			return
		}

		fmt.Printf("%s (#%d) %s\n", issue.StoryCode, issue.ID, issue.Title)
		fmt.Printf("  Type:     %s\n", issue.IssueType)
		fmt.Printf("  Status:   %s\n", issue.Status)
		fmt.Printf("  Priority: %s\n", issue.Priority)
		if issue.Assignee != "" {
			fmt.Printf("  Assignee: %s\n", issue.Assignee)
		}
		if issue.Reviewer != "" {
			fmt.Printf("  Reviewer: %s\n", issue.Reviewer)
		}
		if issue.ParentID != nil {
			fmt.Printf("  Parent:   #%d\n", *issue.ParentID)
		}
		if issue.Description != "" {
			fmt.Printf("\n%s\n", issue.Description)
		}
		if len(children) > 0 {
			fmt.Printf("\nChildren:\n")
			for _, c := range children {
				fmt.Printf("  %s (#%d) [%s] %s\n", c.StoryCode, c.ID, c.Status, c.Title)
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(showCmd)
}
