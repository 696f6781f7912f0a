package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/storydeck/storydeck/internal/tracker"
	"github.com/storydeck/storydeck/internal/types"
)

var (
	createProject  int64
	createTeam     int64
	createParent   int64
	createType     string
	createPriority string
	createStatus   string
	createAssignee int64
	createDesc     string
	createReviewer string
	createRelease  string
	createSprint   string
)

var createCmd = &cobra.Command{
	Use:   "create <title>",
	Short: "Create a new issue",
	Long: `Create an issue in a project. The story code is allocated automatically
from the project's prefix.

Hierarchy rules: Story under Epic, Task under Story, Subtask under Task
(parent required), Bug under Story or Task. Epics stand alone.

Examples:
  sd create "Build checkout flow" --project 1 --type Story
  sd create "Fix rounding" --project 1 --team 2 --type Bug --parent 7
  sd create "Wire webhooks" --project 1 --type Task --assignee 4 --priority High`,
	Args: cobra.MinimumNArgs(1),
	Run:  runCreate,
}

func init() {
	createCmd.Flags().Int64Var(&createProject, "project", 0, "Project id (required)")
	createCmd.Flags().Int64Var(&createTeam, "team", 0, "Team id")
	createCmd.Flags().Int64Var(&createParent, "parent", 0, "Parent issue id")
	createCmd.Flags().StringVarP(&createType, "type", "t", "Task", "Issue type (Epic|Story|Task|Subtask|Bug)")
	createCmd.Flags().StringVarP(&createPriority, "priority", "p", "", "Priority (High|Medium|Low)")
	createCmd.Flags().StringVarP(&createStatus, "status", "s", "", "Initial status (default TODO)")
	createCmd.Flags().Int64Var(&createAssignee, "assignee", 0, "Assignee user id")
	createCmd.Flags().StringVarP(&createDesc, "description", "d", "", "Description")
	createCmd.Flags().StringVar(&createReviewer, "reviewer", "", "Reviewer name")
	createCmd.Flags().StringVar(&createRelease, "release", "", "Release number")
	createCmd.Flags().StringVar(&createSprint, "sprint", "", "Sprint number")
	_ = createCmd.MarkFlagRequired("project")

	rootCmd.AddCommand(createCmd)
}

func runCreate(_ *cobra.Command, args []string) {
	actor := requireActor()

	req := tracker.CreateIssueRequest{
		ProjectID:     createProject,
		Title:         strings.Join(args, " "),
		Description:   createDesc,
		IssueType:     types.IssueType(createType),
		Status:        types.Status(createStatus),
		Priority:      types.Priority(createPriority),
		Reviewer:      createReviewer,
		ReleaseNumber: createRelease,
		SprintNumber:  createSprint,
	}
	if createTeam != 0 {
		req.TeamID = &createTeam
	}
	if createParent != 0 {
		req.ParentID = &createParent
	}
	if createAssignee != 0 {
		req.AssigneeID = &createAssignee
	}

	issue, err := svc.CreateIssue(rootCtx, actor, req)
	if err != nil {
		fatal(err)
	}

	if jsonOutput {
		outputJSON(issue)
		return
	}
	fmt.Printf("Created %s (#%d): %s\n", issue.StoryCode, issue.ID, issue.Title)
	if issue.AssigneeID != nil {
		fmt.Printf("Assigned to %s\n", issue.Assignee)
	}
}
