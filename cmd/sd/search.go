package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/storydeck/storydeck/internal/types"
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search issues by title, description or story code",
	Long: `Search issues. Results are filtered to what you can see: admins see
everything, everyone else sees their assigned issues, their teams' issues
and issues in projects they lead teams for.`,
	Args: cobra.MinimumNArgs(1),
	Run: func(_ *cobra.Command, args []string) {
		actor := requireActor()

		results, err := svc.SearchIssues(rootCtx, actor, strings.Join(args, " "))
		if err != nil {
			fatal(err)
		}

		if jsonOutput {
			outputJSON(results)
			return
		}
		if len(results) == 0 {
			fmt.Println("No matches")
			return
		}
		for _, i := range results {
			fmt.Printf("%s (#%d) [%s] %s\n", i.StoryCode, i.ID, i.Status, i.Title)
		}
	},
}

var (
	parentsProject int64
	parentsType    string
	parentsExclude int64
)

var parentsCmd = &cobra.Command{
	Use:   "parents",
	Short: "List valid parent candidates for an issue type",
	Long: `List the issues in a project that an issue of the given type could be
attached to, e.g. all Stories and Tasks when placing a Bug.

Examples:
  sd parents --project 1 --type Subtask
  sd parents --project 1 --type Bug --exclude 12`,
	Run: func(_ *cobra.Command, _ []string) {
		actor := requireActor()

		var exclude *int64
		if parentsExclude != 0 {
			exclude = &parentsExclude
		}
		candidates, err := svc.AvailableParents(rootCtx, actor, parentsProject, types.IssueType(parentsType), exclude)
		if err != nil {
			fatal(err)
		}

		if jsonOutput {
			outputJSON(candidates)
			return
		}
		if len(candidates) == 0 {
			fmt.Println("No valid parents")
			return
		}
		for _, i := range candidates {
			fmt.Printf("%s (#%d) [%s] %s\n", i.StoryCode, i.ID, i.IssueType, i.Title)
		}
	},
}

func init() {
	parentsCmd.Flags().Int64Var(&parentsProject, "project", 0, "Project id (required)")
	parentsCmd.Flags().StringVarP(&parentsType, "type", "t", "", "Issue type being placed (required)")
	parentsCmd.Flags().Int64Var(&parentsExclude, "exclude", 0, "Issue id to exclude (the issue being re-parented)")
	_ = parentsCmd.MarkFlagRequired("project")
	_ = parentsCmd.MarkFlagRequired("type")

	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(parentsCmd)
}
