package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/storydeck/storydeck/internal/types"
)

var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Manage projects",
}

var (
	projectAddPrefix string
	projectAddOwner  int64
)

var projectAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Add a project",
	Long: `Add a project. The prefix seeds story codes (e.g. prefix PR yields
PR-0001, PR-0002, ...); without one, the first two letters of the name are
used.`,
	Args: cobra.MinimumNArgs(1),
	Run: func(_ *cobra.Command, args []string) {
		p := &types.Project{
			Name:    args[0],
			Prefix:  projectAddPrefix,
			OwnerID: projectAddOwner,
			Active:  true,
		}
		if err := store.CreateProject(rootCtx, p); err != nil {
			fatal(err)
		}
		if jsonOutput {
			outputJSON(p)
			return
		}
		fmt.Printf("Added project %s (#%d)\n", p.Name, p.ID)
	},
}

var projectArchiveCmd = &cobra.Command{
	Use:   "archive <id>",
	Short: "Deactivate a project",
	Long: `Deactivate a project. Issues in an inactive project are frozen: no one,
including the master admin, can create, edit or delete them until the
project is restored.`,
	Args: cobra.ExactArgs(1),
	Run: func(_ *cobra.Command, args []string) {
		setProjectActive(parseID(args[0]), false)
	},
}

var projectRestoreCmd = &cobra.Command{
	Use:   "restore <id>",
	Short: "Reactivate a project",
	Args:  cobra.ExactArgs(1),
	Run: func(_ *cobra.Command, args []string) {
		setProjectActive(parseID(args[0]), true)
	},
}

func setProjectActive(id int64, active bool) {
	if err := store.SetProjectActive(rootCtx, id, active); err != nil {
		fatal(err)
	}
	state := "archived"
	if active {
		state = "restored"
	}
	if jsonOutput {
		outputJSON(map[string]any{"project": id, "active": active})
		return
	}
	fmt.Printf("Project #%d %s\n", id, state)
}

func init() {
	projectAddCmd.Flags().StringVar(&projectAddPrefix, "prefix", "", "Story code prefix (e.g. PR)")
	projectAddCmd.Flags().Int64Var(&projectAddOwner, "owner", 0, "Owner user id (required)")
	_ = projectAddCmd.MarkFlagRequired("owner")

	projectCmd.AddCommand(projectAddCmd)
	projectCmd.AddCommand(projectArchiveCmd)
	projectCmd.AddCommand(projectRestoreCmd)
	rootCmd.AddCommand(projectCmd)
}
