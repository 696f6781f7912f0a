package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/storydeck/storydeck/internal/types"
)

var teamCmd = &cobra.Command{
	Use:   "team",
	Short: "Manage teams",
}

var (
	teamAddProject int64
	teamAddLead    int64
	teamAddMembers []int64
)

var teamAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Add a team to a project",
	Args:  cobra.MinimumNArgs(1),
	Run: func(_ *cobra.Command, args []string) {
		team := &types.Team{
			Name:      args[0],
			ProjectID: teamAddProject,
			MemberIDs: teamAddMembers,
		}
		if teamAddLead != 0 {
			team.LeadID = &teamAddLead
		}
		if err := store.CreateTeam(rootCtx, team); err != nil {
			fatal(err)
		}
		if jsonOutput {
			outputJSON(team)
			return
		}
		fmt.Printf("Added team %s (#%d)\n", team.Name, team.ID)
	},
}

var teamJoinCmd = &cobra.Command{
	Use:   "join <team-id> <user-id>",
	Short: "Add a user to a team",
	Long: `Add a user to a team's roster. Only the master admin, ADMIN-role users,
the team's lead or a project lead may manage rosters.`,
	Args: cobra.ExactArgs(2),
	Run: func(_ *cobra.Command, args []string) {
		actor := requireActor()
		teamID, userID := parseID(args[0]), parseID(args[1])

		if err := svc.AddTeamMember(rootCtx, actor, teamID, userID); err != nil {
			fatal(err)
		}
		if jsonOutput {
			outputJSON(map[string]int64{"team": teamID, "user": userID})
			return
		}
		fmt.Printf("Added user #%d to team #%d\n", userID, teamID)
	},
}

func init() {
	teamAddCmd.Flags().Int64Var(&teamAddProject, "project", 0, "Project id (required)")
	teamAddCmd.Flags().Int64Var(&teamAddLead, "lead", 0, "Team lead user id")
	teamAddCmd.Flags().Int64SliceVar(&teamAddMembers, "members", nil, "Initial member user ids")
	_ = teamAddCmd.MarkFlagRequired("project")

	teamCmd.AddCommand(teamAddCmd)
	teamCmd.AddCommand(teamJoinCmd)
	rootCmd.AddCommand(teamCmd)
}
