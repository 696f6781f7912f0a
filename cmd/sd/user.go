package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/storydeck/storydeck/internal/types"
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage users",
}

var (
	userAddName string
	userAddRole string
)

var userAddCmd = &cobra.Command{
	Use:   "add <email>",
	Short: "Add a user",
	Long: `Add a user. Roles: ADMIN, DEVELOPER, TESTER, OWNER. New users start in
Developer view mode.

The master admin is not a role you assign: the user whose email matches
the configured master-admin-email is recognized automatically.`,
	Args: cobra.ExactArgs(1),
	Run: func(_ *cobra.Command, args []string) {
		email := args[0]
		role := types.Role(strings.ToUpper(userAddRole))
		if userAddRole != "" && !role.IsValid() {
			fatal(fmt.Errorf("invalid role %q (valid: ADMIN, DEVELOPER, TESTER, OWNER)", userAddRole))
		}
		name := userAddName
		if name == "" {
			name = strings.SplitN(email, "@", 2)[0]
		}

		u := &types.User{Username: name, Email: email, Role: role}
		if err := store.CreateUser(rootCtx, u); err != nil {
			fatal(err)
		}
		if jsonOutput {
			outputJSON(u)
			return
		}
		fmt.Printf("Added user %s (#%d) as %s\n", u.Username, u.ID, u.Role)
	},
}

var userModeCmd = &cobra.Command{
	Use:   "mode <ADMIN|DEVELOPER>",
	Short: "Switch the acting user's view mode",
	Long: `Switch between Admin and Developer view modes. View mode is independent
of role and flips which side of the issue tracker you operate on: project
owners create and manage issues in Admin mode; team work happens in
Developer mode.`,
	Args: cobra.ExactArgs(1),
	Run: func(_ *cobra.Command, args []string) {
		actor := requireActor()
		mode := types.ViewMode(strings.ToUpper(args[0]))
		if !mode.IsValid() {
			fatal(fmt.Errorf("invalid view mode %q (valid: ADMIN, DEVELOPER)", args[0]))
		}
		if err := store.SetUserViewMode(rootCtx, actor.ID, mode); err != nil {
			fatal(err)
		}
		if jsonOutput {
			outputJSON(map[string]string{"view_mode": string(mode)})
			return
		}
		fmt.Printf("View mode set to %s\n", mode)
	},
}

func init() {
	userAddCmd.Flags().StringVar(&userAddName, "name", "", "Display name (default: email local part)")
	userAddCmd.Flags().StringVar(&userAddRole, "role", "DEVELOPER", "Role (ADMIN|DEVELOPER|TESTER|OWNER)")

	userCmd.AddCommand(userAddCmd)
	userCmd.AddCommand(userModeCmd)
	rootCmd.AddCommand(userCmd)
}
