package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/storydeck/storydeck/internal/config"
	"github.com/storydeck/storydeck/internal/storage/sqlite"
)

var (
	initDbName      string
	initMasterEmail string
	initActor       string
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a storydeck workspace in the current directory",
	Long: `Create a .storydeck directory with a config.yaml and an empty database.

Examples:
  sd init
  sd init --actor lead@example.com
  sd init --master-admin-email boss@example.com`,
	Run: runInit,
}

func init() {
	initCmd.Flags().StringVar(&initDbName, "db", "storydeck.db", "Database file name inside the workspace directory")
	initCmd.Flags().StringVar(&initMasterEmail, "master-admin-email", config.DefaultMasterAdminEmail, "Email granted master admin access")
	initCmd.Flags().StringVar(&initActor, "actor", "", "Default acting user email")

	rootCmd.AddCommand(initCmd)
}

func runInit(_ *cobra.Command, _ []string) {
	dir := config.WorkspaceDirName
	if _, err := os.Stat(dir); err == nil {
		fmt.Fprintf(os.Stderr, "Error: %s already exists\n", dir)
		os.Exit(1)
	}
	if err := os.Mkdir(dir, 0o755); err != nil {
		fatal(err)
	}

	cfg := config.LocalConfig{
		Database:         initDbName,
		Actor:            initActor,
		MasterAdminEmail: initMasterEmail,
	}
	data, err := yaml.Marshal(&cfg)
	if err != nil {
		fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), data, 0o600); err != nil {
		fatal(err)
	}

	// Open once so the schema migration runs now rather than on first use.
	s, err := sqlite.New(filepath.Join(dir, initDbName), initMasterEmail)
	if err != nil {
		fatal(err)
	}
	if err := s.Close(); err != nil {
		fatal(err)
	}

	if jsonOutput {
		outputJSON(map[string]string{"workspace": dir, "database": initDbName})
		return
	}
	fmt.Printf("Initialized storydeck workspace in %s/\n", dir)
	fmt.Printf("Master admin: %s\n", initMasterEmail)
}
