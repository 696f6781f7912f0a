package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/storydeck/storydeck/internal/config"
	"github.com/storydeck/storydeck/internal/notification"
	"github.com/storydeck/storydeck/internal/storage"
	"github.com/storydeck/storydeck/internal/storage/sqlite"
	"github.com/storydeck/storydeck/internal/telemetry"
	"github.com/storydeck/storydeck/internal/tracker"
	"github.com/storydeck/storydeck/internal/types"
)

// Version is set at build time via -ldflags.
var (
	Version = "dev"
	Build   = "unknown"
)

var (
	rootCtx    context.Context
	rootCancel context.CancelFunc

	store      storage.Storage
	dispatcher *notification.Dispatcher
	svc        *tracker.Service

	actorEmail string
	jsonOutput bool
)

var rootCmd = &cobra.Command{
	Use:   "sd",
	Short: "sd - Team issue tracker",
	Long:  `Stories stacked into decks. A lightweight issue tracker with per-project teams, role-based permissions and a strict issue hierarchy.`,
	Run: func(cmd *cobra.Command, _ []string) {
		if v, _ := cmd.Flags().GetBool("version"); v {
			fmt.Printf("sd version %s (%s)\n", Version, Build)
			return
		}
		_ = cmd.Help() // Help() always returns nil for cobra commands
	},
	PersistentPreRun: func(cmd *cobra.Command, _ []string) {
		rootCtx, rootCancel = context.WithCancel(context.Background())

		if err := config.Initialize(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: loading config: %v\n", err)
			os.Exit(1)
		}
		if err := telemetry.Init(rootCtx, "sd", Version); err != nil {
			fmt.Fprintf(os.Stderr, "Error: telemetry init: %v\n", err)
			os.Exit(1)
		}
		if actorEmail == "" {
			actorEmail = config.GetString("actor")
		}

		if isNoDbCommand(cmd) {
			return
		}
		openStore()
	},
	PersistentPostRun: func(_ *cobra.Command, _ []string) {
		if dispatcher != nil {
			dispatcher.Drain()
		}
		if store != nil {
			_ = store.Close()
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		telemetry.Shutdown(shutdownCtx)
		cancel()
		if rootCancel != nil {
			rootCancel()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().StringVar(&actorEmail, "actor", "", "Act as the user with this email (default: config 'actor')")
	rootCmd.Flags().BoolP("version", "v", false, "Show version")
}

// isNoDbCommand reports whether cmd can run without an open database.
func isNoDbCommand(cmd *cobra.Command) bool {
	switch cmd.Name() {
	case "init", "help", "version", "completion", cobra.ShellCompRequestCmd, cobra.ShellCompNoDescRequestCmd:
		return true
	}
	return false
}

// openStore locates the workspace, opens the sqlite store and wires the
// tracker service. Exits with a hint when no workspace exists.
func openStore() {
	dir, err := config.FindWorkspaceDir()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: no %s workspace found\n", config.WorkspaceDirName)
		fmt.Fprintf(os.Stderr, "Hint: run 'sd init' in your project root first\n")
		os.Exit(1)
	}

	dbPath := config.GetString("db")
	if dbPath == "" {
		dbPath = filepath.Join(dir, "storydeck.db")
	}
	masterEmail := config.GetString("master-admin-email")

	s, err := sqlite.New(dbPath, masterEmail)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: opening database: %v\n", err)
		os.Exit(1)
	}
	store = telemetry.WrapStorage(s)
	dispatcher = notification.NewDispatcher(store, config.GetString("notify-webhook"))
	svc = tracker.New(store, dispatcher)
}

// requireActor resolves the acting user from --actor / config. Every
// permission decision keys off this user's role, view mode and teams.
func requireActor() *types.User {
	if actorEmail == "" {
		fmt.Fprintf(os.Stderr, "Error: no actor configured\n")
		fmt.Fprintf(os.Stderr, "Hint: pass --actor <email> or set 'actor' in %s/config.yaml\n", config.WorkspaceDirName)
		os.Exit(1)
	}
	u, err := store.GetUserByEmail(rootCtx, actorEmail)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: unknown actor %q\n", actorEmail)
		os.Exit(1)
	}
	return u
}

// parseID parses a positional numeric id argument.
func parseID(arg string) int64 {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: invalid id %q\n", arg)
		os.Exit(1)
	}
	return id
}

func outputJSON(v any) {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding JSON: %v\n", err)
		os.Exit(1)
	}
}

func fatal(err error) {
	if jsonOutput {
		_ = json.NewEncoder(os.Stderr).Encode(map[string]string{"error": err.Error()})
	} else {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	os.Exit(1)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
