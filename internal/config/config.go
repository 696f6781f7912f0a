// Package config holds runtime configuration: a viper singleton fed by
// defaults, an optional config.yaml in the workspace .storydeck directory,
// and SD_* environment variables, plus a direct YAML reader for the paths
// that run before viper is initialized.
package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// DefaultMasterAdminEmail is the reserved super-user identity. A user whose
// email matches is treated as master admin regardless of stored role.
const DefaultMasterAdminEmail = "admin@storydeck.local"

// v is the package-level viper instance. Initialize replaces it wholesale,
// which doubles as test isolation.
var v *viper.Viper

// Initialize builds the viper instance: defaults first, then config.yaml
// from the workspace directory if present, then SD_* environment overrides.
// Missing config files are not an error.
func Initialize() error {
	nv := viper.New()

	nv.SetDefault("db", "")
	nv.SetDefault("actor", "")
	nv.SetDefault("master-admin-email", DefaultMasterAdminEmail)
	nv.SetDefault("notify-webhook", "")
	nv.SetDefault("json", false)

	nv.SetEnvPrefix("SD")
	nv.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	nv.AutomaticEnv()

	if dir, err := FindWorkspaceDir(); err == nil {
		nv.SetConfigName("config")
		nv.SetConfigType("yaml")
		nv.AddConfigPath(dir)
		if err := nv.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return err
			}
		}
	}

	v = nv
	return nil
}

// GetString returns a string config value. Safe to call before Initialize;
// returns the zero value.
func GetString(key string) string {
	if v == nil {
		return ""
	}
	return v.GetString(key)
}

// GetBool returns a boolean config value.
func GetBool(key string) bool {
	if v == nil {
		return false
	}
	return v.GetBool(key)
}

// Set overrides a value on the live instance, typically from a CLI flag.
func Set(key string, value any) {
	if v != nil {
		v.Set(key, value)
	}
}

// WorkspaceDirName is the per-project directory holding the database and
// config.yaml.
const WorkspaceDirName = ".storydeck"

// FindWorkspaceDir walks from the current directory upward looking for a
// .storydeck directory, the same way version control tools find their root.
func FindWorkspaceDir() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		candidate := filepath.Join(dir, WorkspaceDirName)
		if fi, err := os.Stat(candidate); err == nil && fi.IsDir() {
			return candidate, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", os.ErrNotExist
		}
		dir = parent
	}
}
