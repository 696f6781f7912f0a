package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// LocalConfig is the subset of config.yaml read directly from the file
// rather than through the viper singleton. Needed when checking config
// before viper is initialized, or from a different workspace directory than
// the one viper was initialized with.
type LocalConfig struct {
	Database         string `yaml:"db"`
	Actor            string `yaml:"actor"`
	MasterAdminEmail string `yaml:"master-admin-email"`
	NotifyWebhook    string `yaml:"notify-webhook"`
}

// LoadLocalConfig reads and parses config.yaml from the given workspace
// directory. Returns an empty LocalConfig (not nil) if the file doesn't
// exist or can't be parsed.
func LoadLocalConfig(workspaceDir string) *LocalConfig {
	data, err := os.ReadFile(filepath.Join(workspaceDir, "config.yaml")) // #nosec G304 - config file path from workspaceDir
	if err != nil {
		return &LocalConfig{}
	}

	var cfg LocalConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return &LocalConfig{}
	}
	return &cfg
}

// LoadLocalConfigWithEnv reads config.yaml and applies environment variable
// overrides. Environment variables take precedence over file values.
func LoadLocalConfigWithEnv(workspaceDir string) *LocalConfig {
	cfg := LoadLocalConfig(workspaceDir)
	if email := os.Getenv("SD_MASTER_ADMIN_EMAIL"); email != "" {
		cfg.MasterAdminEmail = email
	}
	if actor := os.Getenv("SD_ACTOR"); actor != "" {
		cfg.Actor = actor
	}
	return cfg
}

// MasterEmail returns the configured master admin email, falling back to the
// default.
func (c *LocalConfig) MasterEmail() string {
	if c.MasterAdminEmail != "" {
		return c.MasterAdminEmail
	}
	return DefaultMasterAdminEmail
}
