package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/civicworks/reclaim/internal/sqlite"
	"github.com/civicworks/reclaim/pkg/types"
)

// configFile holds the structure written to config.yaml.
type configFile struct {
	Backend string `yaml:"backend"`
	DataDir string `yaml:"data_dir,omitempty"`
}

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize reclaim storage",
		Long:  "Create configuration and data directories, then initialize the storage backend.",
		RunE:  runInit,
	}
}

func runInit(cmd *cobra.Command, args []string) error {
	configDir, err := resolveConfigDir()
	if err != nil {
		sysError("resolve config dir: %s", err)
	}

	dataDir := flags.dataDir
	if dataDir == "" {
		dataDir = loadDataDirFromConfig(configDir)
	}
	if dataDir == "" {
		dataDir, err = resolveDataDir("")
		if err != nil {
			sysError("resolve data dir: %s", err)
		}
	}

	if err := os.MkdirAll(configDir, 0o755); err != nil {
		sysError("create config directory: %s", err)
	}

	configPath := filepath.Join(configDir, configFileExt)
	if err := writeConfigIfMissing(configPath, dataDir); err != nil {
		sysError("write config: %s", err)
	}

	// Attach then detach to create the data directory and schema.
	backend := sqlite.NewBackend()
	if err := backend.Attach(types.Config{
		Backend: types.BackendSQLite,
		DataDir: dataDir,
	}); err != nil {
		sysError("initialize storage: %s", err)
	}
	if err := backend.Detach(); err != nil {
		sysError("finalize storage: %s", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), "Reclaim initialized successfully")
	return nil
}

// writeConfigIfMissing creates config.yaml with default values if the
// file does not exist. If it already exists, the function returns nil.
func writeConfigIfMissing(path, dataDir string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	cfg := configFile{
		Backend: types.BackendSQLite,
		DataDir: dataDir,
	}

	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	return os.WriteFile(path, data, 0o644)
}

// loadDataDirFromConfig reads data_dir from an existing config.yaml.
// Returns empty string if the file does not exist or cannot be read.
func loadDataDirFromConfig(configDir string) string {
	path := filepath.Join(configDir, configFileExt)
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}

	var cfg configFile
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return ""
	}
	return cfg.DataDir
}
