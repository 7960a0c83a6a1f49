package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/tutor/internal/paths"
	"github.com/mesh-intelligence/tutor/pkg/types"
)

// configFile is the structure init writes to config.yaml.
type configFile struct {
	Backend    string       `yaml:"backend"`
	DataDir    string       `yaml:"data_dir,omitempty"`
	ListenAddr string       `yaml:"listen_addr"`
	APIPrefix  string       `yaml:"api_prefix"`
	LessonsURL string       `yaml:"lessons_url"`
	LogLevel   string       `yaml:"log_level"`
	Ledger     ledgerConfig `yaml:"ledger"`
}

type ledgerConfig struct {
	TolerateMalformed bool `yaml:"tolerate_malformed"`
}

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize tutor storage",
		Long:  "Create the configuration and data directories, write config.yaml and create the database.",
		Args:  cobra.NoArgs,
		RunE:  runInit,
	}
}

func runInit(cmd *cobra.Command, args []string) error {
	configDir, err := paths.ResolveConfigDir(flags.configDir)
	if err != nil {
		return sysError("resolve config dir: %w", err)
	}
	if err := ensureConfigDir(configDir); err != nil {
		return sysError("create config directory: %w", err)
	}
	configPath := filepath.Join(configDir, configFileExt)
	if err := writeConfigIfMissing(configPath, flags.dataDir); err != nil {
		return sysError("write config: %w", err)
	}

	s, err := loadSettings()
	if err != nil {
		return userError("%w", err)
	}
	backend, err := attachBackend(s)
	if err != nil {
		return sysError("initialize storage: %w", err)
	}
	if err := backend.Detach(); err != nil {
		return sysError("finalize storage: %w", err)
	}
	if err := os.MkdirAll(s.LessonsDir, 0o755); err != nil {
		return sysError("create lessons directory: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "tutor initialized successfully")
	fmt.Fprintln(out, "  config: ", configDir)
	fmt.Fprintln(out, "  data:   ", s.DataDir)
	fmt.Fprintln(out, "  lessons:", s.LessonsDir)
	return nil
}

// writeConfigIfMissing creates config.yaml unless it exists. dataDir is
// recorded when given.
func writeConfigIfMissing(path, dataDir string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	if dataDir != "" {
		abs, err := filepath.Abs(dataDir)
		if err != nil {
			return err
		}
		dataDir = abs
	}

	cfg := configFile{
		Backend:    types.BackendSQLite,
		DataDir:    dataDir,
		ListenAddr: ":3000",
		APIPrefix:  "/api",
		LessonsURL: "/lessons",
		LogLevel:   "info",
	}
	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
