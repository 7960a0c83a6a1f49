package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/mesh-intelligence/tutor/internal/paths"
	"github.com/mesh-intelligence/tutor/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	configFileExt  = "config.yaml"

	envPrefix = "TUTOR"
)

// Config keys.
const (
	cfgKeyBackend           = "backend"
	cfgKeyDataDir           = "data_dir"
	cfgKeyListenAddr        = "listen_addr"
	cfgKeyPublicDir         = "public_dir"
	cfgKeyLessonsDir        = "lessons_dir"
	cfgKeyLessonsURL        = "lessons_url"
	cfgKeyAPIPrefix         = "api_prefix"
	cfgKeyCatalogPath       = "catalog_path"
	cfgKeyLogLevel          = "log_level"
	cfgKeyLogJSON           = "log_json"
	cfgKeyTolerateMalformed = "ledger.tolerate_malformed"
)

// defaultConfigYAML is written to config.yaml on first run.
const defaultConfigYAML = `# tutor configuration
# Every key can be overridden with a TUTOR_ environment variable,
# e.g. TUTOR_LISTEN_ADDR or TUTOR_LEDGER_TOLERATE_MALFORMED.

backend: sqlite

# Data directory (optional; overridable by --data-dir)
# data_dir:

listen_addr: ":3000"
api_prefix: /api
lessons_url: /lessons

# Generated lesson pages (default: <data_dir>/lessons)
# lessons_dir:

# Static front end served at / (optional)
# public_dir:

# Ranked word list as rank,word CSV (default: built-in list)
# catalog_path:

log_level: info
log_json: false

ledger:
  # Replace unparseable link lists instead of refusing to append.
  tolerate_malformed: false
`

// settings is the resolved configuration of one command run.
type settings struct {
	Backend           string
	DataDir           string
	ListenAddr        string
	PublicDir         string
	LessonsDir        string
	LessonsURL        string
	APIPrefix         string
	CatalogPath       string
	LogLevel          string
	LogJSON           bool
	TolerateMalformed bool
}

// storeConfig returns the storage part of the settings.
func (s settings) storeConfig() types.Config {
	return types.Config{Backend: s.Backend, DataDir: s.DataDir}
}

// loadConfig reads config.yaml from configDir, creating the directory and a
// default file on first run. A missing config.yaml is not an error.
func loadConfig(configDir string) (*viper.Viper, error) {
	if err := ensureConfigDir(configDir); err != nil {
		return nil, fmt.Errorf("ensure config dir: %w", err)
	}
	if err := ensureDefaultConfigFile(configDir); err != nil {
		return nil, fmt.Errorf("ensure default config: %w", err)
	}

	v := viper.New()
	v.SetDefault(cfgKeyBackend, types.BackendSQLite)
	v.SetDefault(cfgKeyListenAddr, ":3000")
	v.SetDefault(cfgKeyLessonsURL, "/lessons")
	v.SetDefault(cfgKeyAPIPrefix, "/api")
	v.SetDefault(cfgKeyLogLevel, "info")
	v.SetDefault(cfgKeyLogJSON, false)
	v.SetDefault(cfgKeyTolerateMalformed, false)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return v, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	return v, nil
}

// loadSettings resolves directories and reads the configuration using the
// global flags.
func loadSettings() (settings, error) {
	configDir, err := paths.ResolveConfigDir(flags.configDir)
	if err != nil {
		return settings{}, fmt.Errorf("resolve config dir: %w", err)
	}
	v, err := loadConfig(configDir)
	if err != nil {
		return settings{}, err
	}

	// data_dir from the environment is handled by paths.ResolveDataDir
	// after the config file, so read the file value alone here.
	fileDataDir := ""
	if v.InConfig(cfgKeyDataDir) {
		fileDataDir = v.GetString(cfgKeyDataDir)
	}
	dataDir, err := paths.ResolveDataDir(flags.dataDir, fileDataDir)
	if err != nil {
		return settings{}, fmt.Errorf("resolve data dir: %w", err)
	}
	lessonsDir, err := paths.ResolveLessonsDir(dataDir, v.GetString(cfgKeyLessonsDir))
	if err != nil {
		return settings{}, fmt.Errorf("resolve lessons dir: %w", err)
	}

	s := settings{
		Backend:           v.GetString(cfgKeyBackend),
		DataDir:           dataDir,
		ListenAddr:        v.GetString(cfgKeyListenAddr),
		PublicDir:         v.GetString(cfgKeyPublicDir),
		LessonsDir:        lessonsDir,
		LessonsURL:        v.GetString(cfgKeyLessonsURL),
		APIPrefix:         v.GetString(cfgKeyAPIPrefix),
		CatalogPath:       v.GetString(cfgKeyCatalogPath),
		LogLevel:          v.GetString(cfgKeyLogLevel),
		LogJSON:           v.GetBool(cfgKeyLogJSON),
		TolerateMalformed: v.GetBool(cfgKeyTolerateMalformed),
	}
	if err := s.storeConfig().Validate(); err != nil {
		return settings{}, fmt.Errorf("config: %w", err)
	}
	return s, nil
}

func ensureConfigDir(configDir string) error {
	return os.MkdirAll(configDir, 0o755)
}

// ensureDefaultConfigFile writes the default config.yaml unless one exists.
func ensureDefaultConfigFile(configDir string) error {
	path := filepath.Join(configDir, configFileExt)
	_, err := os.Stat(path)
	if err == nil {
		return nil
	}
	if !os.IsNotExist(err) {
		return fmt.Errorf("stat config file: %w", err)
	}
	return os.WriteFile(path, []byte(defaultConfigYAML), 0o644)
}
