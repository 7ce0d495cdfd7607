package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/backoffice/internal/engine/list"
	"github.com/mesh-intelligence/backoffice/internal/gateway"
	"github.com/mesh-intelligence/backoffice/internal/paths"
	"github.com/mesh-intelligence/backoffice/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	configFileExt  = "config.yaml"

	envPrefix = "BACKOFFICE"

	cfgKeyTransport      = "transport"
	cfgKeyServer         = "server"
	cfgKeyToken          = "token"
	cfgKeyTimeout        = "timeout"
	cfgKeyDataDir        = "data_dir"
	cfgKeySearchDebounce = "search_debounce"
	cfgKeyPageSize       = "page_size"
	cfgKeyLogLevel       = "log_level"

	defaultSearchDebounce = 300 * time.Millisecond
	defaultLogLevel       = "info"
)

// envKeys are the keys that BACKOFFICE_<KEY> overrides. data_dir is left
// to paths.ResolveDataDir, where the config file outranks the environment.
var envKeys = []string{
	cfgKeyTransport,
	cfgKeyServer,
	cfgKeyToken,
	cfgKeyTimeout,
	cfgKeySearchDebounce,
	cfgKeyPageSize,
	cfgKeyLogLevel,
}

// configFile is the structure written to a fresh config.yaml.
type configFile struct {
	Transport      string `yaml:"transport"`
	Server         string `yaml:"server"`
	Timeout        string `yaml:"timeout"`
	SearchDebounce string `yaml:"search_debounce"`
	PageSize       int    `yaml:"page_size"`
	LogLevel       string `yaml:"log_level"`
	DataDir        string `yaml:"data_dir,omitempty"`
}

const configHeader = `# Backoffice CLI configuration.
# transport: "local" uses the SQLite store in the data directory,
# "http" talks to the REST API at server (token is sent as a bearer token).
# Extra resources can be declared under a "resources" key.
`

// loadConfig reads config.yaml from configDir, creating the directory and a
// default file on first run, and applies environment overrides.
func loadConfig(configDir string) (*viper.Viper, types.Config, error) {
	if err := paths.EnsureDir(configDir); err != nil {
		return nil, types.Config{}, fmt.Errorf("ensure config dir: %w", err)
	}
	if err := writeConfigIfMissing(filepath.Join(configDir, configFileExt), ""); err != nil {
		return nil, types.Config{}, fmt.Errorf("ensure default config: %w", err)
	}

	v := viper.New()
	v.SetDefault(cfgKeyTransport, types.TransportLocal)
	v.SetDefault(cfgKeyTimeout, gateway.DefaultTimeout)
	v.SetDefault(cfgKeySearchDebounce, defaultSearchDebounce)
	v.SetDefault(cfgKeyPageSize, list.DefaultPageSize)
	v.SetDefault(cfgKeyLogLevel, defaultLogLevel)
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)
	v.SetEnvPrefix(envPrefix)
	for _, k := range envKeys {
		if err := v.BindEnv(k); err != nil {
			return nil, types.Config{}, err
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, types.Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg types.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, types.Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, types.Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return v, cfg, nil
}

// writeConfigIfMissing creates config.yaml with default values if the file
// does not exist.
func writeConfigIfMissing(path, dataDir string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("stat config file: %w", err)
	}

	cfg := configFile{
		Transport:      types.TransportLocal,
		Timeout:        gateway.DefaultTimeout.String(),
		SearchDebounce: defaultSearchDebounce.String(),
		PageSize:       list.DefaultPageSize,
		LogLevel:       defaultLogLevel,
		DataDir:        dataDir,
	}
	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(path, append([]byte(configHeader), data...), 0o644)
}
