package commands

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/benvon/taskcloud/internal/apiclient"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	envPrefix      = "TASKCTL"
	configFileName = ".taskctl.yaml"
	stateDirName   = ".taskctl"
)

// Output formats accepted by --output
const (
	OutputTable = "table"
	OutputJSON  = "json"
	OutputYAML  = "yaml"
)

// Settings is the merged CLI configuration: flags over TASKCTL_* environment
// variables over ~/.taskctl.yaml over defaults
type Settings struct {
	Server     string        `mapstructure:"server"`
	Cache      string        `mapstructure:"cache"`
	CachePath  string        `mapstructure:"cache-path"`
	RedisURL   string        `mapstructure:"redis-url"`
	SharedUser string        `mapstructure:"shared-user"`
	Timeout    time.Duration `mapstructure:"timeout"`
	LogFile    string        `mapstructure:"log-file"`
	Debug      bool          `mapstructure:"debug"`
	Output     string        `mapstructure:"output"`
}

func stateDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return stateDirName
	}
	return filepath.Join(home, stateDirName)
}

func defaultConfigFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, configFileName)
}

// addPersistentFlags declares the flags every command shares
func addPersistentFlags(cmd *cobra.Command) {
	dir := stateDir()
	f := cmd.PersistentFlags()
	f.String("config", "", "config file (default ~/"+configFileName+")")
	f.String("server", "http://localhost:3001", "API base URL")
	f.String("cache", "sqlite", "local cache backend: sqlite, redis or memory")
	f.String("cache-path", filepath.Join(dir, "cache.db"), "SQLite cache file")
	f.String("redis-url", "", "Redis URL for the redis cache backend")
	f.String("shared-user", "", "user id sent as X-User-ID to a server in shared mode")
	f.Duration("timeout", apiclient.DefaultTimeout, "per-request timeout")
	f.String("log-file", filepath.Join(dir, "taskctl.log"), "log file")
	f.Bool("debug", false, "debug logging")
	f.StringP("output", "o", OutputTable, "output format: table, json or yaml")
}

// loadSettings resolves Settings for cmd
func loadSettings(cmd *cobra.Command) (Settings, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return Settings{}, fmt.Errorf("failed to bind flags: %w", err)
	}

	configFile := v.GetString("config")
	explicit := configFile != ""
	if !explicit {
		configFile = defaultConfigFile()
	}
	if configFile != "" {
		v.SetConfigFile(configFile)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			missing := errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist)
			if explicit || !missing {
				return Settings{}, fmt.Errorf("failed to read config %s: %w", configFile, err)
			}
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return Settings{}, fmt.Errorf("failed to decode settings: %w", err)
	}
	if err := s.validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

func (s Settings) validate() error {
	switch s.Output {
	case OutputTable, OutputJSON, OutputYAML:
	default:
		return fmt.Errorf("unknown output format %q (must be table, json or yaml)", s.Output)
	}
	if strings.TrimSpace(s.Server) == "" {
		return fmt.Errorf("server URL is required")
	}
	if s.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	return nil
}
