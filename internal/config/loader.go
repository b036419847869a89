package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/rileyhilliard/latensee/internal/errors"
	"github.com/spf13/viper"
)

const (
	// ConfigFileName is the default config file name.
	ConfigFileName = ".latensee.yaml"
	// GlobalConfigDir is the directory for global config.
	GlobalConfigDir = ".config/latensee"
	// GlobalConfigFile is the global config file name.
	GlobalConfigFile = "config.yaml"
	// EnvPrefix is prepended to environment overrides, e.g. LATENSEE_SOCKET_URL.
	EnvPrefix = "LATENSEE"
)

// Load reads config from the specified path. An empty path skips the file and
// returns defaults with environment overrides applied.
func Load(path string) (*Config, error) {
	v := newViper()
	if path == "" {
		return parseConfig(v, "environment")
	}

	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		if os.IsNotExist(err) {
			return nil, errors.WrapWithCode(err, errors.ErrConfig,
				"Config file not found",
				"Run 'latensee init' to create a config file, or specify one with --config")
		}
		return nil, errors.WrapWithCode(err, errors.ErrConfig,
			"Failed to read config file",
			"Check the file exists and is valid YAML")
	}

	return parseConfig(v, path)
}

// Find locates the config file using the search order:
// 1. Explicit path (from --config flag)
// 2. .latensee.yaml in current directory
// 3. .latensee.yaml in parent directories (stops at git root or home)
// 4. ~/.config/latensee/config.yaml (global defaults)
//
// Returns the path to the config file, or empty string if not found.
func Find(explicit string) (string, error) {
	// 1. Explicit path takes precedence
	if explicit != "" {
		explicit = ExpandTilde(explicit)
		if _, err := os.Stat(explicit); err != nil {
			if os.IsNotExist(err) {
				return "", errors.WrapWithCode(err, errors.ErrConfig,
					"Specified config file not found: "+explicit,
					"Check the path is correct")
			}
			return "", errors.WrapWithCode(err, errors.ErrConfig,
				"Cannot access config file: "+explicit,
				"Check file permissions")
		}
		return explicit, nil
	}

	// 2. Current directory
	cwd, err := os.Getwd()
	if err != nil {
		return "", errors.WrapWithCode(err, errors.ErrConfig,
			"Cannot determine current directory",
			"Check directory permissions")
	}

	localConfig := filepath.Join(cwd, ConfigFileName)
	if _, err := os.Stat(localConfig); err == nil {
		return localConfig, nil
	}

	// 3. Walk up to parent directories
	home, _ := os.UserHomeDir()
	dir := cwd
	for !isGitRoot(dir) {
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		if home != "" && parent == home {
			break
		}
		dir = parent

		configPath := filepath.Join(dir, ConfigFileName)
		if _, err := os.Stat(configPath); err == nil {
			return configPath, nil
		}
	}

	// 4. Global config
	if home != "" {
		globalConfig := GlobalConfigPath(home)
		if _, err := os.Stat(globalConfig); err == nil {
			return globalConfig, nil
		}
	}

	return "", nil
}

// GlobalConfigPath returns the global config location under home.
func GlobalConfigPath(home string) string {
	return filepath.Join(home, GlobalConfigDir, GlobalConfigFile)
}

// LoadOrDefault resolves explicit through Find and loads it, falling back to
// defaults plus environment overrides when no file exists. Returns the path
// that was loaded, empty when none was.
func LoadOrDefault(explicit string) (*Config, string, error) {
	path, err := Find(explicit)
	if err != nil {
		return nil, "", err
	}

	cfg, err := Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	return v
}

// parseConfig converts viper config to our Config struct with defaults merged in.
func parseConfig(v *viper.Viper, source string) (*Config, error) {
	cfg := DefaultConfig()
	// Comes back through the viper default; a shorter list must not inherit
	// trailing default entries.
	cfg.Probe.Commands = nil

	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrConfig,
			"Invalid config format",
			"Check the YAML syntax in "+source)
	}

	cfg.SocketURL = Expand(cfg.SocketURL)
	cfg.Probe.TargetURL = Expand(cfg.Probe.TargetURL)

	return cfg, nil
}

// setDefaults registers every key so AutomaticEnv can override keys the file
// doesn't mention.
func setDefaults(v *viper.Viper) {
	d := DefaultConfig()
	v.SetDefault("version", d.Version)
	v.SetDefault("socket_url", d.SocketURL)
	v.SetDefault("probe.target_url", d.Probe.TargetURL)
	v.SetDefault("probe.interval", d.Probe.Interval)
	v.SetDefault("probe.commands", d.Probe.Commands)
	v.SetDefault("dashboard.max_intervals", d.Dashboard.MaxIntervals)
	v.SetDefault("dashboard.reconnect_delay", d.Dashboard.ReconnectDelay.String())
	v.SetDefault("dashboard.ping_interval", d.Dashboard.PingInterval.String())
	v.SetDefault("dashboard.dial_timeout", d.Dashboard.DialTimeout.String())
	v.SetDefault("output.color", d.Output.Color)
}

// isGitRoot checks if a directory contains a .git directory or file.
func isGitRoot(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, ".git"))
	return err == nil
}
