package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	// EnvConfigPath is the environment variable for explicit config path
	EnvConfigPath = "NETINSPECT_CONFIG"
	// EnvSecretKey overrides secrets.key
	EnvSecretKey = "NETINSPECT_SECRET_KEY"
	// EnvSecretKeyFile names a file holding the secret key, e.g. a mounted
	// container secret. EnvSecretKey wins when both are set.
	EnvSecretKeyFile = "NETINSPECT_SECRET_KEY_FILE"
	// ConfigFileName is the config file name looked up in the working directory
	ConfigFileName = "netinspect.yaml"
	// ConfigDirName is the directory name under XDG and /etc
	ConfigDirName = "netinspect"
)

// searchPaths lists config candidates in priority order. Locations whose
// environment variable is unset are left out.
func searchPaths() []string {
	var paths []string

	if explicit := os.Getenv(EnvConfigPath); explicit != "" {
		paths = append(paths, explicit)
	}
	if abs, err := filepath.Abs(ConfigFileName); err == nil {
		paths = append(paths, abs)
	} else {
		paths = append(paths, ConfigFileName)
	}
	if xdgHome := os.Getenv("XDG_CONFIG_HOME"); xdgHome != "" {
		paths = append(paths, filepath.Join(xdgHome, ConfigDirName, "config.yaml"))
	}
	if home := os.Getenv("HOME"); home != "" {
		paths = append(paths, filepath.Join(home, ".config", ConfigDirName, "config.yaml"))
	}
	return append(paths, filepath.Join("/etc", ConfigDirName, "config.yaml"))
}

// FindConfigPath returns the first existing candidate of:
// $NETINSPECT_CONFIG, ./netinspect.yaml, $XDG_CONFIG_HOME/netinspect/config.yaml,
// ~/.config/netinspect/config.yaml, /etc/netinspect/config.yaml.
// Returns empty string if no config file found.
func FindConfigPath() string {
	for _, path := range searchPaths() {
		if fileExists(path) {
			return path
		}
	}
	return ""
}

// EnsureConfigDir creates the config directory if it doesn't exist
func EnsureConfigDir(configPath string) error {
	return os.MkdirAll(filepath.Dir(configPath), 0755)
}

// applyEnv overlays the secret key from the environment. The key file is
// read only when the key itself is not set.
func (c *Config) applyEnv() error {
	if key := os.Getenv(EnvSecretKey); key != "" {
		c.Secrets.Key = key
		return nil
	}

	keyFile := os.Getenv(EnvSecretKeyFile)
	if keyFile == "" {
		return nil
	}
	data, err := os.ReadFile(keyFile)
	if err != nil {
		return fmt.Errorf("read %s: %w", EnvSecretKeyFile, err)
	}
	key := strings.TrimSpace(string(data))
	if key == "" {
		return fmt.Errorf("%s: %s is empty", EnvSecretKeyFile, keyFile)
	}
	c.Secrets.Key = key
	return nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
