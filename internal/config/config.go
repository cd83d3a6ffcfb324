package config

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/danmuck/edgeprobe/internal/backend"
	"github.com/mitchellh/go-homedir"
	"github.com/pelletier/go-toml/v2"
)

const DefaultPath = "~/.config/edgeprobe/probectl.toml"

var ErrTargetNotFound = errors.New("config: target not found")

type Config struct {
	DefaultTarget string                  `toml:"default_target"`
	Timeout       string                  `toml:"timeout"`
	Targets       map[string]TargetConfig `toml:"targets"`
}

type TargetConfig struct {
	Host                     string `toml:"host"`
	Port                     string `toml:"port"`
	User                     string `toml:"user"`
	KnownHosts               string `toml:"known_hosts"`
	InsecureSkipHostKeyCheck bool   `toml:"insecure_skip_host_key_check"`
}

// LoadConfig reads path. A missing file at DefaultPath yields an empty config.
func LoadConfig(path string) (Config, error) {
	if strings.TrimSpace(path) == "" {
		path = DefaultPath
	}
	expanded, err := homedir.Expand(path)
	if err != nil {
		return Config{}, fmt.Errorf("config path %q: %w", path, err)
	}

	var cfg Config
	if err := loadToml(expanded, &cfg); err != nil {
		if path == DefaultPath && errors.Is(err, os.ErrNotExist) {
			return Config{}, nil
		}
		return Config{}, err
	}
	if err := ValidateConfig(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadToml(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config load failed (%s): %w", path, err)
	}
	if err := toml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("config parse failed (%s): %w", path, err)
	}
	return nil
}

func ValidateConfig(cfg Config) error {
	if cfg.Timeout != "" {
		if _, err := time.ParseDuration(cfg.Timeout); err != nil {
			return fmt.Errorf("config timeout %q: %w", cfg.Timeout, err)
		}
	}
	names := make([]string, 0, len(cfg.Targets))
	for name := range cfg.Targets {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := ValidateTarget(cfg.Targets[name]); err != nil {
			return fmt.Errorf("target[%s] invalid: %w", name, err)
		}
	}
	if def := strings.TrimSpace(cfg.DefaultTarget); def != "" {
		if _, ok := cfg.Targets[def]; !ok {
			return fmt.Errorf("%w: default_target=%q", ErrTargetNotFound, def)
		}
	}
	return nil
}

func ValidateTarget(t TargetConfig) error {
	if strings.TrimSpace(t.Host) == "" {
		return fmt.Errorf("host is required")
	}
	if strings.ContainsAny(t.Host, " \t\n") {
		return fmt.Errorf("host %q contains whitespace", t.Host)
	}
	return nil
}

// Resolve maps a target name to SSH settings. An empty name selects the
// default target; a name with no entry is used as a literal hostname.
func (c Config) Resolve(name string) (backend.SSHConfig, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = strings.TrimSpace(c.DefaultTarget)
		if name == "" {
			return backend.SSHConfig{}, fmt.Errorf("%w: no target given and no default_target configured", ErrTargetNotFound)
		}
	}

	var timeout time.Duration
	if c.Timeout != "" {
		timeout, _ = time.ParseDuration(c.Timeout)
	}

	t, ok := c.Targets[name]
	if !ok {
		return backend.SSHConfig{Host: name, Timeout: timeout}, nil
	}
	return backend.SSHConfig{
		Host:                        t.Host,
		Port:                        t.Port,
		User:                        t.User,
		KnownHostsPath:              t.KnownHosts,
		InsecureSkipHostKeyChecking: t.InsecureSkipHostKeyCheck,
		Timeout:                     timeout,
	}, nil
}
