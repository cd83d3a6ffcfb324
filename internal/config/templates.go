package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/mitchellh/go-homedir"
)

// Template returns a starter probectl.toml.
func Template() string {
	return probectlTemplate
}

// WriteTemplate writes the starter config to path, refusing to replace an
// existing file unless overwrite is set.
func WriteTemplate(path string, overwrite bool) (string, error) {
	if path == "" {
		path = DefaultPath
	}
	expanded, err := homedir.Expand(path)
	if err != nil {
		return "", err
	}
	if !overwrite {
		if _, err := os.Stat(expanded); err == nil {
			return "", fmt.Errorf("config already exists: %s", expanded)
		}
	}
	if err := os.MkdirAll(filepath.Dir(expanded), 0o755); err != nil {
		return "", err
	}
	return expanded, os.WriteFile(expanded, []byte(probectlTemplate), 0o600)
}

const probectlTemplate = `default_target = "web1"
timeout = "10s"

[probectl]
format = "text"

[targets.web1]
host = "web1.example.com"
user = "deploy"
known_hosts = "~/.ssh/known_hosts"

[targets.bsd-builder]
host = "10.0.0.12"
port = "2222"
insecure_skip_host_key_check = true
`
