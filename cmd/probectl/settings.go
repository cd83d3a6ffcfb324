package main

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
)

// annotationSkipFileDefaults marks commands that must run even when
// probectl.toml does not parse.
const annotationSkipFileDefaults = "probectl/skip-file-defaults"

// probectl.toml [probectl] table: CLI defaults that explicit flags override.
type cliFileConfig struct {
	Probectl struct {
		Format     string `toml:"format"`
		MetricsOut string `toml:"metrics_out"`
		Local      bool   `toml:"local"`
	} `toml:"probectl"`
}

// applyFileDefaults overlays [probectl] keys onto flags the user left unset.
// A missing config file is not an error.
func applyFileDefaults(cmd *cobra.Command, opts *rootOptions) error {
	if skipsFileDefaults(cmd) {
		return nil
	}
	path, err := homedir.Expand(opts.configPath)
	if err != nil {
		return fmt.Errorf("config path %q: %w", opts.configPath, err)
	}

	var raw cliFileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load probectl defaults: %w", err)
	}

	flags := cmd.Flags()
	if meta.IsDefined("probectl", "format") && !flags.Changed("format") {
		opts.format = strings.TrimSpace(raw.Probectl.Format)
	}
	if meta.IsDefined("probectl", "metrics_out") && !flags.Changed("metrics-out") {
		opts.metricsOut = strings.TrimSpace(raw.Probectl.MetricsOut)
	}
	if meta.IsDefined("probectl", "local") && !flags.Changed("local") {
		opts.local = raw.Probectl.Local
	}
	return nil
}

func skipsFileDefaults(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations[annotationSkipFileDefaults] != "" {
			return true
		}
	}
	return false
}
