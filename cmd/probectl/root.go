package main

import (
	"fmt"
	"strings"

	"github.com/danmuck/edgeprobe/internal/config"
	"github.com/danmuck/edgeprobe/internal/host"
	"github.com/danmuck/edgeprobe/internal/observability"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	configPath string
	target     string
	hostname   string
	local      bool
	format     string
	metricsOut string
}

// openHostFunc is swapped in tests.
var openHostFunc = openHost

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "probectl",
		Short:         "Query file, service and platform state on a local or remote host",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := applyFileDefaults(cmd, opts); err != nil {
				return err
			}
			switch opts.format {
			case formatText, formatYAML:
				return nil
			default:
				return fmt.Errorf("unknown --format %q (want %s or %s)", opts.format, formatText, formatYAML)
			}
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if opts.metricsOut == "" {
				return nil
			}
			return observability.WriteTextfile(opts.metricsOut)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", config.DefaultPath, "path to probectl.toml")
	flags.StringVarP(&opts.target, "target", "t", "", "configured target name (defaults to default_target)")
	flags.StringVar(&opts.hostname, "host", "", "hostname to dial directly, bypassing target lookup")
	flags.BoolVar(&opts.local, "local", false, "query the local machine instead of a remote host")
	flags.StringVar(&opts.format, "format", formatText, "output format: text|yaml")
	flags.StringVar(&opts.metricsOut, "metrics-out", "", "write prometheus textfile metrics to this path after the command")

	cmd.AddCommand(
		newPlatformCmd(opts),
		newFileCmd(opts),
		newServiceCmd(opts),
		newExecCmd(opts),
		newConfigCmd(opts),
	)
	return cmd
}

func openHost(opts *rootOptions) (*host.Host, error) {
	if opts.local {
		return host.Local(), nil
	}

	cfg, err := config.LoadConfig(opts.configPath)
	if err != nil {
		return nil, err
	}
	name := opts.target
	if h := strings.TrimSpace(opts.hostname); h != "" {
		name = h
	}
	sshCfg, err := cfg.Resolve(name)
	if err != nil {
		return nil, err
	}
	log.Debug().Str("host", sshCfg.Host).Str("user", sshCfg.User).Msg("dialing target")
	return host.Dial(sshCfg)
}

// withHost opens the host for one command and always releases it.
func withHost(opts *rootOptions, fn func(h *host.Host) error) (err error) {
	h, err := openHostFunc(opts)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := h.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return fn(h)
}
