package main

import (
	"fmt"
	"slices"
	"strings"

	"github.com/danmuck/edgeprobe/internal/config"
	"github.com/danmuck/edgeprobe/internal/host"
	"github.com/danmuck/edgeprobe/internal/provider"
	"github.com/spf13/cobra"
)

var fileOps = []provider.OpName{
	provider.FileExists,
	provider.FileIsFile,
	provider.FileIsDirectory,
	provider.FileIsBlockDevice,
	provider.FileIsCharacterDevice,
	provider.FileIsPipe,
	provider.FileIsSocket,
	provider.FileIsSymlink,
	provider.FileLinkedTo,
	provider.FileContent,
	provider.FileMode,
	provider.FileOwner,
	provider.FileGroup,
	provider.FileSize,
	provider.FileMD5Sum,
	provider.FileSHA256Sum,
	provider.FileIsReadable,
	provider.FileIsWritable,
	provider.FileIsExecutable,
}

var serviceOps = []provider.OpName{
	provider.ServiceIsRunning,
	provider.ServiceIsEnabled,
	provider.ServiceEnable,
	provider.ServiceDisable,
}

func newPlatformCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "platform",
		Short: "Detect the target's platform family and release",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withHost(opts, func(h *host.Host) error {
				p, err := h.DetectPlatform()
				if err != nil {
					return err
				}
				return renderPlatform(cmd.OutOrStdout(), opts.format, h.Name(), p)
			})
		},
	}
}

func newFileCmd(opts *rootOptions) *cobra.Command {
	var whomRaw string
	cmd := &cobra.Command{
		Use:   "file <op> <path>",
		Short: "Run a file operation (" + opList(fileOps) + ")",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, err := lookupOp("file", args[0], fileOps)
			if err != nil {
				return err
			}
			whom, err := provider.ParseWhom(whomRaw)
			if err != nil {
				return err
			}
			return withHost(opts, func(h *host.Host) error {
				providers, err := h.Providers()
				if err != nil {
					return err
				}
				op := providers.File.Op(name, args[1], whom)
				out, err := h.Dispatch(op)
				if err != nil {
					return err
				}
				return renderOutput(cmd.OutOrStdout(), opts.format, h.Name(), op, out)
			})
		},
	}
	cmd.Flags().StringVar(&whomRaw, "whom", "", "permission target: owner|group|others|user:NAME (default any)")
	return cmd
}

func newServiceCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "service <op> <name>",
		Short: "Run a service operation (" + opList(serviceOps) + ")",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, err := lookupOp("service", args[0], serviceOps)
			if err != nil {
				return err
			}
			return withHost(opts, func(h *host.Host) error {
				providers, err := h.Providers()
				if err != nil {
					return err
				}
				op := providers.Service.Op(name, args[1])
				out, err := h.Dispatch(op)
				if err != nil {
					return err
				}
				return renderOutput(cmd.OutOrStdout(), opts.format, h.Name(), op, out)
			})
		},
	}
}

func newExecCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "exec [flags] <command...>",
		Short: "Run a raw command and report its output and exit status",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withHost(opts, func(h *host.Host) error {
				res, err := h.RunCommand(strings.Join(args, " "))
				if err != nil {
					return err
				}
				return renderCommand(cmd.OutOrStdout(), opts.format, h.Name(), res)
			})
		},
	}
	// Everything after the first argument belongs to the remote command.
	cmd.Flags().SetInterspersed(false)
	return cmd
}

func newConfigCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:         "config",
		Short:       "Manage probectl.toml",
		Annotations: map[string]string{annotationSkipFileDefaults: "true"},
	}

	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a starter config to --config",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.WriteTemplate(opts.configPath, force)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "wrote config template to %s\n", path)
			return err
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing config")

	validateCmd := &cobra.Command{
		Use:   "validate",
		Short: "Load and validate --config",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(opts.configPath)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "config ok: %d targets\n", len(cfg.Targets))
			return err
		},
	}

	cmd.AddCommand(initCmd, validateCmd)
	return cmd
}

// lookupOp accepts "mode" or "file.mode" style names.
func lookupOp(area string, raw string, known []provider.OpName) (provider.OpName, error) {
	raw = strings.TrimSpace(strings.ReplaceAll(raw, "-", "_"))
	name := provider.OpName(raw)
	if !strings.HasPrefix(raw, area+".") {
		name = provider.OpName(area + "." + raw)
	}
	if !slices.Contains(known, name) {
		return "", fmt.Errorf("unknown %s operation %q", area, raw)
	}
	return name, nil
}

func opList(ops []provider.OpName) string {
	names := make([]string, 0, len(ops))
	for _, op := range ops {
		_, short, _ := strings.Cut(string(op), ".")
		names = append(names, short)
	}
	return strings.Join(names, ", ")
}
