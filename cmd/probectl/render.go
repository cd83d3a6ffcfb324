package main

import (
	"fmt"
	"io"

	"github.com/danmuck/edgeprobe/internal/backend"
	"github.com/danmuck/edgeprobe/internal/output"
	"github.com/danmuck/edgeprobe/internal/platform"
	"github.com/danmuck/edgeprobe/internal/provider"
	"github.com/fatih/color"
	"gopkg.in/yaml.v3"
)

const (
	formatText = "text"
	formatYAML = "yaml"
)

type outputDoc struct {
	Host      string `yaml:"host"`
	Operation string `yaml:"operation"`
	Target    string `yaml:"target"`
	Whom      string `yaml:"whom,omitempty"`
	Kind      string `yaml:"kind"`
	Value     any    `yaml:"value"`
}

type platformDoc struct {
	Host     string            `yaml:"host"`
	Platform platform.Platform `yaml:"platform"`
}

type commandDoc struct {
	Host     string `yaml:"host"`
	Success  bool   `yaml:"success"`
	ExitCode int    `yaml:"exit_code"`
	Stdout   string `yaml:"stdout"`
	Stderr   string `yaml:"stderr"`
}

func renderOutput(w io.Writer, format string, hostName string, op provider.Operation, out output.Output) error {
	if format == formatYAML {
		doc := outputDoc{
			Host:      hostName,
			Operation: string(op.Name),
			Target:    op.Target,
			Kind:      out.Kind().String(),
			Value:     out.Value(),
		}
		if op.Whom.Kind != provider.WhomAny {
			doc.Whom = op.Whom.String()
		}
		return writeYAML(w, doc)
	}

	if v, err := out.AsBool(); err == nil {
		c := color.New(color.FgRed)
		if v {
			c = color.New(color.FgGreen)
		}
		_, err := c.Fprintln(w, out.String())
		return err
	}
	if out.Kind() == output.KindInt32 && op.Name == provider.FileMode {
		_, err := fmt.Fprintf(w, "%04o\n", out.Value())
		return err
	}
	_, err := fmt.Fprintln(w, out.String())
	return err
}

func renderPlatform(w io.Writer, format string, hostName string, p platform.Platform) error {
	if format == formatYAML {
		return writeYAML(w, platformDoc{Host: hostName, Platform: p})
	}
	_, err := fmt.Fprintf(w, "%s: %s\n", hostName, p)
	return err
}

func renderCommand(w io.Writer, format string, hostName string, res backend.CommandResult) error {
	if format == formatYAML {
		return writeYAML(w, commandDoc{
			Host:     hostName,
			Success:  res.Success,
			ExitCode: res.ExitCode,
			Stdout:   res.Stdout,
			Stderr:   res.Stderr,
		})
	}
	if _, err := io.WriteString(w, res.Stdout); err != nil {
		return err
	}
	if !res.Success {
		_, err := color.New(color.FgYellow).Fprintf(w, "exit %d: %s", res.ExitCode, res.Stderr)
		return err
	}
	return nil
}

func writeYAML(w io.Writer, doc any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return err
	}
	return enc.Close()
}
