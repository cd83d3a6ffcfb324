package provider

import (
	"fmt"
	"strings"

	"github.com/danmuck/edgeprobe/internal/backend"
	"github.com/danmuck/edgeprobe/internal/output"
)

// Systemctl is the shell service strategy for systemd hosts.
//
// is_running maps the exit status to a bool. is_enabled reads the unit file
// state from stdout so that static or indirect units answer the same as the
// systemd inline strategy. enable and disable return true on success and
// ErrCommand otherwise.
type Systemctl struct{}

func (Systemctl) Run(b backend.Backend, op Operation) (output.Output, error) {
	switch op.Name {
	case ServiceIsRunning:
		return runFlag(b, "systemctl is-active "+op.Target)
	case ServiceIsEnabled:
		return runUnitFileState(b, "systemctl is-enabled "+op.Target)
	case ServiceEnable:
		return runChange(b, "systemctl enable "+op.Target)
	case ServiceDisable:
		return runChange(b, "systemctl disable "+op.Target)
	default:
		return output.Output{}, notDefined(op, "systemctl shell")
	}
}

// NullService stands in on platforms without a supported service manager.
// Every operation fails with ErrNotImplemented.
type NullService struct {
	Platform string
}

func (n NullService) Run(_ backend.Backend, op Operation) (output.Output, error) {
	platform := n.Platform
	if platform == "" {
		platform = "this platform"
	}
	return output.Output{}, fmt.Errorf("%w: %s on %s", ErrNotImplemented, op.Name, platform)
}

func runFlag(b backend.Backend, cmd string) (output.Output, error) {
	res, err := b.RunCommand(cmd)
	if err != nil {
		return output.Output{}, err
	}
	return output.Bool(res.Success), nil
}

// runUnitFileState ignores the exit status: systemctl exits 0 for static
// units and non-zero for unknown ones, and only stdout names the state.
func runUnitFileState(b backend.Backend, cmd string) (output.Output, error) {
	res, err := b.RunCommand(cmd)
	if err != nil {
		return output.Output{}, err
	}
	state, _, _ := strings.Cut(res.TrimmedStdout(), "\n")
	return output.Bool(unitFileEnabled(state)), nil
}

func runChange(b backend.Backend, cmd string) (output.Output, error) {
	res, err := b.RunCommand(cmd)
	if err != nil {
		return output.Output{}, err
	}
	if !res.Success {
		return output.Output{}, commandError(cmd, res)
	}
	return output.Bool(true), nil
}
