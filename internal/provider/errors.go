package provider

import (
	"errors"
	"fmt"
	"strings"

	"github.com/danmuck/edgeprobe/internal/backend"
)

var (
	ErrCommand            = errors.New("provider: command failed")
	ErrStrategyNotDefined = errors.New("provider: strategy not defined")
	ErrNotImplemented     = errors.New("provider: not implemented")
)

func commandError(cmd string, res backend.CommandResult) error {
	return fmt.Errorf(
		"%w: cmd=%q exit=%d stderr=%q",
		ErrCommand,
		cmd,
		res.ExitCode,
		strings.TrimSpace(res.Stderr),
	)
}

func parseError(cmd string, raw string, err error) error {
	return fmt.Errorf("%w: cmd=%q output=%q: %v", ErrCommand, cmd, raw, err)
}

func notDefined(op Operation, kind string) error {
	return fmt.Errorf("%w: %s strategy for %s", ErrStrategyNotDefined, kind, op.Name)
}
