package backend

import (
	"bytes"
	"errors"
	"fmt"
	"os/exec"

	"github.com/rs/zerolog/log"
)

// Direct executes commands on the local host through /bin/sh.
type Direct struct {
	// Shell defaults to "sh".
	Shell string
}

func NewDirect() *Direct {
	return &Direct{}
}

func (d *Direct) Kind() Kind {
	return KindDirect
}

func (d *Direct) RunCommand(c string) (CommandResult, error) {
	shell := d.Shell
	if shell == "" {
		shell = "sh"
	}
	cmd := exec.Command(shell, "-c", c)
	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res := CommandResult{Stdout: stdout.String(), Stderr: stderr.String()}
	if err == nil {
		res.Success = true
		log.Debug().Str("backend", "direct").Str("cmd", c).Int("exit", 0).Msg("command finished")
		return res, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		res.ExitCode = exitErr.ExitCode()
		log.Debug().Str("backend", "direct").Str("cmd", c).Int("exit", res.ExitCode).Msg("command finished")
		return res, nil
	}
	return CommandResult{}, fmt.Errorf("%w: spawn %s: %v", ErrTransport, shell, err)
}

func (d *Direct) Close() error {
	return nil
}
