package backend

import (
	"errors"
	"strings"
)

var ErrTransport = errors.New("backend: transport failure")

// Kind identifies which strategy family a backend executes.
type Kind int

const (
	KindDirect Kind = iota
	KindRemote
)

func (k Kind) String() string {
	switch k {
	case KindDirect:
		return "direct"
	case KindRemote:
		return "remote"
	default:
		return "unknown"
	}
}

// CommandResult is the captured outcome of one command.
type CommandResult struct {
	Stdout   string
	Stderr   string
	Success  bool
	ExitCode int
}

// TrimmedStdout returns stdout without surrounding whitespace.
func (r CommandResult) TrimmedStdout() string {
	return strings.TrimSpace(r.Stdout)
}

// Backend runs commands against exactly one target.
//
// A non-zero exit status is reported through CommandResult, never as an
// error. RunCommand errors wrap ErrTransport.
type Backend interface {
	Kind() Kind
	RunCommand(cmd string) (CommandResult, error)
	Close() error
}

// FileFetcher is implemented by backends that can read a whole file from the
// target without going through a shell.
type FileFetcher interface {
	FetchFile(path string) ([]byte, error)
}
