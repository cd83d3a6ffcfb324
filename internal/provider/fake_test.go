package provider

import (
	"github.com/danmuck/edgeprobe/internal/backend"
)

// fakeBackend answers commands from a canned table and records every call.
// Unknown commands exit 127 like a shell would.
type fakeBackend struct {
	kind     backend.Kind
	results  map[string]backend.CommandResult
	err      error
	commands []string
}

func newRemote(results map[string]backend.CommandResult) *fakeBackend {
	return &fakeBackend{kind: backend.KindRemote, results: results}
}

func (f *fakeBackend) Kind() backend.Kind {
	return f.kind
}

func (f *fakeBackend) RunCommand(c string) (backend.CommandResult, error) {
	f.commands = append(f.commands, c)
	if f.err != nil {
		return backend.CommandResult{}, f.err
	}
	if res, ok := f.results[c]; ok {
		return res, nil
	}
	return backend.CommandResult{Stderr: "sh: not found\n", ExitCode: 127}, nil
}

func (f *fakeBackend) Close() error {
	return nil
}

// fetchingBackend also implements backend.FileFetcher.
type fetchingBackend struct {
	*fakeBackend
	files    map[string]string
	fetchErr error
}

func (f *fetchingBackend) FetchFile(path string) ([]byte, error) {
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	data, ok := f.files[path]
	if !ok {
		return nil, errNoFile
	}
	return []byte(data), nil
}

type fakeErr string

func (e fakeErr) Error() string { return string(e) }

const errNoFile = fakeErr("no such file")

func ok(stdout string) backend.CommandResult {
	return backend.CommandResult{Stdout: stdout, Success: true}
}

func failed(code int, stderr string) backend.CommandResult {
	return backend.CommandResult{Stderr: stderr, ExitCode: code}
}
