package platform

import (
	"errors"
	"fmt"
	"testing"

	"github.com/danmuck/edgeprobe/internal/backend"
	"github.com/danmuck/edgeprobe/internal/provider"
	"github.com/danmuck/edgeprobe/internal/testutil/testlog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type probeBackend struct {
	kind     backend.Kind
	results  map[string]backend.CommandResult
	err      error
	commands []string
}

func (p *probeBackend) Kind() backend.Kind { return p.kind }

func (p *probeBackend) RunCommand(c string) (backend.CommandResult, error) {
	p.commands = append(p.commands, c)
	if p.err != nil {
		return backend.CommandResult{}, p.err
	}
	if res, ok := p.results[c]; ok {
		return res, nil
	}
	return backend.CommandResult{Stderr: "No such file or directory\n", ExitCode: 1}, nil
}

func (p *probeBackend) Close() error { return nil }

func remote(results map[string]backend.CommandResult) *probeBackend {
	return &probeBackend{kind: backend.KindRemote, results: results}
}

func ok(stdout string) backend.CommandResult {
	return backend.CommandResult{Stdout: stdout, Success: true}
}

func TestDetectByRelease(t *testing.T) {
	testlog.Start(t)
	p, ok := DetectByRelease("CentOS Linux release 7.9.2009 (Core)")
	require.True(t, ok)
	assert.Equal(t, Platform{Kind: KindRedHat, Family: "CentOS", Release: "7.9.2009"}, p)

	p, ok = DetectByRelease("Fedora release 39 (Thirty Nine)\n")
	require.True(t, ok)
	assert.Equal(t, "Fedora", p.Family)
	assert.Equal(t, "39", p.Release)

	p, ok = DetectByRelease("CentOS release 6.5 (Final)")
	require.True(t, ok)
	assert.Equal(t, "6.5", p.Release)

	p, ok = DetectByRelease("Scientific Linux SL 7.2")
	require.True(t, ok)
	assert.Equal(t, "7.2", p.Release)

	for _, raw := range []string{"", "CentOS", "CentOS Linux", "CentOS Linux release"} {
		_, ok := DetectByRelease(raw)
		assert.False(t, ok, raw)
	}
}

func TestUnameCandidatesFilterFamily(t *testing.T) {
	testlog.Start(t)
	p, ok := FreeBSD().Parse("FreeBSD 14.0-RELEASE\n")
	require.True(t, ok)
	assert.Equal(t, Platform{Kind: KindFreeBSD, Family: "FreeBSD", Release: "14.0-RELEASE"}, p)

	_, ok = FreeBSD().Parse("Linux 6.1.0")
	assert.False(t, ok)

	p, ok = Darwin().Parse("Darwin 23.4.0")
	require.True(t, ok)
	assert.Equal(t, KindDarwin, p.Kind)
}

func TestRegistryDetectsRemoteInOrder(t *testing.T) {
	testlog.Start(t)
	b := remote(map[string]backend.CommandResult{
		"uname -sr": ok("FreeBSD 13.2-RELEASE\n"),
	})
	p, err := DefaultRegistry().Detect(b)
	require.NoError(t, err)
	assert.Equal(t, KindFreeBSD, p.Kind)
	assert.Equal(t, []string{"cat /etc/redhat-release", "uname -sr"}, b.commands)
}

func TestRegistryFirstMatchWins(t *testing.T) {
	testlog.Start(t)
	results := map[string]backend.CommandResult{
		"cat /etc/redhat-release": ok("Rocky Linux release 9.3 (Blue Onyx)\n"),
		"uname -sr":               ok("Darwin 23.4.0\n"),
	}
	for i := 0; i < 3; i++ {
		b := remote(results)
		p, err := DefaultRegistry().Detect(b)
		require.NoError(t, err)
		assert.Equal(t, Platform{Kind: KindRedHat, Family: "Rocky", Release: "9.3"}, p)
		assert.Equal(t, []string{"cat /etc/redhat-release"}, b.commands)
	}
}

func TestRegistryExhaustedIsUnknown(t *testing.T) {
	testlog.Start(t)
	b := remote(map[string]backend.CommandResult{"uname -sr": ok("Linux 6.8.0\n")})
	_, err := DefaultRegistry().Detect(b)
	assert.ErrorIs(t, err, ErrPlatformUnknown)
	assert.Len(t, b.commands, 3)

	failing := remote(nil)
	failing.err = fmt.Errorf("%w: broken pipe", backend.ErrTransport)
	_, err = DefaultRegistry().Detect(failing)
	assert.ErrorIs(t, err, ErrPlatformUnknown)
}

func TestRegistryDirectUsesLocalMarkers(t *testing.T) {
	testlog.Start(t)
	r := NewRegistry()
	require.NoError(t, r.Register(Candidate{
		Kind:         KindRedHat,
		Marker:       func() (string, error) { return "", errors.New("missing") },
		Probe:        "cat /etc/redhat-release",
		ReleaseIndex: 2,
	}))
	require.NoError(t, r.Register(Candidate{
		Kind:         KindDarwin,
		Marker:       func() (string, error) { return "Darwin 23.4.0", nil },
		Probe:        "uname -sr",
		Families:     []string{"Darwin"},
		ReleaseIndex: 1,
	}))

	b := &probeBackend{kind: backend.KindDirect}
	p, err := r.Detect(b)
	require.NoError(t, err)
	assert.Equal(t, KindDarwin, p.Kind)
	assert.Empty(t, b.commands)
}

func TestRegisterValidation(t *testing.T) {
	testlog.Start(t)
	r := NewRegistry()
	assert.ErrorIs(t, r.Register(Candidate{}), ErrInvalidCandidate)

	bad := RedHat()
	bad.Marker = nil
	assert.ErrorIs(t, r.Register(bad), ErrInvalidCandidate)

	bad = RedHat()
	bad.Probe = " "
	assert.ErrorIs(t, r.Register(bad), ErrInvalidCandidate)

	bad = RedHat()
	bad.ReleaseIndex = 0
	assert.ErrorIs(t, r.Register(bad), ErrInvalidCandidate)

	require.NoError(t, r.Register(RedHat()))
	assert.ErrorIs(t, r.Register(RedHat()), ErrCandidateExists)
	assert.Equal(t, []Kind{KindRedHat, KindFreeBSD, KindDarwin}, DefaultRegistry().Kinds())
}

func TestProvidersPerPlatform(t *testing.T) {
	testlog.Start(t)
	rh, err := Platform{Kind: KindRedHat}.Providers()
	require.NoError(t, err)
	assert.IsType(t, provider.PosixFile{}, rh.File.Inline)
	assert.Equal(t, "linux", rh.File.Shell.(*provider.FileDialect).Name())
	assert.IsType(t, provider.Systemctl{}, rh.Service.Shell)

	bsd, err := Platform{Kind: KindFreeBSD}.Providers()
	require.NoError(t, err)
	assert.Equal(t, "bsd", bsd.File.Shell.(*provider.FileDialect).Name())
	assert.Nil(t, bsd.Service.Inline)

	_, err = bsd.Service.Shell.Run(remote(nil), bsd.Service.IsRunning("sshd"))
	assert.ErrorIs(t, err, provider.ErrNotImplemented)

	_, err = Platform{}.Providers()
	assert.ErrorIs(t, err, ErrPlatformUnknown)
}
