package provider

import (
	"fmt"
	"testing"

	"github.com/danmuck/edgeprobe/internal/backend"
	"github.com/danmuck/edgeprobe/internal/output"
	"github.com/danmuck/edgeprobe/internal/testutil/testlog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func linuxProvider() *FileProvider {
	return NewFileProvider(PosixFile{}, LinuxFile())
}

func bsdProvider() *FileProvider {
	return NewFileProvider(PosixFile{}, BSDFile())
}

func TestModeParsesOctal(t *testing.T) {
	testlog.Start(t)
	b := newRemote(map[string]backend.CommandResult{
		"stat -f%Lp /etc": ok("40755\n"),
	})

	out, err := Dispatch(b, bsdProvider().Mode("/etc"))
	require.NoError(t, err)
	m, err := out.AsInt32()
	require.NoError(t, err)
	assert.Equal(t, int32(16877), m)
	assert.Equal(t, []string{"stat -f%Lp /etc"}, b.commands)
}

func TestIsReadableByOwnerUsesModeMask(t *testing.T) {
	testlog.Start(t)
	cases := []struct {
		mode string
		want bool
	}{
		{mode: "644\n", want: true},
		{mode: "044\n", want: false},
	}
	for _, tc := range cases {
		b := newRemote(map[string]backend.CommandResult{
			"stat -c %a /srv/app.conf": ok(tc.mode),
		})
		out, err := Dispatch(b, linuxProvider().IsReadable("/srv/app.conf", Owner))
		require.NoError(t, err)
		got, err := out.AsBool()
		require.NoError(t, err)
		assert.Equal(t, tc.want, got, "mode=%q", tc.mode)
	}
}

func TestPermissionMasksPerWhom(t *testing.T) {
	testlog.Start(t)
	// rw- r-- ---
	b := newRemote(map[string]backend.CommandResult{
		"stat -c %a /f": ok("640\n"),
	})
	p := linuxProvider()
	cases := []struct {
		op   Operation
		want bool
	}{
		{op: p.IsReadable("/f", Group), want: true},
		{op: p.IsReadable("/f", Others), want: false},
		{op: p.IsReadable("/f", Anyone), want: true},
		{op: p.IsWritable("/f", Owner), want: true},
		{op: p.IsWritable("/f", Group), want: false},
		{op: p.IsExecutable("/f", Anyone), want: false},
	}
	for _, tc := range cases {
		out, err := Dispatch(b, tc.op)
		require.NoError(t, err, tc.op.String())
		got, err := out.AsBool()
		require.NoError(t, err)
		assert.Equal(t, tc.want, got, tc.op.String())
	}
}

func TestIsReadableByUserUsesImpersonatedProbe(t *testing.T) {
	testlog.Start(t)
	probe := `su -s /bin/sh -c "test -r /home/bob/notes" alice`
	for _, success := range []bool{true, false} {
		res := backend.CommandResult{Success: success}
		if !success {
			res.ExitCode = 1
		}
		b := newRemote(map[string]backend.CommandResult{
			probe:                        res,
			"stat -c %a /home/bob/notes": ok("777\n"),
		})
		out, err := Dispatch(b, linuxProvider().IsReadable("/home/bob/notes", User("alice")))
		require.NoError(t, err)
		got, err := out.AsBool()
		require.NoError(t, err)
		assert.Equal(t, success, got)
		assert.Equal(t, []string{probe}, b.commands)
	}
}

func TestIsWritableByUserProbe(t *testing.T) {
	testlog.Start(t)
	probe := `su -s /bin/sh -c "test -w /var/log" alice`
	b := newRemote(map[string]backend.CommandResult{probe: ok("")})
	out, err := Dispatch(b, bsdProvider().IsWritable("/var/log", User("alice")))
	require.NoError(t, err)
	assert.Equal(t, output.Bool(true), out)
}

func TestBSDDialectCommands(t *testing.T) {
	testlog.Start(t)
	p := bsdProvider()
	cases := []struct {
		op   Operation
		cmd  string
		out  string
		want output.Output
	}{
		{op: p.Mode("/f"), cmd: "stat -f%Lp /f", out: "644\n", want: output.Int32(0o644)},
		{op: p.Owner("/f"), cmd: "stat -f%Su /f", out: "root\n", want: output.Text("root")},
		{op: p.Group("/f"), cmd: "stat -f%Sg /f", out: "wheel\n", want: output.Text("wheel")},
		{op: p.Size("/f"), cmd: "stat -f%z /f", out: "1024\n", want: output.Int64(1024)},
		{op: p.MD5Sum("/f"), cmd: "md5 /f | awk '{print $4}'", out: "d41d8cd98f00b204e9800998ecf8427e\n", want: output.Text("d41d8cd98f00b204e9800998ecf8427e")},
		{op: p.SHA256Sum("/f"), cmd: "shasum -a 256 /f | awk '{print $1}'", out: "abc\n", want: output.Text("abc")},
		{op: p.IsFile("/f"), cmd: "test -f /f", out: "", want: output.Bool(true)},
		{op: p.IsSymlink("/f"), cmd: "test -L /f", out: "", want: output.Bool(true)},
		{op: p.LinkedTo("/f"), cmd: "readlink /f", out: "/target\n", want: output.Text("/target")},
	}
	for _, tc := range cases {
		b := newRemote(map[string]backend.CommandResult{tc.cmd: ok(tc.out)})
		got, err := Dispatch(b, tc.op)
		require.NoError(t, err, tc.cmd)
		assert.Equal(t, tc.want, got, tc.cmd)
		assert.Equal(t, []string{tc.cmd}, b.commands)
	}
}

func TestLinuxDialectCommands(t *testing.T) {
	testlog.Start(t)
	p := linuxProvider()
	cases := []struct {
		op  Operation
		cmd string
	}{
		{op: p.Exists("/f"), cmd: "test -e /f"},
		{op: p.IsDirectory("/f"), cmd: "test -d /f"},
		{op: p.IsBlockDevice("/f"), cmd: "test -b /f"},
		{op: p.IsCharacterDevice("/f"), cmd: "test -c /f"},
		{op: p.IsPipe("/f"), cmd: "test -p /f"},
		{op: p.IsSocket("/f"), cmd: "test -S /f"},
		{op: p.Owner("/f"), cmd: "stat -c %U /f"},
		{op: p.Group("/f"), cmd: "stat -c %G /f"},
		{op: p.MD5Sum("/f"), cmd: "md5sum /f | awk '{print $1}'"},
		{op: p.SHA256Sum("/f"), cmd: "sha256sum /f | awk '{print $1}'"},
	}
	for _, tc := range cases {
		b := newRemote(map[string]backend.CommandResult{tc.cmd: ok("x\n")})
		_, err := Dispatch(b, tc.op)
		require.NoError(t, err, tc.cmd)
		assert.Equal(t, []string{tc.cmd}, b.commands)
	}
}

func TestTestQueryFailureIsFalse(t *testing.T) {
	testlog.Start(t)
	b := newRemote(map[string]backend.CommandResult{"test -d /missing": failed(1, "")})
	out, err := Dispatch(b, linuxProvider().IsDirectory("/missing"))
	require.NoError(t, err)
	assert.Equal(t, output.Bool(false), out)
}

func TestValueQueryFailureIsCommandError(t *testing.T) {
	testlog.Start(t)
	b := newRemote(map[string]backend.CommandResult{
		"stat -c %U /missing": failed(1, "stat: cannot stat '/missing'\n"),
	})
	_, err := Dispatch(b, linuxProvider().Owner("/missing"))
	require.ErrorIs(t, err, ErrCommand)
	assert.Contains(t, err.Error(), "exit=1")
}

func TestNumericParseFailureIsCommandError(t *testing.T) {
	testlog.Start(t)
	b := newRemote(map[string]backend.CommandResult{
		"stat -c %a /f": ok("rwxr-xr-x\n"),
		"stat -c %s /f": ok("big\n"),
	})
	_, err := Dispatch(b, linuxProvider().Mode("/f"))
	assert.ErrorIs(t, err, ErrCommand)
	_, err = Dispatch(b, linuxProvider().Size("/f"))
	assert.ErrorIs(t, err, ErrCommand)
	_, err = Dispatch(b, linuxProvider().IsReadable("/f", Owner))
	assert.ErrorIs(t, err, ErrCommand)
}

func TestTransportErrorPropagates(t *testing.T) {
	testlog.Start(t)
	b := newRemote(nil)
	b.err = fmt.Errorf("%w: connection reset", backend.ErrTransport)
	_, err := Dispatch(b, linuxProvider().IsFile("/f"))
	assert.ErrorIs(t, err, backend.ErrTransport)
}

func TestContentPrefersFileFetcher(t *testing.T) {
	testlog.Start(t)
	b := &fetchingBackend{
		fakeBackend: newRemote(nil),
		files:       map[string]string{"/etc/motd": "hello\n"},
	}
	out, err := Dispatch(b, linuxProvider().Content("/etc/motd"))
	require.NoError(t, err)
	assert.Equal(t, output.Text("hello\n"), out)
	assert.Empty(t, b.commands)

	_, err = Dispatch(b, linuxProvider().Content("/nope"))
	assert.ErrorIs(t, err, ErrCommand)
}

func TestContentFallsBackToCat(t *testing.T) {
	testlog.Start(t)
	b := newRemote(map[string]backend.CommandResult{"cat /etc/motd": ok("hello\n")})
	out, err := Dispatch(b, linuxProvider().Content("/etc/motd"))
	require.NoError(t, err)
	assert.Equal(t, output.Text("hello\n"), out)
}

func TestContentFallsBackToCatWhenFetchTransportFails(t *testing.T) {
	testlog.Start(t)
	b := &fetchingBackend{
		fakeBackend: newRemote(map[string]backend.CommandResult{"cat /etc/motd": ok("hello\n")}),
		fetchErr:    fmt.Errorf("%w: sftp: ssh: subsystem request failed", backend.ErrTransport),
	}
	out, err := Dispatch(b, linuxProvider().Content("/etc/motd"))
	require.NoError(t, err)
	assert.Equal(t, output.Text("hello\n"), out)
	assert.Equal(t, []string{"cat /etc/motd"}, b.commands)

	_, err = Dispatch(b, linuxProvider().Content("/nope"))
	assert.ErrorIs(t, err, ErrCommand)
}

func TestBSDDerivationLeavesBaselineUntouched(t *testing.T) {
	testlog.Start(t)
	linux := LinuxFile()
	bsd := BSDFile()
	assert.Equal(t, "linux", linux.Name())
	assert.Equal(t, "bsd", bsd.Name())
	assert.Len(t, bsd.queries, len(linux.queries))

	b := newRemote(map[string]backend.CommandResult{"stat -c %a /f": ok("600\n")})
	out, err := linux.Run(b, Operation{Name: FileMode, Target: "/f"})
	require.NoError(t, err)
	assert.Equal(t, output.Int32(0o600), out)
}
