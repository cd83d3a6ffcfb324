package provider

import (
	"errors"
	"fmt"
	"maps"
	"strconv"

	"github.com/danmuck/edgeprobe/internal/backend"
	"github.com/danmuck/edgeprobe/internal/output"
	"github.com/rs/zerolog/log"
)

// fileQuery realizes one operation for a dialect. d is the dialect the
// operation was dispatched on, so composed queries see its overrides.
type fileQuery func(d *FileDialect, b backend.Backend, op Operation) (output.Output, error)

// FileDialect is a shell file strategy: a table of command templates for one
// OS family.
type FileDialect struct {
	name    string
	queries map[OpName]fileQuery
}

// LinuxFile is the baseline POSIX dialect with GNU coreutils stat and
// checksum tools.
func LinuxFile() *FileDialect {
	return &FileDialect{
		name: "linux",
		queries: map[OpName]fileQuery{
			FileExists:            testQuery("-e"),
			FileIsFile:            testQuery("-f"),
			FileIsDirectory:       testQuery("-d"),
			FileIsBlockDevice:     testQuery("-b"),
			FileIsCharacterDevice: testQuery("-c"),
			FileIsPipe:            testQuery("-p"),
			FileIsSocket:          testQuery("-S"),
			FileIsSymlink:         testQuery("-L"),
			FileLinkedTo:          textQuery("readlink %s"),
			FileContent:           contentQuery,
			FileMode:              octalQuery("stat -c %%a %s"),
			FileOwner:             textQuery("stat -c %%U %s"),
			FileGroup:             textQuery("stat -c %%G %s"),
			FileSize:              sizeQuery("stat -c %%s %s"),
			FileMD5Sum:            textQuery("md5sum %s | awk '{print $1}'"),
			FileSHA256Sum:         textQuery("sha256sum %s | awk '{print $1}'"),
			FileIsReadable:        permissionQuery(accessRead),
			FileIsWritable:        permissionQuery(accessWrite),
			FileIsExecutable:      permissionQuery(accessExecute),
		},
	}
}

// BSDFile overrides metadata and checksum queries with BSD stat, md5 and
// shasum formats and delegates everything else to LinuxFile.
func BSDFile() *FileDialect {
	return LinuxFile().derive("bsd", map[OpName]fileQuery{
		FileMode:      octalQuery("stat -f%%Lp %s"),
		FileOwner:     textQuery("stat -f%%Su %s"),
		FileGroup:     textQuery("stat -f%%Sg %s"),
		FileSize:      sizeQuery("stat -f%%z %s"),
		FileMD5Sum:    textQuery("md5 %s | awk '{print $4}'"),
		FileSHA256Sum: textQuery("shasum -a 256 %s | awk '{print $1}'"),
	})
}

func (d *FileDialect) Name() string {
	return d.name
}

// Run executes op through b using this dialect.
func (d *FileDialect) Run(b backend.Backend, op Operation) (output.Output, error) {
	q, ok := d.queries[op.Name]
	if !ok {
		return output.Output{}, notDefined(op, d.name+" shell")
	}
	return q(d, b, op)
}

// derive copies the base table and applies overrides by name.
func (d *FileDialect) derive(name string, overrides map[OpName]fileQuery) *FileDialect {
	queries := make(map[OpName]fileQuery, len(d.queries)+len(overrides))
	maps.Copy(queries, d.queries)
	maps.Copy(queries, overrides)
	return &FileDialect{name: name, queries: queries}
}

func testQuery(flag string) fileQuery {
	return func(_ *FileDialect, b backend.Backend, op Operation) (output.Output, error) {
		res, err := b.RunCommand(fmt.Sprintf("test %s %s", flag, op.Target))
		if err != nil {
			return output.Output{}, err
		}
		return output.Bool(res.Success), nil
	}
}

func textQuery(format string) fileQuery {
	return func(_ *FileDialect, b backend.Backend, op Operation) (output.Output, error) {
		raw, err := runValue(b, fmt.Sprintf(format, op.Target))
		if err != nil {
			return output.Output{}, err
		}
		return output.Text(raw), nil
	}
}

func octalQuery(format string) fileQuery {
	return func(_ *FileDialect, b backend.Backend, op Operation) (output.Output, error) {
		cmd := fmt.Sprintf(format, op.Target)
		raw, err := runValue(b, cmd)
		if err != nil {
			return output.Output{}, err
		}
		m, err := strconv.ParseInt(raw, 8, 32)
		if err != nil {
			return output.Output{}, parseError(cmd, raw, err)
		}
		return output.Int32(int32(m)), nil
	}
}

func sizeQuery(format string) fileQuery {
	return func(_ *FileDialect, b backend.Backend, op Operation) (output.Output, error) {
		cmd := fmt.Sprintf(format, op.Target)
		raw, err := runValue(b, cmd)
		if err != nil {
			return output.Output{}, err
		}
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return output.Output{}, parseError(cmd, raw, err)
		}
		return output.Int64(n), nil
	}
}

// contentQuery prefers a backend file fetch and falls back to cat when the
// backend cannot fetch or the fetch transport is unavailable. Content is
// returned untrimmed.
func contentQuery(_ *FileDialect, b backend.Backend, op Operation) (output.Output, error) {
	if f, ok := b.(backend.FileFetcher); ok {
		data, err := f.FetchFile(op.Target)
		switch {
		case err == nil:
			return output.Text(string(data)), nil
		case errors.Is(err, backend.ErrTransport):
			log.Debug().Str("op", op.String()).Err(err).Msg("file fetch unavailable, using cat")
		default:
			return output.Output{}, fmt.Errorf("%w: fetch %s: %w", ErrCommand, op.Target, err)
		}
	}

	cmd := "cat " + op.Target
	res, err := b.RunCommand(cmd)
	if err != nil {
		return output.Output{}, err
	}
	if !res.Success {
		return output.Output{}, commandError(cmd, res)
	}
	return output.Text(res.Stdout), nil
}

// permissionQuery reads the dialect's mode for mask checks. For a named
// user it runs test(1) as that user and returns its success flag.
func permissionQuery(a access) fileQuery {
	return func(d *FileDialect, b backend.Backend, op Operation) (output.Output, error) {
		if op.Whom.Kind == WhomUser {
			cmd := fmt.Sprintf(`su -s /bin/sh -c "test %s %s" %s`, a.testFlag(), op.Target, op.Whom.Name)
			res, err := b.RunCommand(cmd)
			if err != nil {
				return output.Output{}, err
			}
			return output.Bool(res.Success), nil
		}

		mode, err := d.Run(b, Operation{Name: FileMode, Target: op.Target, area: op.area})
		if err != nil {
			return output.Output{}, err
		}
		m, err := mode.AsInt32()
		if err != nil {
			return output.Output{}, err
		}
		return output.Bool(uint32(m)&op.Whom.mask(a) != 0), nil
	}
}

// runValue runs cmd and returns trimmed stdout, failing on a non-zero exit.
func runValue(b backend.Backend, cmd string) (string, error) {
	res, err := b.RunCommand(cmd)
	if err != nil {
		return "", err
	}
	if !res.Success {
		return "", commandError(cmd, res)
	}
	return res.TrimmedStdout(), nil
}
