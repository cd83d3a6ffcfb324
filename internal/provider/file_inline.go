package provider

import (
	"crypto/md5"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"os"
	"os/user"
	"slices"
	"strconv"

	"github.com/danmuck/edgeprobe/internal/output"
	"golang.org/x/sys/unix"
)

// PosixFile is the inline file strategy for unix hosts.
type PosixFile struct{}

func (PosixFile) Run(op Operation) (output.Output, error) {
	path := op.Target
	switch op.Name {
	case FileExists:
		_, err := stat(path, true)
		return output.Bool(err == nil), nil
	case FileIsFile:
		return isType(path, true, unix.S_IFREG), nil
	case FileIsDirectory:
		return isType(path, true, unix.S_IFDIR), nil
	case FileIsBlockDevice:
		return isType(path, true, unix.S_IFBLK), nil
	case FileIsCharacterDevice:
		return isType(path, true, unix.S_IFCHR), nil
	case FileIsPipe:
		return isType(path, true, unix.S_IFIFO), nil
	case FileIsSocket:
		return isType(path, true, unix.S_IFSOCK), nil
	case FileIsSymlink:
		return isType(path, false, unix.S_IFLNK), nil
	case FileLinkedTo:
		target, err := os.Readlink(path)
		if err != nil {
			return output.Output{}, inlineError(op, err)
		}
		return output.Text(target), nil
	case FileContent:
		data, err := os.ReadFile(path)
		if err != nil {
			return output.Output{}, inlineError(op, err)
		}
		return output.Text(string(data)), nil
	case FileMode:
		st, err := stat(path, true)
		if err != nil {
			return output.Output{}, inlineError(op, err)
		}
		return output.Int32(int32(uint32(st.Mode) & 0o7777)), nil
	case FileOwner:
		st, err := stat(path, true)
		if err != nil {
			return output.Output{}, inlineError(op, err)
		}
		u, err := user.LookupId(strconv.FormatUint(uint64(st.Uid), 10))
		if err != nil {
			return output.Output{}, inlineError(op, err)
		}
		return output.Text(u.Username), nil
	case FileGroup:
		st, err := stat(path, true)
		if err != nil {
			return output.Output{}, inlineError(op, err)
		}
		g, err := user.LookupGroupId(strconv.FormatUint(uint64(st.Gid), 10))
		if err != nil {
			return output.Output{}, inlineError(op, err)
		}
		return output.Text(g.Name), nil
	case FileSize:
		st, err := stat(path, true)
		if err != nil {
			return output.Output{}, inlineError(op, err)
		}
		return output.Int64(st.Size), nil
	case FileMD5Sum:
		return hashFile(op, md5.New())
	case FileSHA256Sum:
		return hashFile(op, sha256.New())
	case FileIsReadable:
		return inlinePermission(op, accessRead)
	case FileIsWritable:
		return inlinePermission(op, accessWrite)
	case FileIsExecutable:
		return inlinePermission(op, accessExecute)
	default:
		return output.Output{}, notDefined(op, "posix inline")
	}
}

func stat(path string, follow bool) (unix.Stat_t, error) {
	var st unix.Stat_t
	var err error
	if follow {
		err = unix.Stat(path, &st)
	} else {
		err = unix.Lstat(path, &st)
	}
	return st, err
}

// isType reports false for missing paths, matching test(1).
func isType(path string, follow bool, want uint32) output.Output {
	st, err := stat(path, follow)
	if err != nil {
		return output.Bool(false)
	}
	return output.Bool(uint32(st.Mode)&unix.S_IFMT == want)
}

func hashFile(op Operation, h hash.Hash) (output.Output, error) {
	f, err := os.Open(op.Target)
	if err != nil {
		return output.Output{}, inlineError(op, err)
	}
	defer f.Close()
	if _, err := io.Copy(h, f); err != nil {
		return output.Output{}, inlineError(op, err)
	}
	return output.Text(hex.EncodeToString(h.Sum(nil))), nil
}

func inlinePermission(op Operation, a access) (output.Output, error) {
	st, err := stat(op.Target, true)
	if err != nil {
		return output.Output{}, inlineError(op, err)
	}
	mode := uint32(st.Mode) & 0o7777
	if op.Whom.Kind != WhomUser {
		return output.Bool(mode&op.Whom.mask(a) != 0), nil
	}

	u, err := user.Lookup(op.Whom.Name)
	if err != nil {
		return output.Output{}, inlineError(op, err)
	}
	if u.Uid == "0" {
		// root bypasses read/write bits; execute needs at least one x bit.
		if a == accessExecute {
			return output.Bool(mode&0o111 != 0), nil
		}
		return output.Bool(true), nil
	}

	var bits uint32
	switch {
	case u.Uid == strconv.FormatUint(uint64(st.Uid), 10):
		bits = Owner.mask(a)
	case inGroup(u, st.Gid):
		bits = Group.mask(a)
	default:
		bits = Others.mask(a)
	}
	return output.Bool(mode&bits != 0), nil
}

func inGroup(u *user.User, gid uint32) bool {
	want := strconv.FormatUint(uint64(gid), 10)
	if u.Gid == want {
		return true
	}
	ids, err := u.GroupIds()
	if err != nil {
		return false
	}
	return slices.Contains(ids, want)
}

// inlineError wraps local failures in ErrCommand, matching what the shell
// strategies return for the same failed operation. The OS error stays
// reachable through errors.Is.
func inlineError(op Operation, err error) error {
	return fmt.Errorf("%w: %s %s: %w", ErrCommand, op.Name, op.Target, err)
}
