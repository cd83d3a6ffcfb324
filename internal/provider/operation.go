package provider

import (
	"fmt"
	"strings"

	"github.com/danmuck/edgeprobe/internal/backend"
	"github.com/danmuck/edgeprobe/internal/output"
)

// OpName is the stable name of one provider operation.
type OpName string

const (
	FileExists            OpName = "file.exists"
	FileIsFile            OpName = "file.is_file"
	FileIsDirectory       OpName = "file.is_directory"
	FileIsBlockDevice     OpName = "file.is_block_device"
	FileIsCharacterDevice OpName = "file.is_character_device"
	FileIsPipe            OpName = "file.is_pipe"
	FileIsSocket          OpName = "file.is_socket"
	FileIsSymlink         OpName = "file.is_symlink"
	FileLinkedTo          OpName = "file.linked_to"
	FileContent           OpName = "file.content"
	FileMode              OpName = "file.mode"
	FileOwner             OpName = "file.owner"
	FileGroup             OpName = "file.group"
	FileSize              OpName = "file.size"
	FileMD5Sum            OpName = "file.md5sum"
	FileSHA256Sum         OpName = "file.sha256sum"
	FileIsReadable        OpName = "file.is_readable"
	FileIsWritable        OpName = "file.is_writable"
	FileIsExecutable      OpName = "file.is_executable"

	ServiceIsRunning OpName = "service.is_running"
	ServiceIsEnabled OpName = "service.is_enabled"
	ServiceEnable    OpName = "service.enable"
	ServiceDisable   OpName = "service.disable"
)

// Area returns the capability area prefix of the name.
func (n OpName) Area() string {
	area, _, _ := strings.Cut(string(n), ".")
	return area
}

// Operation is a dispatch descriptor: one operation, its parameters, and the
// strategy pair of the provider that built it.
type Operation struct {
	Name OpName
	// Target is a file path or service name.
	Target string
	Whom   Whom

	area area
}

func (op Operation) String() string {
	if op.Whom.Kind != WhomAny {
		return fmt.Sprintf("%s(%s, %s)", op.Name, op.Target, op.Whom)
	}
	return fmt.Sprintf("%s(%s)", op.Name, op.Target)
}

// area resolves an operation against either strategy of one provider.
type area interface {
	inline(op Operation) (output.Output, error)
	shell(b backend.Backend, op Operation) (output.Output, error)
}

// Dispatch runs op with the strategy matching b's kind: inline for direct
// backends, shell for remote ones.
func Dispatch(b backend.Backend, op Operation) (output.Output, error) {
	if op.area == nil {
		return output.Output{}, fmt.Errorf("%w: %s was not built by a provider", ErrStrategyNotDefined, op.Name)
	}
	switch b.Kind() {
	case backend.KindDirect:
		return op.area.inline(op)
	case backend.KindRemote:
		return op.area.shell(b, op)
	default:
		return output.Output{}, notDefined(op, b.Kind().String())
	}
}
