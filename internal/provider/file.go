package provider

import (
	"github.com/danmuck/edgeprobe/internal/backend"
	"github.com/danmuck/edgeprobe/internal/output"
)

// FileInline realizes file operations with local OS primitives.
type FileInline interface {
	Run(op Operation) (output.Output, error)
}

// FileShell realizes file operations by running dialect commands through a
// backend.
type FileShell interface {
	Run(b backend.Backend, op Operation) (output.Output, error)
}

// FileProvider binds one inline and one shell file strategy.
type FileProvider struct {
	Inline FileInline
	Shell  FileShell
}

func NewFileProvider(inline FileInline, shell FileShell) *FileProvider {
	return &FileProvider{Inline: inline, Shell: shell}
}

func (p *FileProvider) Exists(path string) Operation   { return p.op(FileExists, path, Anyone) }
func (p *FileProvider) IsFile(path string) Operation   { return p.op(FileIsFile, path, Anyone) }
func (p *FileProvider) IsPipe(path string) Operation   { return p.op(FileIsPipe, path, Anyone) }
func (p *FileProvider) Content(path string) Operation  { return p.op(FileContent, path, Anyone) }
func (p *FileProvider) Mode(path string) Operation     { return p.op(FileMode, path, Anyone) }
func (p *FileProvider) Owner(path string) Operation    { return p.op(FileOwner, path, Anyone) }
func (p *FileProvider) Group(path string) Operation    { return p.op(FileGroup, path, Anyone) }
func (p *FileProvider) Size(path string) Operation     { return p.op(FileSize, path, Anyone) }
func (p *FileProvider) MD5Sum(path string) Operation   { return p.op(FileMD5Sum, path, Anyone) }
func (p *FileProvider) IsSocket(path string) Operation { return p.op(FileIsSocket, path, Anyone) }

func (p *FileProvider) IsDirectory(path string) Operation {
	return p.op(FileIsDirectory, path, Anyone)
}

func (p *FileProvider) IsBlockDevice(path string) Operation {
	return p.op(FileIsBlockDevice, path, Anyone)
}

func (p *FileProvider) IsCharacterDevice(path string) Operation {
	return p.op(FileIsCharacterDevice, path, Anyone)
}

func (p *FileProvider) IsSymlink(path string) Operation {
	return p.op(FileIsSymlink, path, Anyone)
}

func (p *FileProvider) LinkedTo(path string) Operation {
	return p.op(FileLinkedTo, path, Anyone)
}

func (p *FileProvider) SHA256Sum(path string) Operation {
	return p.op(FileSHA256Sum, path, Anyone)
}

func (p *FileProvider) IsReadable(path string, whom Whom) Operation {
	return p.op(FileIsReadable, path, whom)
}

func (p *FileProvider) IsWritable(path string, whom Whom) Operation {
	return p.op(FileIsWritable, path, whom)
}

func (p *FileProvider) IsExecutable(path string, whom Whom) Operation {
	return p.op(FileIsExecutable, path, whom)
}

// Op builds an operation by name, for callers that select operations at
// runtime.
func (p *FileProvider) Op(name OpName, path string, whom Whom) Operation {
	return p.op(name, path, whom)
}

func (p *FileProvider) op(name OpName, path string, whom Whom) Operation {
	return Operation{Name: name, Target: path, Whom: whom, area: fileArea{p: p}}
}

type fileArea struct {
	p *FileProvider
}

func (a fileArea) inline(op Operation) (output.Output, error) {
	if a.p.Inline == nil || op.Name.Area() != "file" {
		return output.Output{}, notDefined(op, "inline")
	}
	return a.p.Inline.Run(op)
}

func (a fileArea) shell(b backend.Backend, op Operation) (output.Output, error) {
	if a.p.Shell == nil || op.Name.Area() != "file" {
		return output.Output{}, notDefined(op, "shell")
	}
	return a.p.Shell.Run(b, op)
}
