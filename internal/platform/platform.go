package platform

import (
	"errors"
	"fmt"

	"github.com/danmuck/edgeprobe/internal/provider"
)

var ErrPlatformUnknown = errors.New("platform: unknown")

// Kind is the closed set of supported platform families.
type Kind int

const (
	KindUnknown Kind = iota
	KindRedHat
	KindFreeBSD
	KindDarwin
)

func (k Kind) String() string {
	switch k {
	case KindRedHat:
		return "redhat"
	case KindFreeBSD:
		return "freebsd"
	case KindDarwin:
		return "darwin"
	default:
		return "unknown"
	}
}

func (k Kind) MarshalYAML() (any, error) {
	return k.String(), nil
}

// Platform is one detection result. It is a plain value and is never cached.
type Platform struct {
	Kind    Kind   `yaml:"kind"`
	Family  string `yaml:"family"`
	Release string `yaml:"release"`
}

func (p Platform) String() string {
	return fmt.Sprintf("%s %s (%s)", p.Family, p.Release, p.Kind)
}

// Providers returns a fresh provider set for p's kind.
func (p Platform) Providers() (*provider.Providers, error) {
	switch p.Kind {
	case KindRedHat:
		return &provider.Providers{
			File:    provider.NewFileProvider(provider.PosixFile{}, provider.LinuxFile()),
			Service: provider.NewServiceProvider(provider.Systemd{}, provider.Systemctl{}),
		}, nil
	case KindFreeBSD, KindDarwin:
		return &provider.Providers{
			File:    provider.NewFileProvider(provider.PosixFile{}, provider.BSDFile()),
			Service: provider.NewServiceProvider(nil, provider.NullService{Platform: p.Kind.String()}),
		}, nil
	default:
		return nil, fmt.Errorf("%w: no providers for kind=%s", ErrPlatformUnknown, p.Kind)
	}
}
