// Package host binds one backend to platform detection and provider
// dispatch. A Host addresses exactly one target and is not safe for
// concurrent use.
package host

import (
	"strings"
	"time"

	"github.com/danmuck/edgeprobe/internal/backend"
	"github.com/danmuck/edgeprobe/internal/observability"
	"github.com/danmuck/edgeprobe/internal/output"
	"github.com/danmuck/edgeprobe/internal/platform"
	"github.com/danmuck/edgeprobe/internal/provider"
	"github.com/rs/zerolog/log"
)

type Host struct {
	name     string
	backend  backend.Backend
	registry *platform.Registry
}

type Option func(*Host)

// WithRegistry replaces the default platform registry.
func WithRegistry(r *platform.Registry) Option {
	return func(h *Host) {
		h.registry = r
	}
}

// WithName labels the host in logs.
func WithName(name string) Option {
	return func(h *Host) {
		h.name = strings.TrimSpace(name)
	}
}

// New takes ownership of b; Close releases it.
func New(b backend.Backend, opts ...Option) *Host {
	h := &Host{backend: b, registry: platform.DefaultRegistry()}
	for _, opt := range opts {
		opt(h)
	}
	if h.name == "" {
		h.name = b.Kind().String()
	}
	return h
}

// Local builds a host over the direct backend.
func Local(opts ...Option) *Host {
	return New(backend.NewDirect(), append([]Option{WithName("localhost")}, opts...)...)
}

// Dial builds a host over a new SSH session.
func Dial(cfg backend.SSHConfig, opts ...Option) (*Host, error) {
	b, err := backend.DialSSH(cfg)
	if err != nil {
		return nil, err
	}
	return New(b, append([]Option{WithName(cfg.Host)}, opts...)...), nil
}

func (h *Host) Name() string {
	return h.name
}

func (h *Host) Backend() backend.Backend {
	return h.backend
}

// DetectPlatform runs the registry against this host's backend.
func (h *Host) DetectPlatform() (platform.Platform, error) {
	log.Debug().Str("host", h.name).Str("backend", h.backend.Kind().String()).Msg("detecting platform")
	p, err := h.registry.Detect(h.backend)
	observability.RecordDetection(h.name, p.Kind.String())
	return p, err
}

// Providers detects the platform and returns its providers.
func (h *Host) Providers() (*provider.Providers, error) {
	p, err := h.DetectPlatform()
	if err != nil {
		return nil, err
	}
	return p.Providers()
}

// Dispatch runs op with the strategy matching this host's backend kind.
func (h *Host) Dispatch(op provider.Operation) (output.Output, error) {
	start := time.Now()
	out, err := provider.Dispatch(h.backend, op)
	observability.RecordOperation(h.name, string(op.Name), strategy(h.backend.Kind()), time.Since(start), err == nil)
	if err != nil {
		log.Debug().Str("host", h.name).Str("op", op.String()).Err(err).Msg("dispatch failed")
		return output.Output{}, err
	}
	log.Debug().Str("host", h.name).Str("op", op.String()).Str("result", out.String()).Msg("dispatch")
	return out, nil
}

func strategy(k backend.Kind) string {
	if k == backend.KindDirect {
		return "inline"
	}
	return "shell"
}

func (h *Host) RunCommand(cmd string) (backend.CommandResult, error) {
	return h.backend.RunCommand(cmd)
}

func (h *Host) Close() error {
	return h.backend.Close()
}
