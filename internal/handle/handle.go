// Package handle owns the embedding boundary: opaque handles to hosts held
// on behalf of a foreign caller.
//
// A handle packs a slot index and a generation. Destroying a handle bumps
// the slot's generation, so stale or repeated handles are rejected instead of
// reaching a reused slot.
package handle

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/danmuck/edgeprobe/internal/backend"
	"github.com/danmuck/edgeprobe/internal/host"
	"github.com/rs/zerolog/log"
)

var (
	ErrInvalidHostname = errors.New("handle: invalid hostname")
	ErrStaleHandle     = errors.New("handle: stale or unknown handle")
)

// Handle is an opaque reference. Zero is never valid.
type Handle uint64

func (h Handle) slot() (int, uint32) {
	return int(uint32(h)) - 1, uint32(h >> 32)
}

func makeHandle(index int, gen uint32) Handle {
	return Handle(uint64(gen)<<32 | uint64(uint32(index+1)))
}

// Dialer opens a host for a validated hostname.
type Dialer func(hostname string) (*host.Host, error)

// DialSSH is the default dialer: port 22, agent identity.
func DialSSH(hostname string) (*host.Host, error) {
	return host.Dial(backend.SSHConfig{Host: hostname})
}

type slot struct {
	gen  uint32
	host *host.Host
}

// Table stores live hosts by handle. It is safe for concurrent use; the hosts
// it returns are not.
type Table struct {
	mu    sync.Mutex
	dial  Dialer
	slots []slot
	free  []int
}

func NewTable(dial Dialer) *Table {
	if dial == nil {
		dial = DialSSH
	}
	return &Table{dial: dial}
}

// ValidateHostname rejects empty names, invalid UTF-8 and names carrying NUL
// or whitespace.
func ValidateHostname(raw string) (string, error) {
	if !utf8.ValidString(raw) {
		return "", fmt.Errorf("%w: not valid UTF-8: %q", ErrInvalidHostname, raw)
	}
	name := strings.TrimSpace(raw)
	if name == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidHostname)
	}
	if strings.ContainsFunc(name, func(r rune) bool {
		return r == 0 || r == ' ' || r == '\t' || r == '\n' || r == '\r'
	}) {
		return "", fmt.Errorf("%w: %q", ErrInvalidHostname, raw)
	}
	return name, nil
}

// Create dials hostname and returns a handle owning the connection.
func (t *Table) Create(hostname string) (Handle, error) {
	name, err := ValidateHostname(hostname)
	if err != nil {
		return 0, err
	}
	h, err := t.dial(name)
	if err != nil {
		return 0, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	var index int
	if n := len(t.free); n > 0 {
		index = t.free[n-1]
		t.free = t.free[:n-1]
	} else {
		index = len(t.slots)
		t.slots = append(t.slots, slot{gen: 1})
	}
	t.slots[index].host = h
	handle := makeHandle(index, t.slots[index].gen)
	log.Debug().Str("host", name).Uint64("handle", uint64(handle)).Msg("handle created")
	return handle, nil
}

// Get returns the host behind h.
func (t *Table) Get(h Handle) (*host.Host, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	s, err := t.lookup(h)
	if err != nil {
		return nil, err
	}
	return s.host, nil
}

// Destroy closes the host behind h. A second Destroy of the same handle
// returns ErrStaleHandle.
func (t *Table) Destroy(h Handle) error {
	t.mu.Lock()
	s, err := t.lookup(h)
	if err != nil {
		t.mu.Unlock()
		return err
	}
	target := s.host
	index, _ := h.slot()
	s.host = nil
	s.gen++
	if s.gen == 0 {
		s.gen = 1
	}
	t.free = append(t.free, index)
	t.mu.Unlock()

	log.Debug().Str("host", target.Name()).Uint64("handle", uint64(h)).Msg("handle destroyed")
	return target.Close()
}

// Len reports live handles.
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.slots) - len(t.free)
}

func (t *Table) lookup(h Handle) (*slot, error) {
	index, gen := h.slot()
	if index < 0 || index >= len(t.slots) {
		return nil, fmt.Errorf("%w: %#x", ErrStaleHandle, uint64(h))
	}
	s := &t.slots[index]
	if s.host == nil || s.gen != gen {
		return nil, fmt.Errorf("%w: %#x", ErrStaleHandle, uint64(h))
	}
	return s, nil
}
