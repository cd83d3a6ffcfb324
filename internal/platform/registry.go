package platform

import (
	"errors"
	"fmt"
	"strings"

	"github.com/danmuck/edgeprobe/internal/backend"
	"github.com/rs/zerolog/log"
)

var (
	ErrCandidateExists  = errors.New("platform: candidate already registered")
	ErrInvalidCandidate = errors.New("platform: invalid candidate")
)

// Registry is the ordered list of candidates tried during detection.
type Registry struct {
	items []Candidate
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// DefaultRegistry returns RedHat, FreeBSD, Darwin in that order.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	for _, c := range []Candidate{RedHat(), FreeBSD(), Darwin()} {
		if err := r.Register(c); err != nil {
			panic(err)
		}
	}
	return r
}

// ValidateCandidate checks the fields detection depends on.
func ValidateCandidate(c Candidate) error {
	if c.Kind == KindUnknown {
		return fmt.Errorf("%w: kind is required", ErrInvalidCandidate)
	}
	if c.Marker == nil {
		return fmt.Errorf("%w: kind=%s missing local marker", ErrInvalidCandidate, c.Kind)
	}
	if strings.TrimSpace(c.Probe) == "" {
		return fmt.Errorf("%w: kind=%s missing remote probe", ErrInvalidCandidate, c.Kind)
	}
	if c.ReleaseIndex < 1 {
		return fmt.Errorf("%w: kind=%s release index must follow the family token", ErrInvalidCandidate, c.Kind)
	}
	return nil
}

// Register appends c. Registration order is detection order.
func (r *Registry) Register(c Candidate) error {
	if err := ValidateCandidate(c); err != nil {
		return err
	}
	for _, existing := range r.items {
		if existing.Kind == c.Kind {
			return fmt.Errorf("%w: %s", ErrCandidateExists, c.Kind)
		}
	}
	r.items = append(r.items, c)
	return nil
}

// Kinds returns candidate kinds in detection order.
func (r *Registry) Kinds() []Kind {
	out := make([]Kind, 0, len(r.items))
	for _, c := range r.items {
		out = append(out, c.Kind)
	}
	return out
}

// Detect tries each candidate against b in order. Direct backends read local
// markers; remote backends run probes. Exhaustion is ErrPlatformUnknown.
func (r *Registry) Detect(b backend.Backend) (Platform, error) {
	for _, c := range r.items {
		var p Platform
		var ok bool
		if b.Kind() == backend.KindDirect {
			p, ok = c.DetectInline()
		} else {
			p, ok = c.DetectShell(b)
		}
		if ok {
			log.Debug().Str("kind", p.Kind.String()).Str("family", p.Family).Str("release", p.Release).Msg("platform detected")
			return p, nil
		}
	}
	return Platform{}, fmt.Errorf("%w: %d candidates tried", ErrPlatformUnknown, len(r.items))
}
