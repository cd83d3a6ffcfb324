package platform

import (
	"os"
	"slices"
	"strings"

	"github.com/danmuck/edgeprobe/internal/backend"
	"github.com/rs/zerolog/log"
	"golang.org/x/sys/unix"
)

const redHatReleasePath = "/etc/redhat-release"

// Candidate describes how one platform recognizes itself.
type Candidate struct {
	Kind Kind
	// Marker reads the marker on the local host.
	Marker func() (string, error)
	// Probe is the remote command printing the same marker.
	Probe string
	// Families restricts the first token; empty accepts any family.
	Families []string
	// ReleaseIndex is the token position of the release string.
	ReleaseIndex int
	// ReleaseAfter, when set and present, moves the release to the token
	// following this keyword.
	ReleaseAfter string
}

// RedHat matches /etc/redhat-release: family is the first token, release
// the token after "release" or else the fourth.
func RedHat() Candidate {
	return Candidate{
		Kind:         KindRedHat,
		Marker:       fileMarker(redHatReleasePath),
		Probe:        "cat " + redHatReleasePath,
		ReleaseIndex: 3,
		ReleaseAfter: "release",
	}
}

func FreeBSD() Candidate {
	return Candidate{
		Kind:         KindFreeBSD,
		Marker:       unameMarker,
		Probe:        "uname -sr",
		Families:     []string{"FreeBSD"},
		ReleaseIndex: 1,
	}
}

func Darwin() Candidate {
	return Candidate{
		Kind:         KindDarwin,
		Marker:       unameMarker,
		Probe:        "uname -sr",
		Families:     []string{"Darwin"},
		ReleaseIndex: 1,
	}
}

// DetectByRelease parses redhat-release content.
func DetectByRelease(contents string) (Platform, bool) {
	return RedHat().Parse(contents)
}

// Parse splits contents on whitespace and extracts family and release.
func (c Candidate) Parse(contents string) (Platform, bool) {
	fields := strings.Fields(contents)
	index := c.ReleaseIndex
	if c.ReleaseAfter != "" {
		if i := slices.Index(fields, c.ReleaseAfter); i > 0 {
			index = i + 1
		}
	}
	if len(fields) <= index {
		return Platform{}, false
	}
	family := fields[0]
	if len(c.Families) > 0 && !slices.Contains(c.Families, family) {
		return Platform{}, false
	}
	return Platform{Kind: c.Kind, Family: family, Release: fields[index]}, true
}

// DetectInline reads the local marker.
func (c Candidate) DetectInline() (Platform, bool) {
	contents, err := c.Marker()
	if err != nil {
		log.Debug().Str("candidate", c.Kind.String()).Err(err).Msg("local marker unavailable")
		return Platform{}, false
	}
	return c.Parse(contents)
}

// DetectShell runs the probe through b. Transport failures and non-zero
// exits are no-match.
func (c Candidate) DetectShell(b backend.Backend) (Platform, bool) {
	res, err := b.RunCommand(c.Probe)
	if err != nil {
		log.Debug().Str("candidate", c.Kind.String()).Err(err).Msg("remote probe failed")
		return Platform{}, false
	}
	if !res.Success {
		return Platform{}, false
	}
	return c.Parse(res.Stdout)
}

func fileMarker(path string) func() (string, error) {
	return func() (string, error) {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}
}

// unameMarker renders the local equivalent of `uname -sr`.
func unameMarker() (string, error) {
	var uts unix.Utsname
	if err := unix.Uname(&uts); err != nil {
		return "", err
	}
	return unix.ByteSliceToString(uts.Sysname[:]) + " " + unix.ByteSliceToString(uts.Release[:]), nil
}
