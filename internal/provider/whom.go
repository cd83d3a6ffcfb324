package provider

import (
	"fmt"
	"strings"
)

// WhomKind selects whose permission bits a check reads.
type WhomKind int

const (
	WhomAny WhomKind = iota
	WhomOwner
	WhomGroup
	WhomOthers
	WhomUser
)

// Whom is the target of a permission check. The zero value means anyone.
type Whom struct {
	Kind WhomKind
	Name string
}

var (
	Anyone = Whom{Kind: WhomAny}
	Owner  = Whom{Kind: WhomOwner}
	Group  = Whom{Kind: WhomGroup}
	Others = Whom{Kind: WhomOthers}
)

// User targets a named account. Checks for it run as that user instead of
// reading mode bits.
func User(name string) Whom {
	return Whom{Kind: WhomUser, Name: name}
}

// ParseWhom accepts "", "any", "owner", "group", "others" and "user:NAME".
func ParseWhom(raw string) (Whom, error) {
	raw = strings.TrimSpace(raw)
	switch strings.ToLower(raw) {
	case "", "any":
		return Anyone, nil
	case "owner":
		return Owner, nil
	case "group":
		return Group, nil
	case "others", "other":
		return Others, nil
	}
	if name, ok := strings.CutPrefix(raw, "user:"); ok && strings.TrimSpace(name) != "" {
		return User(strings.TrimSpace(name)), nil
	}
	return Whom{}, fmt.Errorf("invalid whom %q", raw)
}

func (w Whom) String() string {
	switch w.Kind {
	case WhomOwner:
		return "owner"
	case WhomGroup:
		return "group"
	case WhomOthers:
		return "others"
	case WhomUser:
		return "user:" + w.Name
	default:
		return "any"
	}
}

type access int

const (
	accessRead access = iota
	accessWrite
	accessExecute
)

// testFlag is the test(1) flag for the access kind.
func (a access) testFlag() string {
	switch a {
	case accessWrite:
		return "-w"
	case accessExecute:
		return "-x"
	default:
		return "-r"
	}
}

// mask returns the permission bits checked for w. WhomUser has no mask.
func (w Whom) mask(a access) uint32 {
	var owner, group, others uint32
	switch a {
	case accessWrite:
		owner, group, others = 0o200, 0o020, 0o002
	case accessExecute:
		owner, group, others = 0o100, 0o010, 0o001
	default:
		owner, group, others = 0o400, 0o040, 0o004
	}
	switch w.Kind {
	case WhomOwner:
		return owner
	case WhomGroup:
		return group
	case WhomOthers:
		return others
	case WhomUser:
		return 0
	default:
		return owner | group | others
	}
}
