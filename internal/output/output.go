// Package output owns the typed result value returned by provider operations.
package output

import (
	"errors"
	"fmt"
	"strconv"
)

var ErrTypeMismatch = errors.New("output: type mismatch")

// Kind tags the variant stored in an Output.
type Kind uint8

const (
	KindNone Kind = iota
	KindBool
	KindInt32
	KindInt64
	KindText
)

func (k Kind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindInt32:
		return "int32"
	case KindInt64:
		return "int64"
	case KindText:
		return "text"
	default:
		return "none"
	}
}

// Output is an immutable tagged union over bool, int32, int64 and text.
type Output struct {
	kind Kind
	b    bool
	n    int64
	s    string
}

func Bool(v bool) Output { return Output{kind: KindBool, b: v} }

func Int32(v int32) Output { return Output{kind: KindInt32, n: int64(v)} }

func Int64(v int64) Output { return Output{kind: KindInt64, n: v} }

func Text(v string) Output { return Output{kind: KindText, s: v} }

// Kind reports the stored variant.
func (o Output) Kind() Kind {
	return o.kind
}

func (o Output) AsBool() (bool, error) {
	if err := o.expect(KindBool); err != nil {
		return false, err
	}
	return o.b, nil
}

func (o Output) AsInt32() (int32, error) {
	if err := o.expect(KindInt32); err != nil {
		return 0, err
	}
	return int32(o.n), nil
}

func (o Output) AsInt64() (int64, error) {
	if err := o.expect(KindInt64); err != nil {
		return 0, err
	}
	return o.n, nil
}

func (o Output) AsText() (string, error) {
	if err := o.expect(KindText); err != nil {
		return "", err
	}
	return o.s, nil
}

// Value returns the stored value as a plain Go value, or nil for KindNone.
func (o Output) Value() any {
	switch o.kind {
	case KindBool:
		return o.b
	case KindInt32:
		return int32(o.n)
	case KindInt64:
		return o.n
	case KindText:
		return o.s
	default:
		return nil
	}
}

func (o Output) String() string {
	switch o.kind {
	case KindBool:
		return strconv.FormatBool(o.b)
	case KindInt32, KindInt64:
		return strconv.FormatInt(o.n, 10)
	case KindText:
		return o.s
	default:
		return ""
	}
}

func (o Output) expect(want Kind) error {
	if o.kind != want {
		return fmt.Errorf("%w: want=%s got=%s", ErrTypeMismatch, want, o.kind)
	}
	return nil
}
