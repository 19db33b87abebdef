package def

import (
	"errors"
	"fmt"
)

// ErrSkipped matches any *SkipError
var ErrSkipped = errors.New("pin block skipped")

// InputError reports a DEF file that could not be read
type InputError struct {
	Path string
	Err  error
}

func (e *InputError) Error() string {
	return fmt.Sprintf("failed to read DEF file %s: %v", e.Path, e.Err)
}

func (e *InputError) Unwrap() error { return e.Err }

// SkipReason says why a candidate pin block produced no record
type SkipReason int

const (
	SkipNonTargetLayer SkipReason = iota + 1
	SkipMissingLayer
	SkipMissingPlaced
	SkipMissingDirection
	SkipMissingUse
	SkipUnterminated
	SkipMalformed
)

func (r SkipReason) String() string {
	switch r {
	case SkipNonTargetLayer:
		return "no geometry on target layer"
	case SkipMissingLayer:
		return "missing LAYER clause"
	case SkipMissingPlaced:
		return "missing PLACED clause"
	case SkipMissingDirection:
		return "missing DIRECTION clause"
	case SkipMissingUse:
		return "missing USE clause"
	case SkipUnterminated:
		return "block not terminated by ;"
	case SkipMalformed:
		return "malformed clause"
	default:
		return "unknown"
	}
}

// Skip records one dropped candidate block
type Skip struct {
	Name   string
	Line   int
	Reason SkipReason
	Detail string
}

func (s Skip) String() string {
	msg := fmt.Sprintf("line %d: pin %s: %s", s.Line, s.Name, s.Reason)
	if s.Detail != "" {
		msg += " (" + s.Detail + ")"
	}
	return msg
}

// SkipError is yielded instead of a skip in strict mode
type SkipError struct {
	Path string
	Skip Skip
}

func (e *SkipError) Error() string {
	if e.Path == "" {
		return e.Skip.String()
	}
	return e.Path + ":" + e.Skip.String()
}

func (e *SkipError) Is(target error) bool { return target == ErrSkipped }
