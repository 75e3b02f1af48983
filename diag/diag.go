// Package diag implements the error taxonomy of the translation core: every
// fallible operation returns a *diag.Error built from one of the fixed Kinds
// instead of an ad-hoc error string, so callers can branch on Kind the way
// the rest of the pipeline's propagation policy requires.
package diag

import (
	"fmt"

	"github.com/kr/pretty"
	"github.com/pkg/errors"
)

// Kind is one of the distinct error kinds of the taxonomy. It is not a Go
// type hierarchy (there is exactly one Error type) because the pipeline only
// ever needs to branch on Kind, never on payload shape.
type Kind int

const (
	// InvalidParameter is a contract breach by the caller of an API.
	InvalidParameter Kind = iota
	// InternalError is an invariant violation inside the core itself.
	InternalError
	// OutOfMemory signals an allocator failure.
	OutOfMemory
	// OutOfBounds is a bitset/graph/hashtree range violation.
	OutOfBounds
	// NotFound is a missing-key lookup failure.
	NotFound
	// AlreadyExists is a duplicate-key insertion failure.
	AlreadyExists
	// IteratorEnd is a sentinel, not a failure; callers must not surface it
	// as a diagnostic.
	IteratorEnd
	// AnalysisError is a language-rule violation in the user's C source.
	AnalysisError
	// StaticAssert is a failed _Static_assert; it carries the literal
	// string-literal diagnostic text in Error.Message.
	StaticAssert
	// SourceError is an AnalysisError that additionally carries a source
	// Location.
	SourceError
)

func (k Kind) String() string {
	switch k {
	case InvalidParameter:
		return "invalid-parameter"
	case InternalError:
		return "internal-error"
	case OutOfMemory:
		return "out-of-memory"
	case OutOfBounds:
		return "out-of-bounds"
	case NotFound:
		return "not-found"
	case AlreadyExists:
		return "already-exists"
	case IteratorEnd:
		return "iterator-end"
	case AnalysisError:
		return "analysis-error"
	case StaticAssert:
		return "static-assert"
	case SourceError:
		return "source-error"
	default:
		return fmt.Sprintf("diag.Kind(%d)", int(k))
	}
}

// Fatal reports whether an error of this kind aborts compilation without
// recovery, per §7's propagation policy.
func (k Kind) Fatal() bool {
	return k == InternalError || k == OutOfMemory
}

// Location is a source position, supplied by the (out of scope) lexer/parser
// and threaded through every diagnostic that needs one.
type Location struct {
	File   string
	Line   int
	Column int
}

func (l Location) String() string {
	if l.File == "" {
		return "<unknown>"
	}
	return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Column)
}

// Error is the single error type produced by the core. Its cause is built
// with github.com/pkg/errors and so carries a stack trace (see DebugString).
// Error has no Cause or Format method: pkg/errors' Cause stops at the
// *Error, and %+v prints the same text as Error().
type Error struct {
	Kind     Kind
	Location Location
	Message  string
	cause    error
}

func (e *Error) Error() string {
	if e.Location.File != "" {
		return fmt.Sprintf("%s: %s: %s", e.Location, e.Kind, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap exposes the wrapped cause to errors.Is/errors.As.
func (e *Error) Unwrap() error { return e.cause }

// DebugString renders the error with its full cause chain using
// github.com/kr/pretty, the way the teacher's ll.go pretty-prints an
// unimplemented operand before panicking.
func (e *Error) DebugString() string {
	return fmt.Sprintf("%s\n%s", e.Error(), pretty.Sprint(e.cause))
}

// New builds an Error of the given kind with a formatted message.
func New(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), cause: errors.New(fmt.Sprintf(format, args...))}
}

// At builds a SourceError/AnalysisError-style Error carrying a Location.
func At(kind Kind, loc Location, format string, args ...interface{}) *Error {
	msg := fmt.Sprintf(format, args...)
	return &Error{Kind: kind, Location: loc, Message: msg, cause: errors.New(msg)}
}

// Wrap attaches a Kind and a stack trace to an existing error, mirroring
// errors.WithStack at a propagation boundary.
func Wrap(kind Kind, cause error, format string, args ...interface{}) *Error {
	msg := fmt.Sprintf(format, args...)
	return &Error{Kind: kind, Message: msg, cause: errors.WithStack(cause)}
}

// StaticAssertFailure builds the distinct fatal-but-recoverable kind for a
// failed _Static_assert, carrying the assertion's string-literal text.
func StaticAssertFailure(loc Location, literal string) *Error {
	return &Error{Kind: StaticAssert, Location: loc, Message: literal, cause: errors.Errorf("static assertion failed: %q", literal)}
}

// Result is a value-or-error pair for call sites that want to avoid Go's
// (T, error) boilerplate when threading results through a pipeline stage,
// matching the out-parameter result style of §4 translated to Go idiom.
type Result[T any] struct {
	Value T
	Err   error
}

// Ok builds a successful Result.
func Ok[T any](v T) Result[T] { return Result[T]{Value: v} }

// Fail builds a failed Result.
func Fail[T any](err error) Result[T] { return Result[T]{Err: err} }

// IsOK reports whether the Result carries no error.
func (r Result[T]) IsOK() bool { return r.Err == nil }

// Must panics on error; reserved for call sites the caller has already
// proven cannot fail (e.g. after a successful type-check).
func (r Result[T]) Must() T {
	if r.Err != nil {
		panic(r.Err)
	}
	return r.Value
}

// KindOf extracts the Kind from any error produced by this package, or
// InternalError if err is not a *Error (an invariant violation by whatever
// produced it).
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return InternalError
}
