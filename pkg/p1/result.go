// Package p1 parses DSMR P1 telegrams into a caller-declared set of
// typed fields. One Parse call processes one fully buffered telegram:
// framing markers, CRC16 verification, identification line, and
// per-line OBIS dispatch into the declared fields. The engine never
// allocates while parsing; string values land in fixed-capacity
// buffers.
package p1

import "fmt"

// Kind classifies a parse failure.
type Kind uint8

const (
	KindFraming Kind = iota
	KindChecksum
	KindIdentification
	KindIdentifier
	KindFieldValue
	KindTrailingData
	KindTermination
)

func (k Kind) String() string {
	switch k {
	case KindFraming:
		return "framing"
	case KindChecksum:
		return "checksum"
	case KindIdentification:
		return "identification"
	case KindIdentifier:
		return "identifier"
	case KindFieldValue:
		return "field value"
	case KindTrailingData:
		return "trailing data"
	case KindTermination:
		return "termination"
	}
	return "unknown"
}

// ParseError is a parse failure with its position in the original
// buffer. The first error aborts the whole parse; a failed parse means
// the aggregate's contents must not be trusted.
type ParseError struct {
	Kind Kind
	Msg  string
	Pos  int
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s error at offset %d: %s", e.Kind, e.Pos, e.Msg)
}

func newError(kind Kind, msg string, pos int) *ParseError {
	return &ParseError{Kind: kind, Msg: msg, Pos: pos}
}

// Result carries the outcome of one parse attempt: a value plus the
// offset of the first unconsumed byte, or an error.
type Result[T any] struct {
	Value T
	Next  int
	Err   *ParseError
}

func (r Result[T]) OK() bool { return r.Err == nil }

func fail[T any](kind Kind, msg string, pos int) Result[T] {
	return Result[T]{Err: newError(kind, msg, pos)}
}

// LineResult reports what happened when a data line was offered to an
// aggregate. The three states are distinct: no declared field matched
// the identifier (not an error, zero progress), a field matched and
// parsed its value, or a field matched and rejected it.
type LineResult struct {
	Matched bool
	Next    int
	Err     *ParseError
}
