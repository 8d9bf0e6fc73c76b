package p1

// MaxValueLen is the capacity of a FixedString. 96 covers the longest
// value a DSMR field carries (equipment identifiers are up to 96 hex
// characters).
const MaxValueLen = 96

// FixedString holds a parsed value in a fixed-capacity buffer so the
// engine never grows the heap while parsing.
type FixedString struct {
	n   uint8
	buf [MaxValueLen]byte
}

func (s *FixedString) set(b []byte) bool {
	if len(b) > len(s.buf) {
		return false
	}
	s.n = uint8(copy(s.buf[:], b))
	return true
}

func (s *FixedString) Len() int { return int(s.n) }

func (s *FixedString) Bytes() []byte { return s.buf[:s.n] }

func (s *FixedString) String() string { return string(s.buf[:s.n]) }

// ParseString parses a parenthesized value from buf[start:end]. The
// opening parenthesis must be immediate and the closing one must occur
// before end; the enclosed length must lie in [min,max]. Only the
// enclosed bytes are copied and the result resumes past the closing
// parenthesis. A bound above MaxValueLen is reported as a failure, not
// silently truncated.
func ParseString(buf []byte, start, end, min, max int) Result[FixedString] {
	if start >= end || buf[start] != '(' {
		return fail[FixedString](KindFieldValue, "missing (", start)
	}
	i := start + 1
	for i < end && buf[i] != ')' {
		i++
	}
	if i == end {
		return fail[FixedString](KindFieldValue, "missing )", start)
	}
	n := i - start - 1
	if n < min || n > max {
		return fail[FixedString](KindFieldValue, "invalid string length", start)
	}
	res := Result[FixedString]{Next: i + 1}
	if !res.Value.set(buf[start+1 : i]) {
		return fail[FixedString](KindFieldValue, "value exceeds capacity", start)
	}
	return res
}
