package p1

import "strconv"

// Absent marks an OBIS component that was not present in the source
// text. It is distinct from a parsed zero.
const Absent uint8 = 255

// ObisID is a reduced OBIS code of up to six numeric components,
// written A-B:C.D.E.F. Components not present in the text are Absent.
// Two IDs are equal only when all six components match, Absent
// included.
type ObisID [6]uint8

// IdentificationID is the reserved all-Absent identifier the parser
// uses to offer the identification line to the aggregate. No real OBIS
// code can collide with it.
var IdentificationID = ObisID{Absent, Absent, Absent, Absent, Absent, Absent}

// String renders the canonical reduced form, e.g. "1-0:1.8.0".
// Trailing Absent components are omitted together with their
// separators.
func (id ObisID) String() string {
	var buf [24]byte
	out := buf[:0]
	seps := [5]byte{'-', ':', '.', '.', '.'}
	for i, v := range id {
		if v == Absent {
			break
		}
		if i > 0 {
			out = append(out, seps[i-1])
		}
		out = strconv.AppendUint(out, uint64(v), 10)
	}
	return string(out)
}

// ParseObisID parses an OBIS code from buf[start:end]. It consumes the
// longest valid prefix: digits accumulate into the current component,
// and each separator advances to the next component only at its valid
// position ('-' after the first component, ':' after the second, '.'
// between the remaining ones). The first character that fits neither
// stops the parse without error. Unfilled trailing components are set
// to Absent. A component above 255 or zero consumed input is a hard
// failure.
func ParseObisID(buf []byte, start, end int) Result[ObisID] {
	res := Result[ObisID]{Next: start}
	id := &res.Value
	part := 0
	compStart := start
	for res.Next < end {
		c := buf[res.Next]
		switch {
		case c >= '0' && c <= '9':
			digit := c - '0'
			if id[part] > 25 || (id[part] == 25 && digit > 5) {
				return fail[ObisID](KindIdentifier, "OBIS component over 255", compStart)
			}
			id[part] = id[part]*10 + digit
		case part == 0 && c == '-':
			part++
			compStart = res.Next + 1
		case part == 1 && c == ':':
			part++
			compStart = res.Next + 1
		case part > 1 && part < 5 && c == '.':
			part++
			compStart = res.Next + 1
		default:
			goto done
		}
		res.Next++
	}
done:
	if res.Next == start {
		return fail[ObisID](KindIdentifier, "empty OBIS identifier", start)
	}
	for part++; part < 6; part++ {
		id[part] = Absent
	}
	return res
}
