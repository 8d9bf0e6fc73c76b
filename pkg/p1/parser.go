package p1

import "bytes"

// Parse processes one fully buffered telegram from buf into the
// aggregate. The buffer must start with '/' and run up to and
// including the '!' and the four checksum digits; extra trailing bytes
// are fine and are left to the caller. The returned offset points at
// the first byte past the checksum.
//
// Parse resets every field first, so an aggregate can be reused across
// telegrams without caller bookkeeping. On error the aggregate's
// contents must not be trusted, even partially.
func (t *Telegram) Parse(buf []byte) (int, *ParseError) {
	t.Reset()

	if len(buf) == 0 || buf[0] != '/' {
		return 0, newError(KindFraming, "data should start with /", 0)
	}

	// The checksum covers every byte from '/' through '!' inclusive.
	bang := bytes.IndexByte(buf[1:], '!')
	if bang < 0 {
		return 0, newError(KindFraming, "no checksum found", len(buf))
	}
	bang++ // absolute offset of '!'
	crc := updateCRC(0, buf[:bang+1])

	check := ParseCRC(buf, bang+1, len(buf))
	if !check.OK() {
		return 0, check.Err
	}
	if check.Value != crc {
		return 0, newError(KindChecksum, "checksum mismatch", bang)
	}

	if err := t.parseData(buf, 1, bang); err != nil {
		return 0, err
	}
	return check.Next, nil
}

// parseData splits the region between the markers into terminated
// lines: the identification line first, then data lines. Every line,
// including the last, must end in '\r' or '\n'.
func (t *Telegram) parseData(buf []byte, start, end int) *ParseError {
	lineStart := start
	i := start

	// The identification line looks like "XXX5<free text>": a
	// three-character source tag, a baud indicator ('5' for DSMR 3.x
	// and later, '3' for the older mode D meters), then arbitrary
	// text. It carries no OBIS code, so it is offered to the
	// aggregate under the reserved IdentificationID.
	for i < end {
		if buf[i] == '\r' || buf[i] == '\n' {
			if lineStart+3 >= i || (buf[lineStart+3] != '5' && buf[lineStart+3] != '3') {
				return newError(KindIdentification, "invalid identification line", lineStart)
			}
			if res := t.Dispatch(IdentificationID, buf, lineStart, i); res.Err != nil {
				return res.Err
			}
			i++
			lineStart = i
			break
		}
		i++
	}

	for ; i < end; i++ {
		if buf[i] == '\r' || buf[i] == '\n' {
			if err := t.parseLine(buf, lineStart, i); err != nil {
				return err
			}
			lineStart = i + 1
		}
	}

	if lineStart != end {
		return newError(KindTermination, "last data line not terminated", lineStart)
	}
	return nil
}

// parseLine handles one data line: an OBIS identifier followed by its
// value span. An identifier no declared field matches is skipped; a
// matched field must consume the span exactly.
func (t *Telegram) parseLine(buf []byte, start, end int) *ParseError {
	if start == end {
		// CRLF terminators produce empty lines between the CR and LF.
		return nil
	}

	id := ParseObisID(buf, start, end)
	if !id.OK() {
		return id.Err
	}

	res := t.Dispatch(id.Value, buf, id.Next, end)
	if res.Err != nil {
		return res.Err
	}
	if res.Matched && res.Next != end {
		return newError(KindTrailingData, "trailing characters on data line", res.Next)
	}
	return nil
}
