package p1

// Field is one identifier-tagged value slot in a Telegram. A field is
// selected by OBIS code, parses the value span of its data line, and
// keeps a present flag so callers can tell a populated slot from an
// untouched one.
type Field interface {
	// ID returns the OBIS code this field is dispatched on. It must be
	// unique within a Telegram.
	ID() ObisID
	// Name is a stable human-readable tag for logs and traversal.
	Name() string
	// Present reports whether the last parse populated this field.
	Present() bool
	// Parse consumes the value span buf[start:end] and returns the
	// offset just past what it consumed. A rejected value returns a
	// *ParseError and aborts the telegram parse.
	Parse(buf []byte, start, end int) (int, *ParseError)
	// Reset clears the present flag ahead of aggregate reuse.
	Reset()
}

// Telegram is a caller-declared, ordered set of fields populated by
// one Parse call. It carries no state between calls: Parse resets
// every field before touching the input. A Telegram must not be shared
// across concurrent parses; Dispatch mutates field storage in place.
type Telegram struct {
	fields []Field
}

// NewTelegram builds an aggregate over the given fields, in
// declaration order. It panics if two fields share an OBIS code; the
// field list is static programmer intent, like a MustCompile pattern.
func NewTelegram(fields ...Field) *Telegram {
	for i, f := range fields {
		for _, g := range fields[:i] {
			if f.ID() == g.ID() {
				panic("p1: duplicate field ID " + f.ID().String())
			}
		}
	}
	return &Telegram{fields: fields}
}

// Dispatch offers the value span buf[start:end] to the first declared
// field whose ID matches. The field's verdict is returned verbatim; an
// identifier with no matching field is not an error. Field counts per
// telegram are small, so a linear scan beats any indexing.
func (t *Telegram) Dispatch(id ObisID, buf []byte, start, end int) LineResult {
	for _, f := range t.fields {
		if f.ID() == id {
			next, err := f.Parse(buf, start, end)
			return LineResult{Matched: true, Next: next, Err: err}
		}
	}
	return LineResult{Next: start}
}

// Visit calls fn once per declared field, in declaration order,
// populated or not.
func (t *Telegram) Visit(fn func(Field)) {
	for _, f := range t.fields {
		fn(f)
	}
}

// Reset clears every field's present flag so the aggregate can be
// reused for another telegram. Parse calls this itself.
func (t *Telegram) Reset() {
	for _, f := range t.fields {
		f.Reset()
	}
}
