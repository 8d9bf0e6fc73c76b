package p1

import (
	"fmt"
	"time"
)

// fieldBase carries what every concrete field shares.
type fieldBase struct {
	id      ObisID
	name    string
	present bool
}

func (f *fieldBase) ID() ObisID    { return f.id }
func (f *fieldBase) Name() string  { return f.name }
func (f *fieldBase) Present() bool { return f.present }
func (f *fieldBase) Reset()        { f.present = false }

// StringField holds a parenthesized text value with an inclusive
// [min,max] length bound.
type StringField struct {
	fieldBase
	min, max int
	value    FixedString
}

func NewStringField(id ObisID, name string, min, max int) *StringField {
	return &StringField{fieldBase: fieldBase{id: id, name: name}, min: min, max: max}
}

func (f *StringField) Value() string { return f.value.String() }

func (f *StringField) Parse(buf []byte, start, end int) (int, *ParseError) {
	res := ParseString(buf, start, end, f.min, f.max)
	if !res.OK() {
		return start, res.Err
	}
	f.value = res.Value
	f.present = true
	return res.Next, nil
}

// RawField captures a span verbatim, without delimiters. The parser
// offers the identification line under IdentificationID, so a RawField
// declared on that ID receives the full line.
type RawField struct {
	fieldBase
	value FixedString
}

func NewRawField(id ObisID, name string) *RawField {
	return &RawField{fieldBase: fieldBase{id: id, name: name}}
}

// NewIdentificationField captures the telegram's identification line.
func NewIdentificationField() *RawField {
	return NewRawField(IdentificationID, "identification")
}

func (f *RawField) Value() string { return f.value.String() }

func (f *RawField) Parse(buf []byte, start, end int) (int, *ParseError) {
	if !f.value.set(buf[start:end]) {
		return start, newError(KindFieldValue, "value exceeds capacity", start)
	}
	f.present = true
	return end, nil
}

// NumberField holds a fixed-point decimal like "(000123.456*kW)". The
// value is stored scaled by 1000 in a uint32, so a kW reading is held
// in watts and an m3 reading in dm3; no floating point is involved in
// the parse. Fields without a unit (e.g. the tariff indicator) use an
// empty unit string.
type NumberField struct {
	fieldBase
	unit  string
	milli uint32
}

func NewNumberField(id ObisID, name, unit string) *NumberField {
	return &NumberField{fieldBase: fieldBase{id: id, name: name}, unit: unit}
}

// Milli returns the value scaled by 1000.
func (f *NumberField) Milli() uint32 { return f.milli }

func (f *NumberField) Float() float64 { return float64(f.milli) / 1000 }

func (f *NumberField) Parse(buf []byte, start, end int) (int, *ParseError) {
	res := parseNumber(buf, start, end, f.unit)
	if !res.OK() {
		return start, res.Err
	}
	f.milli = res.Value
	f.present = true
	return res.Next, nil
}

// TimestampField holds a DSMR timestamp "(YYMMDDhhmmssX)" where X is
// 'W' (winter) or 'S' (summer). The raw digits are kept as received;
// Time converts on demand.
type TimestampField struct {
	fieldBase
	raw [13]byte
}

func NewTimestampField(id ObisID, name string) *TimestampField {
	return &TimestampField{fieldBase: fieldBase{id: id, name: name}}
}

// Raw returns the timestamp exactly as transmitted.
func (f *TimestampField) Raw() string { return string(f.raw[:]) }

// DST reports the daylight-saving flag.
func (f *TimestampField) DST() bool { return f.raw[12] == 'S' }

// Time interprets the raw digits in the given location.
func (f *TimestampField) Time(loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation("060102150405", string(f.raw[:12]), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("malformed meter timestamp %q: %w", f.Raw(), err)
	}
	return t, nil
}

func (f *TimestampField) Parse(buf []byte, start, end int) (int, *ParseError) {
	res := parseTimestamp(buf, start, end)
	if !res.OK() {
		return start, res.Err
	}
	f.raw = res.Value
	f.present = true
	return res.Next, nil
}

// TimestampedNumberField holds the MBus-channel shape used by gas
// meters: "(YYMMDDhhmmssX)(00123.456*m3)", a capture timestamp
// followed by the reading itself.
type TimestampedNumberField struct {
	fieldBase
	unit  string
	raw   [13]byte
	milli uint32
}

func NewTimestampedNumberField(id ObisID, name, unit string) *TimestampedNumberField {
	return &TimestampedNumberField{fieldBase: fieldBase{id: id, name: name}, unit: unit}
}

func (f *TimestampedNumberField) Raw() string    { return string(f.raw[:]) }
func (f *TimestampedNumberField) Milli() uint32  { return f.milli }
func (f *TimestampedNumberField) Float() float64 { return float64(f.milli) / 1000 }

func (f *TimestampedNumberField) Parse(buf []byte, start, end int) (int, *ParseError) {
	ts := parseTimestamp(buf, start, end)
	if !ts.OK() {
		return start, ts.Err
	}
	num := parseNumber(buf, ts.Next, end, f.unit)
	if !num.OK() {
		return start, num.Err
	}
	f.raw = ts.Value
	f.milli = num.Value
	f.present = true
	return num.Next, nil
}

// maxWhole bounds the integer part so the scaled value fits a uint32.
const maxWhole = (1<<32 - 1) / 1000

// parseNumber reads "(digits[.digits][*unit])" and returns the value
// scaled by 1000. At most three decimals are accepted; fewer are
// padded, matching the meter's fixed-point formats (kW and m3 use
// three, V one, A none).
func parseNumber(buf []byte, start, end int, unit string) Result[uint32] {
	if start >= end || buf[start] != '(' {
		return fail[uint32](KindFieldValue, "missing (", start)
	}
	i := start + 1
	var whole uint32
	digits := 0
	for i < end && buf[i] >= '0' && buf[i] <= '9' {
		if whole > maxWhole {
			return fail[uint32](KindFieldValue, "number too large", start)
		}
		whole = whole*10 + uint32(buf[i]-'0')
		digits++
		i++
	}
	if digits == 0 {
		return fail[uint32](KindFieldValue, "missing digits", i)
	}
	if whole > maxWhole {
		return fail[uint32](KindFieldValue, "number too large", start)
	}
	milli := whole * 1000
	if i < end && buf[i] == '.' {
		i++
		scale := uint32(100)
		frac := 0
		for i < end && buf[i] >= '0' && buf[i] <= '9' {
			if frac == 3 {
				return fail[uint32](KindFieldValue, "too many decimals", i)
			}
			milli += uint32(buf[i]-'0') * scale
			scale /= 10
			frac++
			i++
		}
		if frac == 0 {
			return fail[uint32](KindFieldValue, "missing decimals", i)
		}
	}
	if unit != "" {
		if i >= end || buf[i] != '*' {
			return fail[uint32](KindFieldValue, "missing unit", i)
		}
		i++
		for j := 0; j < len(unit); j++ {
			if i >= end || buf[i] != unit[j] {
				return fail[uint32](KindFieldValue, "wrong unit, expected "+unit, i)
			}
			i++
		}
	}
	if i >= end || buf[i] != ')' {
		return fail[uint32](KindFieldValue, "missing )", i)
	}
	return Result[uint32]{Value: milli, Next: i + 1}
}

// parseTimestamp reads "(YYMMDDhhmmssX)" with X one of 'W' or 'S'.
func parseTimestamp(buf []byte, start, end int) Result[[13]byte] {
	if start >= end || buf[start] != '(' {
		return fail[[13]byte](KindFieldValue, "missing (", start)
	}
	if end-start < 15 || buf[start+14] != ')' {
		return fail[[13]byte](KindFieldValue, "malformed timestamp", start)
	}
	var res Result[[13]byte]
	for i := 0; i < 12; i++ {
		c := buf[start+1+i]
		if c < '0' || c > '9' {
			return fail[[13]byte](KindFieldValue, "malformed timestamp", start+1+i)
		}
		res.Value[i] = c
	}
	dst := buf[start+13]
	if dst != 'W' && dst != 'S' {
		return fail[[13]byte](KindFieldValue, "bad DST flag", start+13)
	}
	res.Value[12] = dst
	res.Next = start + 15
	return res
}
