package p1

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseField(t *testing.T, f Field, in string) *ParseError {
	t.Helper()
	next, err := f.Parse([]byte(in), 0, len(in))
	if err == nil {
		require.Equal(t, len(in), next, "field must consume the whole span")
	}
	return err
}

func TestNumberField(t *testing.T) {
	f := NewNumberField(ObisID{1, 0, 1, 7, 0, Absent}, "power", "kW")
	require.Nil(t, parseField(t, f, "(00.345*kW)"))
	assert.True(t, f.Present())
	assert.Equal(t, uint32(345), f.Milli())
	assert.InDelta(t, 0.345, f.Float(), 1e-9)

	require.Nil(t, parseField(t, f, "(000123.456*kW)"))
	assert.Equal(t, uint32(123456), f.Milli())
}

func TestNumberFieldPartialDecimals(t *testing.T) {
	// Voltage uses one decimal, current none; both scale to milli.
	v := NewNumberField(ObisID{1, 0, 32, 7, 0, Absent}, "l1_voltage", "V")
	require.Nil(t, parseField(t, v, "(231.5*V)"))
	assert.Equal(t, uint32(231500), v.Milli())

	a := NewNumberField(ObisID{1, 0, 31, 7, 0, Absent}, "l1_current", "A")
	require.Nil(t, parseField(t, a, "(002*A)"))
	assert.Equal(t, uint32(2000), a.Milli())
}

func TestNumberFieldNoUnit(t *testing.T) {
	f := NewNumberField(ObisID{0, 0, 96, 14, 0, Absent}, "tariff", "")
	require.Nil(t, parseField(t, f, "(0001)"))
	assert.Equal(t, uint32(1000), f.Milli())
	assert.InDelta(t, 1.0, f.Float(), 1e-9)
}

func TestNumberFieldRejects(t *testing.T) {
	f := NewNumberField(ObisID{1, 0, 1, 7, 0, Absent}, "power", "kW")
	for _, in := range []string{
		"(00.345*kWh)", // wrong unit
		"(00.345)",     // unit missing
		"(.345*kW)",    // no integer digits
		"(00.3456*kW)", // four decimals
		"00.345*kW)",   // no opening parenthesis
		"(00.345*kW",   // no closing parenthesis
	} {
		err := parseField(t, f, in)
		require.NotNil(t, err, "input %q", in)
		assert.Equal(t, KindFieldValue, err.Kind, "input %q", in)
	}
}

func TestTimestampField(t *testing.T) {
	f := NewTimestampField(ObisID{0, 0, 1, 0, 0, Absent}, "timestamp")
	require.Nil(t, parseField(t, f, "(240101123045W)"))
	assert.Equal(t, "240101123045W", f.Raw())
	assert.False(t, f.DST())

	ts, err := f.Time(time.UTC)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 1, 12, 30, 45, 0, time.UTC), ts)

	require.NotNil(t, parseField(t, f, "(24010112304W)"))
	require.NotNil(t, parseField(t, f, "(240101123045X)"))
}

func TestTimestampedNumberField(t *testing.T) {
	f := NewTimestampedNumberField(ObisID{0, 1, 24, 2, 3, Absent}, "gas", "m3")
	require.Nil(t, parseField(t, f, "(240101123000W)(01234.567*m3)"))
	assert.Equal(t, "240101123000W", f.Raw())
	assert.Equal(t, uint32(1234567), f.Milli())
}

func TestDispatchTriState(t *testing.T) {
	power := NewNumberField(ObisID{1, 0, 1, 7, 0, Absent}, "power", "kW")
	tg := NewTelegram(power)

	line := []byte("(00.345*kW)")

	// Matched and parsed.
	res := tg.Dispatch(power.ID(), line, 0, len(line))
	assert.True(t, res.Matched)
	require.Nil(t, res.Err)
	assert.Equal(t, len(line), res.Next)

	// No declared field: zero progress, not an error.
	res = tg.Dispatch(ObisID{9, 9, 9, 9, 9, Absent}, line, 0, len(line))
	assert.False(t, res.Matched)
	assert.Nil(t, res.Err)
	assert.Equal(t, 0, res.Next)

	// Matched but rejected.
	bad := []byte("(nope)")
	res = tg.Dispatch(power.ID(), bad, 0, len(bad))
	assert.True(t, res.Matched)
	require.NotNil(t, res.Err)
}

func TestVisitOrderAndReset(t *testing.T) {
	a := NewNumberField(ObisID{1, 0, 1, 7, 0, Absent}, "a", "kW")
	b := NewStringField(ObisID{0, 0, 96, 1, 1, Absent}, "b", 0, 96)
	c := NewTimestampField(ObisID{0, 0, 1, 0, 0, Absent}, "c")
	tg := NewTelegram(a, b, c)

	require.Nil(t, parseField(t, a, "(00.100*kW)"))

	var names []string
	tg.Visit(func(f Field) { names = append(names, f.Name()) })
	assert.Equal(t, []string{"a", "b", "c"}, names, "declaration order, populated or not")

	tg.Reset()
	tg.Visit(func(f Field) { assert.False(t, f.Present()) })
}

func TestNewTelegramDuplicateID(t *testing.T) {
	id := ObisID{1, 0, 1, 7, 0, Absent}
	assert.Panics(t, func() {
		NewTelegram(
			NewNumberField(id, "a", "kW"),
			NewNumberField(id, "b", "kW"),
		)
	})
}
