package port_reader

import (
	"bufio"
	"bytes"
	"fmt"
	"testing"

	"github.com/sigurn/crc16"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixtureBody = "/FLU5\\253769484_A\r\n" +
	"\r\n" +
	"0-0:1.0.0(240101123045W)\r\n" +
	"0-0:96.1.1(37464C5532)\r\n" +
	"1-0:1.8.1(000123.456*kWh)\r\n" +
	"1-0:1.8.2(000234.567*kWh)\r\n" +
	"1-0:2.8.1(000012.000*kWh)\r\n" +
	"1-0:2.8.2(000034.500*kWh)\r\n" +
	"0-0:96.14.0(0001)\r\n" +
	"1-0:1.7.0(00.345*kW)\r\n" +
	"1-0:2.7.0(00.000*kW)\r\n" +
	"1-0:32.7.0(231.5*V)\r\n" +
	"1-0:31.7.0(002*A)\r\n" +
	"0-0:96.3.10(1)\r\n" +
	"0-1:24.4.0(1)\r\n" +
	"0-1:96.1.1(4641424344)\r\n" +
	"0-1:24.2.3(240101123000W)(01234.567*m3)\r\n"

func fixtureTelegram(t *testing.T) []byte {
	t.Helper()
	var b bytes.Buffer
	b.WriteString(fixtureBody)
	b.WriteByte('!')
	sum := crc16.Checksum(b.Bytes(), crc16.MakeTable(crc16.CRC16_ARC))
	fmt.Fprintf(&b, "%04X", sum)
	return b.Bytes()
}

func TestParseTelegramToReading(t *testing.T) {
	p := NewP1Reader("/dev/null", 115200)

	reading, err := p.parseTelegram(fixtureTelegram(t))
	require.NoError(t, err)

	assert.Equal(t, uint32(345), reading.CurrentConsumptionW)
	assert.Equal(t, uint32(0), reading.CurrentProductionW)
	assert.Equal(t, uint32(123456), reading.TotalConsumptionDayWh)
	assert.Equal(t, uint32(234567), reading.TotalConsumptionNightWh)
	assert.Equal(t, uint32(12000), reading.TotalProductionDayWh)
	assert.Equal(t, uint32(34500), reading.TotalProductionNightWh)
	assert.Equal(t, uint32(231500), reading.L1VoltageMv)
	assert.Equal(t, uint32(2000), reading.L1CurrentMa)
	assert.Equal(t, 1, reading.CurrentTariff)
	assert.Equal(t, 1, reading.SwitchElectricity)
	assert.Equal(t, 1, reading.SwitchGas)
	assert.Equal(t, uint32(1234567), reading.GasConsumptionDM3)
	assert.Equal(t, "240101123000W", reading.GasTimestamp)
	assert.Equal(t, "7FLU2", reading.MeterSerialElectricity, "hex serials are decoded")
	assert.Equal(t, "FABCD", reading.MeterSerialGas)
	assert.Contains(t, reading.Timestamp, "2024-01-01T12:30:45")
}

func TestParseTelegramRejectsBadCRC(t *testing.T) {
	p := NewP1Reader("/dev/null", 115200)

	telegram := fixtureTelegram(t)
	telegram[25] ^= 0x01

	_, err := p.parseTelegram(telegram)
	require.Error(t, err)
}

func TestReadTelegramFraming(t *testing.T) {
	telegram := fixtureTelegram(t)

	// Serial noise before the telegram, partial telegram tail after.
	var stream bytes.Buffer
	stream.WriteString("garbage\r\n1-0:1.7.0(00.1\r\n")
	stream.Write(telegram)
	stream.WriteString("\r\n/FLU5\\partial")

	got, err := readTelegram(bufio.NewReader(&stream), nil)
	require.NoError(t, err)
	assert.Equal(t, string(telegram)+"\r\n", string(got),
		"everything from '/' through the checksum line")
}

func TestReadTelegramResync(t *testing.T) {
	telegram := fixtureTelegram(t)

	// A truncated telegram followed by a complete one: the reader must
	// drop the partial frame and return the complete telegram.
	var stream bytes.Buffer
	stream.WriteString("/FLU5\\253769484_A\r\n0-0:1.0.0(2401\r\n")
	stream.Write(telegram)
	stream.WriteString("\r\n")

	got, err := readTelegram(bufio.NewReader(&stream), nil)
	require.NoError(t, err)
	assert.Equal(t, string(telegram)+"\r\n", string(got),
		"the partial frame is dropped when the next '/' arrives")
}
