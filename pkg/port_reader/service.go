package port_reader

import (
	"bufio"
	"bytes"
	"encoding/hex"
	"fmt"
	"log"
	"time"

	"github.com/jacobsa/go-serial/serial"

	"github.com/meterhub/p1meter/pkg/p1"
	"github.com/meterhub/p1meter/pkg/types"
)

// Initialize a new P1Reader client.
func NewP1Reader(port string, baudrate uint) *P1Reader {
	f := &meterFields{
		identification: p1.NewIdentificationField(),
		timestamp:      p1.NewTimestampField(p1.ObisID{0, 0, 1, 0, 0, p1.Absent}, "timestamp"),

		serialElectricity: p1.NewStringField(p1.ObisID{0, 0, 96, 1, 1, p1.Absent}, "meter_serial_electricity", 0, 96),
		serialGas:         p1.NewStringField(p1.ObisID{0, 1, 96, 1, 1, p1.Absent}, "meter_serial_gas", 0, 96),

		currentConsumption: p1.NewNumberField(p1.ObisID{1, 0, 1, 7, 0, p1.Absent}, "current_consumption", "kW"),
		currentProduction:  p1.NewNumberField(p1.ObisID{1, 0, 2, 7, 0, p1.Absent}, "current_production", "kW"),
		l1Consumption:      p1.NewNumberField(p1.ObisID{1, 0, 21, 7, 0, p1.Absent}, "l1_consumption", "kW"),
		l2Consumption:      p1.NewNumberField(p1.ObisID{1, 0, 41, 7, 0, p1.Absent}, "l2_consumption", "kW"),
		l3Consumption:      p1.NewNumberField(p1.ObisID{1, 0, 61, 7, 0, p1.Absent}, "l3_consumption", "kW"),
		l1Production:       p1.NewNumberField(p1.ObisID{1, 0, 22, 7, 0, p1.Absent}, "l1_production", "kW"),
		l2Production:       p1.NewNumberField(p1.ObisID{1, 0, 42, 7, 0, p1.Absent}, "l2_production", "kW"),
		l3Production:       p1.NewNumberField(p1.ObisID{1, 0, 62, 7, 0, p1.Absent}, "l3_production", "kW"),

		totalConsumptionDay:   p1.NewNumberField(p1.ObisID{1, 0, 1, 8, 1, p1.Absent}, "total_consumption_day", "kWh"),
		totalConsumptionNight: p1.NewNumberField(p1.ObisID{1, 0, 1, 8, 2, p1.Absent}, "total_consumption_night", "kWh"),
		totalProductionDay:    p1.NewNumberField(p1.ObisID{1, 0, 2, 8, 1, p1.Absent}, "total_production_day", "kWh"),
		totalProductionNight:  p1.NewNumberField(p1.ObisID{1, 0, 2, 8, 2, p1.Absent}, "total_production_night", "kWh"),

		tariff:    p1.NewNumberField(p1.ObisID{0, 0, 96, 14, 0, p1.Absent}, "current_tariff", ""),
		l1Voltage: p1.NewNumberField(p1.ObisID{1, 0, 32, 7, 0, p1.Absent}, "l1_voltage", "V"),
		l2Voltage: p1.NewNumberField(p1.ObisID{1, 0, 52, 7, 0, p1.Absent}, "l2_voltage", "V"),
		l3Voltage: p1.NewNumberField(p1.ObisID{1, 0, 72, 7, 0, p1.Absent}, "l3_voltage", "V"),
		l1Current: p1.NewNumberField(p1.ObisID{1, 0, 31, 7, 0, p1.Absent}, "l1_current", "A"),
		l2Current: p1.NewNumberField(p1.ObisID{1, 0, 51, 7, 0, p1.Absent}, "l2_current", "A"),
		l3Current: p1.NewNumberField(p1.ObisID{1, 0, 71, 7, 0, p1.Absent}, "l3_current", "A"),

		switchElectricity: p1.NewNumberField(p1.ObisID{0, 0, 96, 3, 10, p1.Absent}, "switch_electricity", ""),
		switchGas:         p1.NewNumberField(p1.ObisID{0, 1, 24, 4, 0, p1.Absent}, "switch_gas", ""),

		gasConsumption: p1.NewTimestampedNumberField(p1.ObisID{0, 1, 24, 2, 3, p1.Absent}, "gas_consumption", "m3"),
	}

	return &P1Reader{
		port:     port,
		baudrate: baudrate,
		fields:   f,
		telegram: p1.NewTelegram(
			f.identification, f.timestamp,
			f.serialElectricity, f.serialGas,
			f.currentConsumption, f.currentProduction,
			f.l1Consumption, f.l2Consumption, f.l3Consumption,
			f.l1Production, f.l2Production, f.l3Production,
			f.totalConsumptionDay, f.totalConsumptionNight,
			f.totalProductionDay, f.totalProductionNight,
			f.tariff,
			f.l1Voltage, f.l2Voltage, f.l3Voltage,
			f.l1Current, f.l2Current, f.l3Current,
			f.switchElectricity, f.switchGas,
			f.gasConsumption,
		),
	}
}

// Start listening for readings. Messages are sent every second.
// Runs in goroutine. handleReading() also runs in goroutine.
func (p *P1Reader) StartReading(
	handleReading func(reading *types.MeterReading),
	handleError func(error),
) {
	p.stopSignal = false

	go func() {
		// Tolerance before we report error.
		consecutiveErrors := 0
		maxErrors := 10
		var lastError error

		// Initialize the connection
		openConnError := p.connect()
		if openConnError != nil {
			handleError(openConnError)
			return
		}
		reader := bufio.NewReader(p.serialPort)

		for consecutiveErrors < maxErrors {
			// Check for Stop command
			if p.stopSignal {
				log.Println("Stop signal received, disconnecting")
				p.disconnect()
				return
			}

			// Read one framed telegram
			telegram, err := readTelegram(reader, p.buf[:0])
			if err != nil {
				consecutiveErrors++
				lastError = err
				log.Printf("Error reading telegram (%d/%d): %v", consecutiveErrors, maxErrors, err)
				time.Sleep(time.Second)
				continue
			}
			p.buf = telegram

			reading, err := p.parseTelegram(telegram)
			if err != nil {
				// A bad CRC usually means we caught a partial
				// telegram; skip and re-sync on the next '/'.
				consecutiveErrors++
				lastError = err
				log.Printf("Skipping telegram (%d/%d): %v", consecutiveErrors, maxErrors, err)
				continue
			}

			p.readingMutex.Lock()
			p.latestReading = reading
			p.readingMutex.Unlock()

			go handleReading(reading)
			consecutiveErrors = 0
		}

		log.Printf("Too many consecutive errors (%d), stopping reader: %v", maxErrors, lastError)
		handleError(lastError)
		p.disconnect()
	}()
}

func (p *P1Reader) StopReading() {
	p.stopSignal = true
	p.disconnect()
}

func (p *P1Reader) GetLatestReading() *types.MeterReading {
	p.readingMutex.RLock()
	defer p.readingMutex.RUnlock()
	return p.latestReading
}

// Open the connection to the P1 port.
func (p *P1Reader) connect() error {
	options := serial.OpenOptions{
		PortName:        p.port,
		BaudRate:        p.baudrate,
		DataBits:        8,
		StopBits:        1,
		MinimumReadSize: 1,
	}

	port, err := serial.Open(options)
	if err != nil {
		return fmt.Errorf("failed to open serial port: %w", err)
	}

	p.serialPort = port
	log.Printf("Connected to P1 port on %s", p.port)
	return nil
}

func (p *P1Reader) disconnect() {
	if p.serialPort != nil {
		p.serialPort.Close()
		log.Println("Disconnected from P1 port")
	}
}

// readTelegram accumulates lines from '/' through the '!'+CRC line
// into buf, re-syncing on the next '/' if a telegram starts mid-way.
// The returned slice includes the checksum digits the parser verifies.
func readTelegram(reader *bufio.Reader, buf []byte) ([]byte, error) {
	inTelegram := false
	for {
		line, err := reader.ReadBytes('\n')
		if err != nil {
			return nil, err
		}

		if len(line) > 0 && line[0] == '/' {
			// Start of telegram
			buf = append(buf[:0], line...)
			inTelegram = true
		} else if inTelegram {
			buf = append(buf, line...)
			if len(bytes.TrimSpace(line)) > 0 && bytes.TrimSpace(line)[0] == '!' {
				// End of telegram
				return buf, nil
			}
		}
	}
}

// parseTelegram runs the engine over one framed telegram and converts
// the populated fields into a reading.
func (p *P1Reader) parseTelegram(telegram []byte) (*types.MeterReading, error) {
	if _, perr := p.telegram.Parse(telegram); perr != nil {
		return nil, perr
	}
	return p.toReading(), nil
}

func (p *P1Reader) toReading() *types.MeterReading {
	f := p.fields
	reading := &types.MeterReading{
		Timestamp: time.Now().Format(time.RFC3339),
	}

	if f.timestamp.Present() {
		if t, err := f.timestamp.Time(time.Local); err == nil {
			reading.Timestamp = t.Format(time.RFC3339)
		}
	}

	powerMap := map[*p1.NumberField]*uint32{
		f.currentConsumption:    &reading.CurrentConsumptionW,
		f.currentProduction:     &reading.CurrentProductionW,
		f.l1Consumption:         &reading.L1ConsumptionW,
		f.l2Consumption:         &reading.L2ConsumptionW,
		f.l3Consumption:         &reading.L3ConsumptionW,
		f.l1Production:          &reading.L1ProductionW,
		f.l2Production:          &reading.L2ProductionW,
		f.l3Production:          &reading.L3ProductionW,
		f.totalConsumptionDay:   &reading.TotalConsumptionDayWh,
		f.totalConsumptionNight: &reading.TotalConsumptionNightWh,
		f.totalProductionDay:    &reading.TotalProductionDayWh,
		f.totalProductionNight:  &reading.TotalProductionNightWh,
		f.l1Voltage:             &reading.L1VoltageMv,
		f.l2Voltage:             &reading.L2VoltageMv,
		f.l3Voltage:             &reading.L3VoltageMv,
		f.l1Current:             &reading.L1CurrentMa,
		f.l2Current:             &reading.L2CurrentMa,
		f.l3Current:             &reading.L3CurrentMa,
	}
	for field, dst := range powerMap {
		if field.Present() {
			*dst = field.Milli()
		}
	}

	if f.tariff.Present() {
		// The meter reports 0001/0002; keep the single digit.
		tariff := int(f.tariff.Milli() / 1000)
		if tariff >= 10 {
			tariff %= 10
		}
		reading.CurrentTariff = tariff
	}
	if f.switchElectricity.Present() {
		reading.SwitchElectricity = int(f.switchElectricity.Milli() / 1000)
	}
	if f.switchGas.Present() {
		reading.SwitchGas = int(f.switchGas.Milli() / 1000)
	}

	if f.serialElectricity.Present() {
		reading.MeterSerialElectricity = decodeSerial(f.serialElectricity.Value())
	}
	if f.serialGas.Present() {
		reading.MeterSerialGas = decodeSerial(f.serialGas.Value())
	}

	if f.gasConsumption.Present() {
		reading.GasConsumptionDM3 = f.gasConsumption.Milli()
		reading.GasTimestamp = f.gasConsumption.Raw()
	}

	return reading
}

// Equipment identifiers come hex-encoded; fall back to the raw text
// when they are not.
func decodeSerial(s string) string {
	if decoded, err := hex.DecodeString(s); err == nil {
		return string(decoded)
	}
	return s
}
