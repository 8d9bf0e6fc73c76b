package port_reader

import (
	"io"
	"sync"

	"github.com/meterhub/p1meter/pkg/p1"
	"github.com/meterhub/p1meter/pkg/types"
)

// meterFields declares the Belgian DSMR field set the reader extracts.
// Each entry keeps a typed handle so the reading conversion can pull
// values without traversal.
type meterFields struct {
	identification *p1.RawField
	timestamp      *p1.TimestampField

	serialElectricity *p1.StringField
	serialGas         *p1.StringField

	currentConsumption *p1.NumberField
	currentProduction  *p1.NumberField
	l1Consumption      *p1.NumberField
	l2Consumption      *p1.NumberField
	l3Consumption      *p1.NumberField
	l1Production       *p1.NumberField
	l2Production       *p1.NumberField
	l3Production       *p1.NumberField

	totalConsumptionDay   *p1.NumberField
	totalConsumptionNight *p1.NumberField
	totalProductionDay    *p1.NumberField
	totalProductionNight  *p1.NumberField

	tariff    *p1.NumberField
	l1Voltage *p1.NumberField
	l2Voltage *p1.NumberField
	l3Voltage *p1.NumberField
	l1Current *p1.NumberField
	l2Current *p1.NumberField
	l3Current *p1.NumberField

	switchElectricity *p1.NumberField
	switchGas         *p1.NumberField

	gasConsumption *p1.TimestampedNumberField
}

type P1Reader struct {
	port       string
	baudrate   uint
	serialPort io.ReadWriteCloser

	latestReading *types.MeterReading
	readingMutex  sync.RWMutex
	stopSignal    bool

	// Declared aggregate, reused across telegrams; Parse resets it.
	fields   *meterFields
	telegram *p1.Telegram

	// Reused telegram accumulation buffer.
	buf []byte
}
