// Responsible for storing the data collected from the smart meter.
// Depends on the interpreter API being online.
package main

import (
	"log"
	"time"

	"github.com/meterhub/p1meter/pkg/config"
	"github.com/meterhub/p1meter/pkg/interpreter"
	"github.com/meterhub/p1meter/pkg/meterdb"
	"github.com/meterhub/p1meter/pkg/types"
)

// Standings change slowly; one sample per interval is plenty.
const totalsInterval = time.Hour

var lastTotalsStored time.Time

func main() {
	// Load config
	if err := config.LoadCollectorConfig(); err != nil {
		log.Fatalf("Failed to load collector config: %v", err)
	}

	// Initialize database
	meterdb.InitializeDatabase()

	// Subscribe to websocket with revive
	interpreter.StartListener(
		config.ActiveCollectorConfig.InterpreterAPIHost,
		config.ActiveCollectorConfig.TLSEnabled,
		handleMeterReading,
	)
}

// Handle meter reading data
func handleMeterReading(reading *types.MeterReading) {
	now := time.Now()

	live := &meterdb.LivePowerRow{
		Timestamp:     now.Unix(),
		ConsumptionW:  reading.CurrentConsumptionW,
		ProductionW:   reading.CurrentProductionW,
		CurrentTariff: uint8(reading.CurrentTariff),
	}
	if err := meterdb.InsertLivePowerRow(live); err != nil {
		log.Printf("Failed to store live power reading: %v", err)
	}

	if now.Sub(lastTotalsStored) < totalsInterval {
		return
	}
	lastTotalsStored = now

	totals := &meterdb.TotalPowerRow{
		Timestamp:               now.Unix(),
		TotalConsumptionDayWh:   reading.TotalConsumptionDayWh,
		TotalConsumptionNightWh: reading.TotalConsumptionNightWh,
		TotalProductionDayWh:    reading.TotalProductionDayWh,
		TotalProductionNightWh:  reading.TotalProductionNightWh,
	}
	if err := meterdb.InsertTotalPowerRow(totals); err != nil {
		log.Printf("Failed to store total power reading: %v", err)
	}

	gas := &meterdb.TotalGasRow{
		Timestamp:           now.Unix(),
		TotalConsumptionDM3: reading.GasConsumptionDM3,
	}
	if err := meterdb.InsertTotalGasRow(gas); err != nil {
		log.Printf("Failed to store total gas reading: %v", err)
	}
}
