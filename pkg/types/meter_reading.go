package types

import (
	"encoding/json"
	"log"
)

// MeterReading is one interpreted sample from the P1 port. All
// quantities are integer milli-units straight out of the parser's
// fixed-point fields: power in W, energy in Wh, gas in dm3, voltage in
// mV, current in mA. Conversions back to display units live in
// units.go.
type MeterReading struct {
	// Meter clock timestamp in RFC3339, falling back to receive time
	// when the telegram carries none.
	Timestamp string `json:"timestamp"`

	// Current consumption/production
	CurrentConsumptionW uint32 `json:"current_consumption_w"`
	CurrentProductionW  uint32 `json:"current_production_w"`
	L1ConsumptionW      uint32 `json:"l1_consumption_w"`
	L2ConsumptionW      uint32 `json:"l2_consumption_w"`
	L3ConsumptionW      uint32 `json:"l3_consumption_w"`
	L1ProductionW       uint32 `json:"l1_production_w"`
	L2ProductionW       uint32 `json:"l2_production_w"`
	L3ProductionW       uint32 `json:"l3_production_w"`

	// Totals
	TotalConsumptionDayWh   uint32 `json:"total_consumption_day_wh"`
	TotalConsumptionNightWh uint32 `json:"total_consumption_night_wh"`
	TotalProductionDayWh    uint32 `json:"total_production_day_wh"`
	TotalProductionNightWh  uint32 `json:"total_production_night_wh"`

	// Electrical info
	CurrentTariff int    `json:"current_tariff"`
	L1VoltageMv   uint32 `json:"l1_voltage_mv"`
	L2VoltageMv   uint32 `json:"l2_voltage_mv"`
	L3VoltageMv   uint32 `json:"l3_voltage_mv"`
	L1CurrentMa   uint32 `json:"l1_current_ma"`
	L2CurrentMa   uint32 `json:"l2_current_ma"`
	L3CurrentMa   uint32 `json:"l3_current_ma"`

	// Switches/status
	SwitchElectricity int `json:"switch_electricity"`
	SwitchGas         int `json:"switch_gas"`

	// Serial numbers
	MeterSerialElectricity string `json:"meter_serial_electricity"`
	MeterSerialGas         string `json:"meter_serial_gas"`

	// Gas
	GasConsumptionDM3 uint32 `json:"gas_consumption_dm3"`
	GasTimestamp      string `json:"gas_timestamp,omitempty"`
}

func (r *MeterReading) ToJsonBytes() []byte {
	data, err := json.Marshal(r)
	if err != nil {
		log.Printf("Failed to marshal meter reading: %v", err)
		return nil
	}
	return data
}

// MeterReadingFromJsonBytes returns nil when the payload is not a
// reading.
func MeterReadingFromJsonBytes(data []byte) *MeterReading {
	var reading MeterReading
	if err := json.Unmarshal(data, &reading); err != nil {
		return nil
	}
	return &reading
}
