package meterdb

// Live momentary power, one row per telegram.
type LivePowerRow struct {
	Timestamp     int64  `db:"timestamp"`
	ConsumptionW  uint32 `db:"consumption_w"`
	ProductionW   uint32 `db:"production_w"`
	CurrentTariff uint8  `db:"current_tariff"`
}

// Meter standing totals, sampled periodically.
type TotalPowerRow struct {
	Timestamp               int64  `db:"timestamp"`
	TotalConsumptionDayWh   uint32 `db:"consumption_day_wh"`
	TotalConsumptionNightWh uint32 `db:"consumption_night_wh"`
	TotalProductionDayWh    uint32 `db:"production_day_wh"`
	TotalProductionNightWh  uint32 `db:"production_night_wh"`
}

type TotalGasRow struct {
	Timestamp           int64  `db:"timestamp"`
	TotalConsumptionDM3 uint32 `db:"consumption_dm3"`
}
