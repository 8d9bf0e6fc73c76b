package meterdb

func InsertLivePowerRow(row *LivePowerRow) error {
	db := GetDB()

	_, err := db.Exec(
		"INSERT INTO live_power_readings (timestamp, consumption_w, production_w, current_tariff) "+
			"VALUES (?, ?, ?, ?)",
		row.Timestamp,
		row.ConsumptionW,
		row.ProductionW,
		row.CurrentTariff,
	)
	if err != nil {
		return err
	}
	return nil
}

func InsertTotalPowerRow(row *TotalPowerRow) error {
	db := GetDB()

	_, err := db.Exec(
		"INSERT INTO total_power_readings "+
			"(timestamp, consumption_day_wh, consumption_night_wh, production_day_wh, production_night_wh) "+
			"VALUES (?, ?, ?, ?, ?)",
		row.Timestamp,
		row.TotalConsumptionDayWh,
		row.TotalConsumptionNightWh,
		row.TotalProductionDayWh,
		row.TotalProductionNightWh,
	)
	if err != nil {
		return err
	}
	return nil
}

func InsertTotalGasRow(row *TotalGasRow) error {
	db := GetDB()

	_, err := db.Exec(
		"INSERT INTO total_gas_readings "+
			"(timestamp, consumption_dm3) "+
			"VALUES (?, ?)",
		row.Timestamp,
		row.TotalConsumptionDM3,
	)
	if err != nil {
		return err
	}
	return nil
}
