package types

// Readings are stored in milli-units (W, Wh, dm3); these convert back
// to the display units the meter prints.

func WToKw(w uint32) float64 {
	return float64(w) / 1000
}

func DM3ToM3(dm3 uint32) float64 {
	return float64(dm3) / 1000
}

func MvToV(mv uint32) float64 {
	return float64(mv) / 1000
}
