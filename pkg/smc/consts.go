package smc

// SMC keys for battery electrical readings (Apple Silicon).
const (
	BatteryVoltageKey  = "B0AV" // mV, uint16
	BatteryAmperageKey = "B0AC" // mA, int16, negative when discharging
	BatteryChargeKey   = "BUIC" // percent, 1 byte
)
