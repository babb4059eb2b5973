package smc

import (
	"encoding/binary"
	"fmt"

	"github.com/sirupsen/logrus"
)

// GetVoltageMilliVolts returns the battery voltage in millivolts.
func (c *AppleSMC) GetVoltageMilliVolts() (int, error) {
	logrus.Tracef("GetVoltageMilliVolts called")

	v, err := c.Read(BatteryVoltageKey)
	if err != nil {
		return 0, err
	}

	if len(v.Bytes) != 2 {
		return 0, fmt.Errorf("incorrect data length %d!=2", len(v.Bytes))
	}

	return int(decodeUint(v.Bytes)), nil
}

// GetAmperageMilliAmps returns the battery amperage in milliamps, negative
// when discharging.
func (c *AppleSMC) GetAmperageMilliAmps() (int, error) {
	logrus.Tracef("GetAmperageMilliAmps called")

	v, err := c.Read(BatteryAmperageKey)
	if err != nil {
		return 0, err
	}

	if len(v.Bytes) != 2 {
		return 0, fmt.Errorf("incorrect data length %d!=2", len(v.Bytes))
	}

	return int(decodeInt(v.Bytes)), nil
}

// GetBatteryCharge returns the battery charge percent.
func (c *AppleSMC) GetBatteryCharge() (int, error) {
	logrus.Tracef("GetBatteryCharge called")

	v, err := c.Read(BatteryChargeKey)
	if err != nil {
		return 0, err
	}

	if len(v.Bytes) != 1 {
		return 0, fmt.Errorf("incorrect data length %d!=1", len(v.Bytes))
	}

	return int(v.Bytes[0]), nil
}

// decodeInt decodes a 2-byte slice into a little-endian int16.
func decodeInt(b []byte) int16 {
	if len(b) != 2 {
		return 0
	}
	return int16(binary.LittleEndian.Uint16(b))
}

// decodeUint decodes a 2-byte slice into a little-endian uint16.
func decodeUint(b []byte) uint16 {
	if len(b) != 2 {
		return 0
	}
	return binary.LittleEndian.Uint16(b)
}
