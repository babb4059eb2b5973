package smc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetVoltageMilliVolts(t *testing.T) {
	// 11400 mV = 0x2C88, little-endian.
	c := NewMock(map[string][]byte{
		BatteryVoltageKey: {0x88, 0x2C},
	})

	v, err := c.GetVoltageMilliVolts()
	require.NoError(t, err)
	assert.Equal(t, 11400, v)
}

func TestGetAmperageMilliAmpsNegative(t *testing.T) {
	// -1520 mA = 0xFA10 as int16, little-endian.
	c := NewMock(map[string][]byte{
		BatteryAmperageKey: {0x10, 0xFA},
	})

	v, err := c.GetAmperageMilliAmps()
	require.NoError(t, err)
	assert.Equal(t, -1520, v)
}

func TestGetAmperageMilliAmpsPositive(t *testing.T) {
	// 850 mA = 0x0352, little-endian.
	c := NewMock(map[string][]byte{
		BatteryAmperageKey: {0x52, 0x03},
	})

	v, err := c.GetAmperageMilliAmps()
	require.NoError(t, err)
	assert.Equal(t, 850, v)
}

func TestGetBatteryCharge(t *testing.T) {
	c := NewMock(map[string][]byte{
		BatteryChargeKey: {87},
	})

	v, err := c.GetBatteryCharge()
	require.NoError(t, err)
	assert.Equal(t, 87, v)
}

func TestIncorrectDataLength(t *testing.T) {
	c := NewMock(map[string][]byte{
		BatteryVoltageKey:  {0x88},
		BatteryAmperageKey: {0x10, 0xFA, 0x00},
	})

	_, err := c.GetVoltageMilliVolts()
	assert.Error(t, err)

	_, err = c.GetAmperageMilliAmps()
	assert.Error(t, err)
}
