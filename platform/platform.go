// Package platform supplies the board-specific pieces the node needs: the
// I2C transport, its label and the device key used to select the embedded
// config. Build tags pick the implementation.
package platform

import (
	"ulpsense-go/drivers/led"

	"tinygo.org/x/drivers"
)

// Board is an opened platform.
type Board struct {
	Device  string      // embedded config key
	I2C     drivers.I2C // sensor transport
	BusName string
	// FaultLED lights on sensor transport faults.
	FaultLED *led.LED

	close func() error
}

// Close releases the transport.
func (b *Board) Close() error {
	if b.close == nil {
		return nil
	}
	return b.close()
}
