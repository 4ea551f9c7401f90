//go:build linux && arm64 && !(rp2040 || rp2350)

package platform

import (
	"ulpsense-go/drivers/led"
	"ulpsense-go/errcode"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"
)

// FaultPin is the header pin wired to the fault LED.
const FaultPin = "GPIO27"

// periphPin adapts a periph GPIO to led.Pin.
type periphPin struct{ p gpio.PinIO }

func (g periphPin) Set(high bool) { _ = g.p.Out(gpio.Level(high)) }
func (g periphPin) Get() bool     { return bool(g.p.Read()) }

func faultLED() *led.LED {
	if p := gpioreg.ByName(FaultPin); p != nil {
		return led.New(periphPin{p}, false, false)
	}
	return led.New(&led.MemPin{}, false, false)
}

// Open initialises periph and opens the first I2C bus (/dev/i2c-1 on a
// Raspberry Pi). periph's i2c.Bus already has the Tx shape the driver needs.
func Open() (*Board, error) {
	if _, err := host.Init(); err != nil {
		return nil, errcode.Wrap("platform.host_init", err)
	}
	b, err := i2creg.Open("")
	if err != nil {
		return nil, errcode.Wrap("platform.i2c_open", err)
	}
	return &Board{
		Device:   "rpi",
		I2C:      b,
		BusName:  b.String(),
		FaultLED: faultLED(),
		close:    b.Close,
	}, nil
}
