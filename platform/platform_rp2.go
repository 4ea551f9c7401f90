//go:build rp2040 || rp2350

package platform

import (
	"machine"

	"ulpsense-go/drivers/led"
	"ulpsense-go/x/logx"

	uartx "github.com/jangala-dev/tinygo-uartx/uartx"
)

// Open configures i2c0 at 400 kHz on the board-default pins, the on-board
// LED as the fault indicator, and mirrors the log to uart0.
func Open() (*Board, error) {
	u := uartx.UART0
	if err := u.Configure(uartx.UARTConfig{
		BaudRate: 115200,
		TX:       machine.UART0_TX_PIN,
		RX:       machine.UART0_RX_PIN,
	}); err == nil {
		logx.SetOutput(machine.Serial, u)
	}

	b := machine.I2C0
	if err := b.Configure(machine.I2CConfig{
		Frequency: 400 * machine.KHz,
		SDA:       machine.I2C0_SDA_PIN,
		SCL:       machine.I2C0_SCL_PIN,
	}); err != nil {
		return nil, err
	}
	pin := machine.LED
	pin.Configure(machine.PinConfig{Mode: machine.PinOutput})
	return &Board{
		Device:   "pico",
		I2C:      b,
		BusName:  "i2c0",
		FaultLED: led.New(pin, false, false),
	}, nil
}
