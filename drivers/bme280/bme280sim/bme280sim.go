// Package bme280sim models a BME280 register file behind the
// tinygo.org/x/drivers.I2C Tx shape. Host builds and tests use it in place of
// a physical sensor.
package bme280sim

import (
	"errors"
	"sync"

	"ulpsense-go/drivers/bme280"
	"ulpsense-go/errcode"

	"tinygo.org/x/drivers"
)

var _ drivers.I2C = (*Chip)(nil)

// ErrNack is returned when the addressed device does not acknowledge.
var ErrNack = &errcode.E{C: errcode.Nack, Op: "i2c.tx", Msg: "address not acknowledged"}

// ErrBus is returned for injected non-addressing failures.
var ErrBus = errors.New("i2c: bus error")

// Chip is a simulated BME280. The zero value is not usable; call New.
type Chip struct {
	mu sync.Mutex

	addr uint16
	regs [256]byte

	pending     bme280.RawSample
	busyPolls   int // status reads that still report "measuring"
	busyPerConv int

	failNext []error // consumed one per Tx
	failAll  error

	triggers int
	txs      int
}

// New returns a chip at bme280.Address holding cal and reporting s after
// each forced conversion.
func New(cal bme280.Calibration, s bme280.RawSample) *Chip {
	c := &Chip{addr: bme280.Address}
	c.regs[bme280.RegChipID] = bme280.ChipID
	c.SetCalibration(cal)
	c.SetSample(s)
	return c
}

// SetAddress moves the chip to another bus address.
func (c *Chip) SetAddress(addr uint16) {
	c.mu.Lock()
	c.addr = addr
	c.mu.Unlock()
}

// SetCalibration rewrites the calibration registers.
func (c *Chip) SetCalibration(cal bme280.Calibration) {
	tp, h1, h := bme280.EncodeCalibration(cal)
	c.mu.Lock()
	copy(c.regs[bme280.RegCalibTP:], tp[:])
	c.regs[bme280.RegCalibH1] = h1
	copy(c.regs[bme280.RegCalibH:], h[:])
	c.mu.Unlock()
}

// SetSample sets the raw values latched by the next conversion.
func (c *Chip) SetSample(s bme280.RawSample) {
	c.mu.Lock()
	c.pending = s
	c.mu.Unlock()
}

// SetChipID overrides the id register.
func (c *Chip) SetChipID(id byte) {
	c.mu.Lock()
	c.regs[bme280.RegChipID] = id
	c.mu.Unlock()
}

// SetBusyPolls makes the status register report "measuring" for n reads
// after every trigger.
func (c *Chip) SetBusyPolls(n int) {
	c.mu.Lock()
	c.busyPerConv = n
	c.mu.Unlock()
}

// FailNext queues errors returned by the next Tx calls, one per call.
func (c *Chip) FailNext(errs ...error) {
	c.mu.Lock()
	c.failNext = append(c.failNext, errs...)
	c.mu.Unlock()
}

// FailAll makes every Tx fail with err until called again with nil.
func (c *Chip) FailAll(err error) {
	c.mu.Lock()
	c.failAll = err
	c.mu.Unlock()
}

// Triggers returns the number of forced conversions started.
func (c *Chip) Triggers() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.triggers
}

// Reg returns the current value of a register.
func (c *Chip) Reg(r byte) byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.regs[r]
}

// Tx implements drivers.I2C. w[0] selects the register; further bytes of w
// are written with auto-increment, then r is filled from the selected
// register onwards.
func (c *Chip) Tx(addr uint16, w, r []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.txs++

	if len(c.failNext) > 0 {
		err := c.failNext[0]
		c.failNext = c.failNext[1:]
		if err != nil {
			return err
		}
	}
	if c.failAll != nil {
		return c.failAll
	}
	if addr != c.addr {
		return ErrNack
	}
	if len(w) == 0 {
		return nil
	}
	reg := int(w[0])
	for i, b := range w[1:] {
		c.write(byte(reg+i), b)
	}
	for i := range r {
		r[i] = c.read(byte(reg + i))
	}
	return nil
}

func (c *Chip) write(reg, val byte) {
	switch reg {
	case bme280.RegReset:
		if val == bme280.CmdSoftReset {
			c.regs[bme280.RegCtrlHum] = 0
			c.regs[bme280.RegCtrlMeas] = 0
			c.regs[bme280.RegConfig] = 0
		}
		return
	case bme280.RegChipID, bme280.RegStatus:
		return
	case bme280.RegCtrlMeas:
		c.regs[reg] = val
		if val&0x03 == 0x01 || val&0x03 == 0x02 {
			c.convert()
		}
		return
	}
	c.regs[reg] = val
}

func (c *Chip) read(reg byte) byte {
	if reg == bme280.RegStatus {
		if c.busyPolls > 0 {
			c.busyPolls--
			return bme280.StatusMeasuring
		}
		return 0
	}
	return c.regs[reg]
}

// convert latches the pending sample into the data registers.
func (c *Chip) convert() {
	c.triggers++
	c.busyPolls = c.busyPerConv
	data := bme280.EncodeData(c.pending)
	copy(c.regs[bme280.RegData:], data[:])
}
