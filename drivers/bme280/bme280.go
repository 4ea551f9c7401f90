// Package bme280 provides a driver for the Bosch BME280 temperature,
// pressure and humidity sensor together with the vendor's integer
// compensation formulas. It exposes a two-phase forced-mode measurement:
//
//	d.Trigger()              // program oversampling and start a conversion
//	err := d.Collect(&buf)   // fetch raw data; returns ErrNotReady while busy
//
// Compensation is pure and works on values only, so raw data collected by
// another execution unit can be compensated later:
//
//	t, tc := cal.CompensateTemperature(raw.Temperature)
//	p := cal.CompensatePressure(raw.Pressure, tc)
//	h := cal.CompensateHumidity(raw.Humidity, tc)
//
// NOTE: I2C.Tx MUST perform a write followed by a repeated-start read when both
// w and r are provided, without releasing the bus.
package bme280

import (
	"errors"
	"time"

	"ulpsense-go/x/mathx"

	"tinygo.org/x/drivers"
	tbme "tinygo.org/x/drivers/bme280"
)

// Errors returned by the driver.
var (
	ErrTimeout   = errors.New("bme280: timeout")
	ErrNotReady  = errors.New("bme280: not ready")
	ErrWrongChip = errors.New("bme280: unexpected chip id")
)

// DefaultSettle is the delay between trigger and read used by the
// low-power measurement program.
const DefaultSettle = 120 * time.Millisecond

// Config controls oversampling and timing. All fields are optional; zero
// oversampling selects 16x, the only setting the firmware uses.
type Config struct {
	// Address defaults to 0x76 if zero.
	Address uint16

	Temperature tbme.Oversampling
	Pressure    tbme.Oversampling
	Humidity    tbme.Oversampling

	// Settle is the wait between Trigger and Collect. It is raised to the
	// datasheet maximum conversion time if shorter. Default 120 ms.
	Settle time.Duration
	// PollInterval is used by Read() between Collect() attempts. Default 5 ms.
	PollInterval time.Duration
	// CollectTimeout bounds the total wait in Read(). Default 250 ms.
	CollectTimeout time.Duration
}

// DefaultConfig returns the 16x/16x/16x forced-mode configuration.
func DefaultConfig() Config {
	return Config{
		Address:        Address,
		Temperature:    tbme.Sampling16X,
		Pressure:       tbme.Sampling16X,
		Humidity:       tbme.Sampling16X,
		Settle:         DefaultSettle,
		PollInterval:   5 * time.Millisecond,
		CollectTimeout: 250 * time.Millisecond,
	}
}

// withDefaults fills zero fields from DefaultConfig.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.Address == 0 {
		c.Address = d.Address
	}
	if c.Temperature == 0 {
		c.Temperature = d.Temperature
	}
	if c.Pressure == 0 {
		c.Pressure = d.Pressure
	}
	if c.Humidity == 0 {
		c.Humidity = d.Humidity
	}
	if c.Settle <= 0 {
		c.Settle = d.Settle
	}
	if m := c.MeasureTime(); c.Settle < m {
		c.Settle = m
	}
	if c.PollInterval <= 0 {
		c.PollInterval = d.PollInterval
	}
	if c.CollectTimeout <= 0 {
		c.CollectTimeout = d.CollectTimeout
	}
	return c
}

// CtrlHum is the value written to ctrl_hum (0xF2).
func (c Config) CtrlHum() byte { return byte(c.Humidity) & 0x07 }

// CtrlMeas is the value written to ctrl_meas (0xF4) to start one forced
// conversion: osrs_t<<5 | osrs_p<<2 | mode.
func (c Config) CtrlMeas() byte {
	return (byte(c.Temperature)&0x07)<<5 | (byte(c.Pressure)&0x07)<<2 | byte(tbme.ModeForced)
}

// MeasureTime returns the datasheet maximum conversion time (appendix B),
// rounded up to whole milliseconds.
func (c Config) MeasureTime() time.Duration {
	us := uint32(1250) + 2300*factor(c.Temperature)
	if n := factor(c.Pressure); n > 0 {
		us += 2300*n + 575
	}
	if n := factor(c.Humidity); n > 0 {
		us += 2300*n + 575
	}
	return time.Duration(mathx.CeilDiv(us, 1000)) * time.Millisecond
}

// factor maps an osrs field to its sample count (0, 1, 2, 4, 8, 16).
func factor(o tbme.Oversampling) uint32 {
	if o == tbme.SamplingOff {
		return 0
	}
	if o > tbme.Sampling16X {
		o = tbme.Sampling16X
	}
	return 1 << (uint32(o) - 1)
}

// Device wraps an I2C connection to a BME280 device.
type Device struct {
	bus     drivers.I2C
	Address uint16

	cfg Config
	w   [2]byte // reuse buffers to avoid allocations
	r   [1]byte
}

// New creates a new BME280 connection. The I2C bus must already be
// configured. This function only creates the Device object; it does not
// touch the device.
func New(bus drivers.I2C) Device {
	return Device{
		bus:     bus,
		Address: Address,
		cfg:     DefaultConfig(),
	}
}

// Configure applies cfg. It does not touch the device; oversampling is
// written on every Trigger because forced mode returns to sleep after each
// conversion.
func (d *Device) Configure(cfg Config) {
	cfg = cfg.withDefaults()
	d.Address = cfg.Address
	d.cfg = cfg
}

// Config returns the effective configuration.
func (d *Device) Config() Config { return d.cfg }

// ReadRegister reads len(dst) bytes starting at reg.
func (d *Device) ReadRegister(reg byte, dst []byte) error {
	d.w[0] = reg
	return d.bus.Tx(d.Address, d.w[:1], dst)
}

// WriteRegister writes a single register.
func (d *Device) WriteRegister(reg, val byte) error {
	d.w[0] = reg
	d.w[1] = val
	return d.bus.Tx(d.Address, d.w[:2], nil)
}

// ChipID reads the id register.
func (d *Device) ChipID() (byte, error) {
	if err := d.ReadRegister(regChipID, d.r[:]); err != nil {
		return 0, err
	}
	return d.r[0], nil
}

// Connected returns whether a BME280 answers on the configured address.
func (d *Device) Connected() bool {
	id, err := d.ChipID()
	return err == nil && id == ChipID
}

// Reset issues a soft reset. Give the device ~2 ms afterwards before using.
func (d *Device) Reset() error {
	return d.WriteRegister(regReset, cmdSoftReset)
}

// ReadCalibration reads the factory calibration in three transactions:
// 26 bytes from 0x88, 1 byte from 0xA1 and 7 bytes from 0xE1. Bus errors are
// returned unchanged and not retried.
func (d *Device) ReadCalibration() (Calibration, error) {
	var (
		tp [CalibTPLen]byte
		h1 [1]byte
		h  [CalibHLen]byte
	)
	if err := d.ReadRegister(regCalibTP, tp[:]); err != nil {
		return Calibration{}, err
	}
	if err := d.ReadRegister(regCalibH1, h1[:]); err != nil {
		return Calibration{}, err
	}
	if err := d.ReadRegister(regCalibH, h[:]); err != nil {
		return Calibration{}, err
	}
	return DecodeCalibration(tp, h1[0], h), nil
}

// Trigger programs oversampling and starts one forced conversion. ctrl_hum
// only takes effect after a write to ctrl_meas, so the order is fixed.
func (d *Device) Trigger() error {
	if err := d.WriteRegister(regCtrlHum, d.cfg.CtrlHum()); err != nil {
		return err
	}
	return d.WriteRegister(regCtrlMeas, d.cfg.CtrlMeas())
}

// TriggerHint returns the wait to observe before attempting Collect.
func (d *Device) TriggerHint() time.Duration { return d.cfg.Settle }

// Collect reads the 8 data bytes if the conversion has finished. If the
// device is still measuring, ErrNotReady is returned. Any bus error is
// returned as-is.
func (d *Device) Collect(out *[DataLen]byte) error {
	if err := d.ReadRegister(regStatus, d.r[:]); err != nil {
		return err
	}
	if d.r[0]&statusMeasuring != 0 {
		return ErrNotReady
	}
	return d.ReadRegister(regPressMSB, out[:])
}

// Read performs a full measurement cycle: Trigger, the settle wait, then
// bounded polling until Collect succeeds or the timeout elapses.
func (d *Device) Read() (RawSample, error) {
	if err := d.Trigger(); err != nil {
		return RawSample{}, err
	}
	time.Sleep(d.cfg.Settle)
	deadline := time.Now().Add(d.cfg.CollectTimeout)
	var buf [DataLen]byte
	for {
		err := d.Collect(&buf)
		switch err {
		case nil:
			return DecodeData(buf), nil
		case ErrNotReady:
			if time.Now().After(deadline) {
				return RawSample{}, ErrTimeout
			}
			time.Sleep(d.cfg.PollInterval)
		default:
			return RawSample{}, err
		}
	}
}
