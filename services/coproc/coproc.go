// Package coproc models the low-power coprocessor that measures the sensor
// while the main unit is suspended. The program runs on its own execution
// unit; the only things shared with the main unit are the Mailbox and its
// wake edge.
package coproc

import (
	"context"
	"sync/atomic"
	"time"

	"ulpsense-go/drivers/bme280"
	"ulpsense-go/errcode"
	"ulpsense-go/x/logx"
	"ulpsense-go/x/timex"

	"tinygo.org/x/drivers"
)

// ErrNotRunning is returned by Trigger before Start.
var ErrNotRunning error = &errcode.E{C: errcode.NotRunning, Op: "coproc.trigger"}

// Coprocessor is the measurement collaborator as seen by the main unit.
type Coprocessor interface {
	// Start loads p and begins periodic measurement. It returns at once.
	Start(ctx context.Context, p Program) error
	// Trigger requests one measurement ahead of the period.
	Trigger() error
	// Poll takes the oldest result, if any.
	Poll(f *Frame) (bool, error)
	// Wake fires when results become available.
	Wake() <-chan struct{}
	// Pending returns the number of results waiting.
	Pending() int
	// Counters returns the error signals.
	Counters() Counters
}

// Program is the fixed script loaded into the coprocessor: write ctrl_hum,
// write ctrl_meas, wait Settle, read the data registers, store, wake.
type Program struct {
	Sensor       bme280.Config
	Period       time.Duration
	RetryBackoff time.Duration
	MaxRetries   int
}

// DefaultPeriod matches the ULP wake-up timer of the firmware.
const DefaultPeriod = 10 * time.Second

// NewProgram returns the program for sensor with timing defaults applied.
func NewProgram(sensor bme280.Config, period time.Duration) Program {
	p := Program{Sensor: sensor, Period: period}
	return p.withDefaults()
}

func (p Program) withDefaults() Program {
	if p.Period <= 0 {
		p.Period = DefaultPeriod
	}
	if p.RetryBackoff <= 0 {
		p.RetryBackoff = 5 * time.Millisecond
	}
	if p.MaxRetries <= 0 {
		p.MaxRetries = 6
	}
	return p
}

// Sim runs a Program on a goroutine over any drivers.I2C. It stands in for
// the coprocessor on hosts and on MCUs without a separate low-power core.
type Sim struct {
	bus  drivers.I2C
	mb   *Mailbox
	kick chan struct{}
	log  *logx.Logger

	running atomic.Bool
	cycles  atomic.Uint32
}

var _ Coprocessor = (*Sim)(nil)

func NewSim(bus drivers.I2C, mb *Mailbox) *Sim {
	return &Sim{
		bus:  bus,
		mb:   mb,
		kick: make(chan struct{}, 1),
		log:  logx.New("coproc"),
	}
}

// Start launches the program loop. The first measurement runs at once,
// then every p.Period. Once started the program cannot be aborted except by
// cancelling ctx.
func (s *Sim) Start(ctx context.Context, p Program) error {
	if !s.running.CompareAndSwap(false, true) {
		return &errcode.E{C: errcode.Busy, Op: "coproc.start", Msg: "program already running"}
	}
	p = p.withDefaults()
	dev := bme280.New(s.bus)
	dev.Configure(p.Sensor)
	go s.loop(ctx, &dev, p)
	return nil
}

func (s *Sim) Trigger() error {
	if !s.running.Load() {
		return ErrNotRunning
	}
	select {
	case s.kick <- struct{}{}:
	default:
	}
	return nil
}

func (s *Sim) Poll(f *Frame) (bool, error) { return s.mb.Take(f) }
func (s *Sim) Wake() <-chan struct{}       { return s.mb.Wake() }
func (s *Sim) Pending() int                { return s.mb.Pending() }
func (s *Sim) Counters() Counters          { return s.mb.Counters() }

// Cycles returns the number of program runs completed.
func (s *Sim) Cycles() uint32 { return s.cycles.Load() }

func (s *Sim) loop(ctx context.Context, dev *bme280.Device, p Program) {
	defer s.running.Store(false)
	timer := time.NewTimer(p.Period)
	defer timer.Stop()
	for {
		s.cycle(ctx, dev, p)
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		case <-s.kick:
		}
		timex.ResetTimer(timer, p.Period)
	}
}

// cycle runs the program once and posts either a data frame or a fault
// frame.
func (s *Sim) cycle(ctx context.Context, dev *bme280.Device, p Program) {
	defer s.cycles.Add(1)
	if err := dev.Trigger(); err != nil {
		s.fail("trigger", err)
		return
	}
	if !timex.Sleep(ctx.Done(), dev.TriggerHint()) {
		return
	}
	var f Frame
	for tries := 0; ; tries++ {
		err := dev.Collect(&f.Data)
		if err == nil {
			break
		}
		if err == bme280.ErrNotReady {
			if tries < p.MaxRetries {
				if !timex.Sleep(ctx.Done(), p.RetryBackoff) {
					return
				}
				continue
			}
			err = bme280.ErrTimeout
		}
		s.fail("collect", err)
		return
	}
	if !s.mb.Post(f) {
		s.log.Warn("mailbox full, sample dropped")
	}
}

func (s *Sim) fail(op string, err error) {
	fault := faultOf(errcode.MapDriverErr(err))
	s.mb.count(fault)
	s.log.Warn("transfer failed", "op", op, "code", fault.Code(), "err", err)
	s.mb.Post(Frame{Fault: fault})
}
