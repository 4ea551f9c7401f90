// Package node is the acquisition orchestrator. Each wake runs one Step:
// a cold start reads the sensor calibration and hands the measurement
// program to the coprocessor; a coprocessor wake compensates the frames it
// left in the mailbox. Either way the retained state is saved and the unit
// goes back to sleep.
package node

import (
	"context"
	"errors"
	"time"

	"ulpsense-go/bus"
	"ulpsense-go/drivers/bme280"
	"ulpsense-go/drivers/led"
	"ulpsense-go/errcode"
	"ulpsense-go/services/coproc"
	"ulpsense-go/services/retained"
	"ulpsense-go/types"
	"ulpsense-go/x/logx"
	"ulpsense-go/x/timex"

	"tinygo.org/x/drivers"
)

const (
	sensorName = "bme280"
	envPrefix  = "env"
	nodePrefix = "node"
)

// Topics published by the node. All messages are retained.
var (
	TopicValue  = bus.T(envPrefix, sensorName, "value")
	TopicHealth = bus.T(envPrefix, sensorName, "health")
	TopicInfo   = bus.T(envPrefix, sensorName, "info")
	TopicState  = bus.T(nodePrefix, "state")
)

// TopicRead takes requests for an on-demand measurement. The reply is the
// next EnvReading, or a types.ErrorReply.
var TopicRead = bus.T(envPrefix, sensorName, "read")

// ReadTimeout bounds how long a read request waits for its reading.
const ReadTimeout = 5 * time.Second

// Deps are the collaborators of a Service.
type Deps struct {
	I2C     drivers.I2C // used by the main unit for the calibration read
	BusName string      // label for EnvInfo, e.g. "i2c0"
	Coproc  coproc.Coprocessor
	Store   retained.Store
	Power   Power
	Conn    *bus.Connection

	FaultLED *led.LED // optional; lit on transport and sensor faults
}

// Service runs the two-state acquisition cycle.
type Service struct {
	Deps
	prog coproc.Program
	log  *logx.Logger

	state  retained.State
	loaded bool
}

func New(d Deps, prog coproc.Program) *Service {
	return &Service{
		Deps: d,
		prog: prog,
		log:  logx.New("node"),
	}
}

// State returns the in-memory copy of the retained state.
func (s *Service) State() retained.State { return s.state }

// Run executes one step per wake until ctx is cancelled or Power.Sleep
// fails. Step errors are logged; the next wake tries again.
func (s *Service) Run(ctx context.Context) error {
	reqs := s.Conn.Subscribe(TopicRead)
	defer s.Conn.Unsubscribe(reqs)
	go s.serveReads(ctx, reqs)

	cause := s.Power.WakeCause()
	for {
		if err := s.Step(ctx, cause); err != nil {
			s.log.Error("step failed", "cause", cause, "code", errcode.Of(err), "err", err)
		}
		s.publishState("sleeping", errcode.OK)
		next, err := s.Power.Sleep(ctx)
		if err != nil {
			return err
		}
		cause = next
	}
}

// Step handles a single wake. The retained state is saved before Step
// returns, whether or not the cycle succeeded.
func (s *Service) Step(ctx context.Context, cause WakeCause) error {
	s.load()
	defer s.save()

	if cause != WakeCoprocessor || !s.state.Calibrated {
		if cause == WakeCoprocessor {
			s.log.Warn("coprocessor wake without calibration, cold starting")
		}
		return s.coldStart(ctx)
	}
	return s.measure()
}

func (s *Service) load() {
	if s.loaded {
		return
	}
	s.loaded = true
	st, err := s.Store.Load()
	switch {
	case err == nil:
		s.state = st
	case errors.Is(err, retained.ErrNoState):
		s.log.Info("no retained state")
	default:
		s.log.Warn("retained state discarded", "err", err)
	}
}

func (s *Service) save() {
	if err := s.Store.Save(s.state); err != nil {
		s.log.Error("save retained state", "err", err)
	}
}

// coldStart reads chip id and calibration, then starts the coprocessor.
func (s *Service) coldStart(ctx context.Context) error {
	s.publishState("cold_start", errcode.OK)
	s.state.Boots++
	s.state.Calibrated = false

	dev := bme280.New(s.I2C)
	dev.Configure(s.prog.Sensor)

	id, err := dev.ChipID()
	if err != nil {
		return s.transportFault("node.chip_id", err)
	}
	if id != bme280.ChipID {
		s.FaultLED.Set(true)
		s.publishHealth(types.LinkDown, errcode.WrongChip)
		return &errcode.E{C: errcode.WrongChip, Op: "node.chip_id", Err: bme280.ErrWrongChip}
	}
	cal, err := dev.ReadCalibration()
	if err != nil {
		return s.transportFault("node.calibration", err)
	}
	s.state.Calibration = cal
	s.state.Calibrated = true
	s.log.Info("calibration loaded", "addr", dev.Address, "t1", cal.T1, "p1", cal.P1, "h1", cal.H1)

	s.Conn.Publish(s.Conn.NewMessage(TopicInfo, types.EnvInfo{
		Sensor: sensorName,
		Addr:   dev.Address,
		Bus:    s.BusName,
	}, true))

	if err := s.Coproc.Start(ctx, s.prog); err != nil && errcode.Of(err) != errcode.Busy {
		return errcode.Wrap("node.coproc_start", err)
	}
	s.log.Info("measurement program running", "period", s.prog.Period, "settle", s.prog.Sensor.Settle)
	s.publishHealth(types.LinkUp, errcode.OK)
	return nil
}

func (s *Service) transportFault(op string, err error) error {
	code := errcode.MapDriverErr(err)
	s.countFault(code)
	s.FaultLED.Set(true)
	s.publishHealth(types.LinkDown, code)
	return &errcode.E{C: code, Op: op, Err: err}
}

func (s *Service) countFault(c errcode.Code) {
	switch c {
	case errcode.Nack:
		s.state.Counters.Nacks++
	case errcode.Timeout:
		s.state.Counters.Timeouts++
	default:
		s.state.Counters.BusErrors++
	}
}

// measure drains the mailbox. Fault and corrupt frames are counted and
// never decoded.
func (s *Service) measure() error {
	s.publishState("measuring", errcode.OK)
	s.state.Cycles++
	var (
		f         coproc.Frame
		good, bad int
		last      errcode.Code
		cal       = s.state.Calibration
	)
	for {
		ok, err := s.Coproc.Poll(&f)
		if !ok {
			break
		}
		if err != nil {
			bad++
			last = errcode.Of(err)
			s.state.Counters.Faults++
			s.FaultLED.Set(true)
			s.log.Warn("frame rejected", "err", err)
			continue
		}
		s.state.LastSeq = f.Seq
		if f.Fault != coproc.FaultNone {
			bad++
			last = f.Fault.Code()
			s.state.Counters.Faults++
			s.countFault(last)
			s.FaultLED.Set(true)
			s.log.Warn("coprocessor fault", "seq", f.Seq, "code", last)
			continue
		}

		raw := bme280.DecodeData(f.Data)
		r := cal.Compensate(raw)
		if !r.PressureValid() {
			s.state.Counters.Degenerate++
			last = errcode.Degenerate
			s.log.Warn("pressure degenerate", "seq", f.Seq, "adc_p", raw.Pressure)
		}
		good++
		s.publishReading(f.Seq, r)
	}
	s.state.Counters.Overruns = s.Coproc.Counters().Overruns

	switch {
	case good == 0 && bad == 0:
		s.log.Warn("coprocessor wake with empty mailbox")
		return nil
	case good == 0:
		s.publishHealth(types.LinkDown, last)
		return &errcode.E{C: errcode.SensorFault, Op: "node.measure", Msg: string(last)}
	case bad > 0 || last == errcode.Degenerate:
		s.publishHealth(types.LinkDegraded, last)
	default:
		s.FaultLED.Set(false)
		s.publishHealth(types.LinkUp, errcode.OK)
	}
	return nil
}

// serveReads answers TopicRead until reqs is closed. Each request triggers
// an early coprocessor cycle; Run handles the wake and publishes the
// reading, which is forwarded as the reply.
func (s *Service) serveReads(ctx context.Context, reqs *bus.Subscription) {
	for req := range reqs.Channel() {
		s.serveRead(ctx, req)
	}
}

func (s *Service) serveRead(ctx context.Context, req *bus.Message) {
	vals := s.Conn.Subscribe(TopicValue)
	defer s.Conn.Unsubscribe(vals)
	// Drop the retained reading; it predates the request.
	select {
	case <-vals.Channel():
	default:
	}

	if err := s.Coproc.Trigger(); err != nil {
		s.log.Warn("read request refused", "err", err)
		s.Conn.Reply(req, types.ErrorReply{Error: string(errcode.Of(err))}, false)
		return
	}
	ctx, cancel := context.WithTimeout(ctx, ReadTimeout)
	defer cancel()
	select {
	case m := <-vals.Channel():
		s.Conn.Reply(req, m.Payload, false)
	case <-ctx.Done():
		s.Conn.Reply(req, types.ErrorReply{Error: string(errcode.Timeout)}, false)
	}
}

func (s *Service) publishReading(seq uint16, r bme280.Reading) {
	s.log.Info("reading", "seq", seq,
		"temp_c", r.Celsius(), "press_pa", r.Pascal(), "rh", r.RelHumidity())
	s.Conn.Publish(s.Conn.NewMessage(TopicValue, types.EnvReading{
		CentiC:        r.TemperatureCentiC,
		PaX256:        r.PressurePa256,
		PressureValid: r.PressureValid(),
		Pa:            r.PaRounded(),
		RHx1024:       r.HumidityRH1024,
		Seq:           seq,
		TS:            timex.NowMs(),
	}, true))
}

func (s *Service) publishHealth(link types.Link, last errcode.Code) {
	h := types.SensorHealth{
		Link:       link,
		Boots:      s.state.Boots,
		Cycles:     s.state.Cycles,
		Nacks:      s.state.Counters.Nacks,
		BusErrors:  s.state.Counters.BusErrors,
		Timeouts:   s.state.Counters.Timeouts,
		Overruns:   s.state.Counters.Overruns,
		Faults:     s.state.Counters.Faults,
		Degenerate: s.state.Counters.Degenerate,
		TS:         timex.NowMs(),
	}
	if last != "" && last != errcode.OK {
		h.LastError = string(last)
	}
	s.Conn.Publish(s.Conn.NewMessage(TopicHealth, h, true))
}

func (s *Service) publishState(level string, code errcode.Code) {
	s.Conn.Publish(s.Conn.NewMessage(TopicState, types.NodeState{
		Level:  level,
		Status: string(code),
		TS:     timex.NowMs(),
	}, true))
}
