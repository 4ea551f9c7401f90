// Package heartbeat logs a periodic one-line summary of the sensor: the
// last reading and the health counters, both taken from retained topics.
package heartbeat

import (
	"context"
	"time"

	"ulpsense-go/bus"
	"ulpsense-go/errcode"
	"ulpsense-go/services/config"
	"ulpsense-go/types"
	"ulpsense-go/x/logx"
)

var (
	topicConfigHeartbeat = bus.T("config", "heartbeat")
	topicEnv             = bus.T("env", "+", "+")
)

// Config is supplied on config/heartbeat.
type Config struct {
	Interval float64 `json:"interval"` // seconds
}

type Service struct {
	Interval time.Duration // default 30 s
	log      *logx.Logger

	reading types.EnvReading
	health  types.SensorHealth
	seen    bool
}

func (s *Service) serviceLoop(ctx context.Context, conn *bus.Connection) {
	cfgSub := conn.Subscribe(topicConfigHeartbeat)
	defer conn.Unsubscribe(cfgSub)
	envSub := conn.Subscribe(topicEnv)
	defer conn.Unsubscribe(envSub)

	tick := time.NewTicker(s.Interval)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("stopping")
			return
		case <-tick.C:
			s.beat()
		case msg := <-envSub.Channel():
			s.observe(msg)
		case msg := <-cfgSub.Channel():
			var c Config
			if err := config.Decode(msg.Payload, &c); err != nil || c.Interval <= 0 {
				s.log.Warn("ignoring config", "payload", msg.Payload)
				continue
			}
			s.Interval = time.Duration(c.Interval * float64(time.Second))
			tick.Reset(s.Interval)
			s.log.Info("interval set", "interval", s.Interval)
		}
	}
}

func (s *Service) observe(m *bus.Message) {
	switch v := m.Payload.(type) {
	case types.EnvReading:
		s.reading = v
		s.seen = true
	case types.SensorHealth:
		s.health = v
	}
}

func (s *Service) beat() {
	if !s.seen {
		s.log.Info("no reading yet", "link", s.health.Link, "faults", s.health.Faults)
		return
	}
	r := s.reading
	s.log.Info("alive",
		"seq", r.Seq,
		"centi_c", r.CentiC,
		"pa_x256", r.PaX256,
		"rh_x1024", r.RHx1024,
		"link", s.health.Link,
		"cycles", s.health.Cycles,
		"nacks", s.health.Nacks,
		"bus_errors", s.health.BusErrors,
		"overruns", s.health.Overruns)
}

// Start the heartbeat service.
func (s *Service) Start(ctx context.Context, conn *bus.Connection) error {
	if conn == nil {
		return &errcode.E{C: errcode.InvalidParams, Op: "heartbeat.start", Msg: "no bus connection"}
	}
	if s.Interval <= 0 {
		s.Interval = 30 * time.Second
	}
	s.log = logx.New("heartbeat")
	go s.serviceLoop(ctx, conn)
	return nil
}
