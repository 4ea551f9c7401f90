package coproc

import (
	"context"
	"testing"
	"time"

	"ulpsense-go/drivers/bme280"
	"ulpsense-go/drivers/bme280/bme280sim"
	"ulpsense-go/errcode"

	"github.com/sigurn/crc8"
	tbme "tinygo.org/x/drivers/bme280"
)

var (
	testCal = bme280.Calibration{
		T1: 27504, T2: 26435, T3: -1000,
		P1: 36477, P2: -10685, P3: 3024, P4: 2855, P5: 140, P6: -7, P7: 15500, P8: -14600, P9: 6000,
		H1: 75, H2: 355, H3: 0, H4: 309, H5: 0, H6: 30,
	}
	testRaw = bme280.RawSample{Pressure: 415148, Temperature: 519888, Humidity: 25386}
)

// fastProgram keeps conversions short: 1x oversampling, long period so
// only the initial run and explicit triggers measure.
func fastProgram() Program {
	return Program{
		Sensor: bme280.Config{
			Temperature: tbme.Sampling1X,
			Pressure:    tbme.Sampling1X,
			Humidity:    tbme.Sampling1X,
			Settle:      time.Millisecond,
		},
		Period:       time.Hour,
		RetryBackoff: time.Millisecond,
		MaxRetries:   2,
	}
}

func waitFrame(t *testing.T, c Coprocessor) Frame {
	t.Helper()
	deadline := time.After(time.Second)
	for {
		var f Frame
		ok, err := c.Poll(&f)
		if err != nil {
			t.Fatalf("poll: %v", err)
		}
		if ok {
			return f
		}
		select {
		case <-c.Wake():
		case <-time.After(5 * time.Millisecond):
		case <-deadline:
			t.Fatal("timeout waiting for frame")
		}
	}
}

func TestMailboxPostTake(t *testing.T) {
	m := NewMailbox(2)
	data := bme280.EncodeData(testRaw)

	if !m.Post(Frame{Data: data}) {
		t.Fatal("post 1 failed")
	}
	select {
	case <-m.Wake():
	default:
		t.Fatal("expected wake edge after first post")
	}
	if !m.Post(Frame{Fault: FaultNack}) {
		t.Fatal("post 2 failed")
	}
	if m.Post(Frame{Data: data}) {
		t.Fatal("post into full mailbox succeeded")
	}
	if got := m.Counters(); got.Overruns != 1 || got.Frames != 2 {
		t.Fatalf("counters = %+v", got)
	}
	if m.Pending() != 2 {
		t.Fatalf("pending = %d", m.Pending())
	}

	var f Frame
	if ok, err := m.Take(&f); !ok || err != nil {
		t.Fatalf("take 1: %v %v", ok, err)
	}
	if f.Seq != 1 || f.Fault != FaultNone || f.Data != data {
		t.Fatalf("frame 1 = %+v", f)
	}
	if ok, err := m.Take(&f); !ok || err != nil {
		t.Fatalf("take 2: %v %v", ok, err)
	}
	if f.Seq != 2 || f.Fault != FaultNack || f.Fault.Code() != errcode.Nack {
		t.Fatalf("frame 2 = %+v", f)
	}
	if ok, _ := m.Take(&f); ok {
		t.Fatal("take from empty mailbox")
	}
}

func TestMailboxRoundsSlots(t *testing.T) {
	for _, tc := range []struct{ slots, want int }{
		{0, 4}, {1, 1}, {3, 4}, {5, 8}, {8, 8},
	} {
		if got := NewMailbox(tc.slots).Slots(); got != tc.want {
			t.Errorf("NewMailbox(%d).Slots() = %d, want %d", tc.slots, got, tc.want)
		}
	}

	m := NewMailbox(3)
	for i := 0; i < 4; i++ {
		if !m.Post(Frame{Fault: FaultTimeout}) {
			t.Fatalf("post %d failed", i+1)
		}
	}
	if m.Post(Frame{}) || m.Counters().Overruns != 1 {
		t.Fatalf("fifth post accepted; counters = %+v", m.Counters())
	}
}

func TestMailboxRejectsCorruptFrame(t *testing.T) {
	m := NewMailbox(2)
	garbage := make([]byte, FrameLen)
	garbage[0] = frameMagic
	garbage[4] = 0x7E
	garbage[15] = crc8.Checksum(garbage[:15], crcTable) ^ 0xFF
	m.ring.TryWriteFrom(garbage)

	var f Frame
	ok, err := m.Take(&f)
	if !ok || errcode.Of(err) != errcode.CorruptFrame {
		t.Fatalf("take = %v, %v; want consumed corrupt frame", ok, err)
	}
	if m.Pending() != 0 {
		t.Fatal("corrupt frame not consumed")
	}
}

func TestSimPostsSample(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	chip := bme280sim.New(testCal, testRaw)
	sim := NewSim(chip, NewMailbox(4))
	if err := sim.Start(ctx, fastProgram()); err != nil {
		t.Fatal(err)
	}

	f := waitFrame(t, sim)
	if f.Fault != FaultNone {
		t.Fatalf("unexpected fault %v", f.Fault)
	}
	if got := bme280.DecodeData(f.Data); got != testRaw {
		t.Fatalf("raw = %+v, want %+v", got, testRaw)
	}
	// ctrl_hum must carry osrs_h, ctrl_meas osrs_t/osrs_p and forced mode.
	if chip.Reg(bme280.RegCtrlHum) != 0x01 || chip.Reg(bme280.RegCtrlMeas) != 0x25 {
		t.Fatalf("ctrl_hum=%#x ctrl_meas=%#x", chip.Reg(bme280.RegCtrlHum), chip.Reg(bme280.RegCtrlMeas))
	}
	if err := sim.Start(ctx, fastProgram()); errcode.Of(err) != errcode.Busy {
		t.Fatalf("second Start err = %v, want busy", err)
	}
}

func TestSimTriggerRunsExtraCycle(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	chip := bme280sim.New(testCal, testRaw)
	sim := NewSim(chip, NewMailbox(4))
	if err := sim.Trigger(); err != ErrNotRunning {
		t.Fatalf("Trigger before Start = %v", err)
	}
	if err := sim.Start(ctx, fastProgram()); err != nil {
		t.Fatal(err)
	}
	first := waitFrame(t, sim)

	next := testRaw
	next.Temperature = 520000
	chip.SetSample(next)
	if err := sim.Trigger(); err != nil {
		t.Fatal(err)
	}
	second := waitFrame(t, sim)
	if second.Seq != first.Seq+1 {
		t.Fatalf("seq %d after %d", second.Seq, first.Seq)
	}
	if got := bme280.DecodeData(second.Data); got != next {
		t.Fatalf("raw = %+v, want %+v", got, next)
	}
}

func TestSimSignalsNack(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	chip := bme280sim.New(testCal, testRaw)
	chip.SetAddress(bme280.AddressAlt) // program talks to 0x76
	sim := NewSim(chip, NewMailbox(4))
	if err := sim.Start(ctx, fastProgram()); err != nil {
		t.Fatal(err)
	}
	f := waitFrame(t, sim)
	if f.Fault != FaultNack {
		t.Fatalf("fault = %v, want nack", f.Fault)
	}
	if c := sim.Counters(); c.Nacks != 1 || c.BusErrors != 0 {
		t.Fatalf("counters = %+v", c)
	}
}

func TestSimSignalsBusErrorAndTimeout(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	chip := bme280sim.New(testCal, testRaw)
	chip.FailNext(nil, bme280sim.ErrBus) // ctrl_meas write fails
	sim := NewSim(chip, NewMailbox(4))
	if err := sim.Start(ctx, fastProgram()); err != nil {
		t.Fatal(err)
	}
	if f := waitFrame(t, sim); f.Fault != FaultBus {
		t.Fatalf("fault = %v, want bus", f.Fault)
	}

	chip.SetBusyPolls(100)
	if err := sim.Trigger(); err != nil {
		t.Fatal(err)
	}
	if f := waitFrame(t, sim); f.Fault != FaultTimeout {
		t.Fatalf("fault = %v, want timeout", f.Fault)
	}
	if c := sim.Counters(); c.BusErrors != 1 || c.Timeouts != 1 {
		t.Fatalf("counters = %+v", c)
	}
}
