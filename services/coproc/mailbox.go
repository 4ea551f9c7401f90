package coproc

import (
	"sync/atomic"

	"ulpsense-go/drivers/bme280"
	"ulpsense-go/errcode"
	"ulpsense-go/x/shmring"

	"github.com/sigurn/crc8"
)

// Frame layout in the mailbox ring:
//
//	[0]     magic 0xB2
//	[1]     fault reason, 0 when the data is valid
//	[2:4]   sequence, little-endian
//	[4:12]  data registers 0xF7..0xFE as read
//	[12:15] reserved, zero
//	[15]    crc8 over [0:15]
const (
	FrameLen   = 16
	frameMagic = 0xB2
)

// Fault classifies why the coprocessor produced no data.
type Fault uint8

const (
	FaultNone Fault = iota
	FaultNack
	FaultBus
	FaultTimeout
)

// Code maps the fault onto the shared error codes.
func (f Fault) Code() errcode.Code {
	switch f {
	case FaultNone:
		return errcode.OK
	case FaultNack:
		return errcode.Nack
	case FaultTimeout:
		return errcode.Timeout
	default:
		return errcode.BusError
	}
}

func faultOf(c errcode.Code) Fault {
	switch c {
	case errcode.Nack:
		return FaultNack
	case errcode.Timeout:
		return FaultTimeout
	default:
		return FaultBus
	}
}

var crcTable = crc8.MakeTable(crc8.CRC8)

// Frame is one measurement result written by the coprocessor.
type Frame struct {
	Seq   uint16
	Fault Fault // FaultNone when Data holds a sample
	Data  [bme280.DataLen]byte
}

// Counters are the coprocessor's error signals. They are written only by
// the producer and read by the main unit after a wake.
type Counters struct {
	Frames    uint32
	Nacks     uint32
	BusErrors uint32
	Timeouts  uint32
	Overruns  uint32
}

// Mailbox is the shared buffer between the coprocessor (producer) and the
// main unit (consumer). The readable edge of the ring is the wake signal.
type Mailbox struct {
	ring *shmring.Ring
	seq  uint16 // producer only

	frames, nacks, busErrors, timeouts, overruns atomic.Uint32
}

// NewMailbox returns a mailbox holding up to slots frames. slots is
// rounded up to a power of two.
func NewMailbox(slots int) *Mailbox {
	if slots <= 0 {
		slots = 4
	}
	n := 1
	for n < slots {
		n <<= 1
	}
	return &Mailbox{ring: shmring.New(n * FrameLen)}
}

// Slots returns the number of frames the mailbox can hold.
func (m *Mailbox) Slots() int { return m.ring.Size() / FrameLen }

// Post appends f and assigns its sequence number. If no slot is free the
// frame is dropped, Overruns increments and false is returned.
func (m *Mailbox) Post(f Frame) bool {
	if m.ring.Space() < FrameLen {
		m.overruns.Add(1)
		return false
	}
	m.seq++
	f.Seq = m.seq
	var b [FrameLen]byte
	b[0] = frameMagic
	b[1] = byte(f.Fault)
	b[2] = byte(f.Seq)
	b[3] = byte(f.Seq >> 8)
	copy(b[4:12], f.Data[:])
	b[15] = crc8.Checksum(b[:15], crcTable)
	m.ring.TryWriteFrom(b[:])
	m.frames.Add(1)
	return true
}

// Take removes the oldest frame. It returns false when the mailbox is
// empty. A frame that fails its checksum is consumed and reported as
// errcode.CorruptFrame; its bytes must not be decoded.
func (m *Mailbox) Take(f *Frame) (bool, error) {
	if m.ring.Available() < FrameLen {
		return false, nil
	}
	var b [FrameLen]byte
	m.ring.TryReadInto(b[:])
	if b[0] != frameMagic || crc8.Checksum(b[:15], crcTable) != b[15] {
		return true, &errcode.E{C: errcode.CorruptFrame, Op: "mailbox.take"}
	}
	f.Seq = uint16(b[2]) | uint16(b[3])<<8
	f.Fault = Fault(b[1])
	copy(f.Data[:], b[4:12])
	return true, nil
}

// Pending returns the number of complete frames waiting.
func (m *Mailbox) Pending() int { return m.ring.Available() / FrameLen }

// Wake fires when the mailbox goes from empty to non-empty.
func (m *Mailbox) Wake() <-chan struct{} { return m.ring.Readable() }

// Counters returns a snapshot of the error signals.
func (m *Mailbox) Counters() Counters {
	return Counters{
		Frames:    m.frames.Load(),
		Nacks:     m.nacks.Load(),
		BusErrors: m.busErrors.Load(),
		Timeouts:  m.timeouts.Load(),
		Overruns:  m.overruns.Load(),
	}
}

// count records a failed transfer under its class.
func (m *Mailbox) count(f Fault) {
	switch f {
	case FaultNack:
		m.nacks.Add(1)
	case FaultTimeout:
		m.timeouts.Add(1)
	default:
		m.busErrors.Add(1)
	}
}
