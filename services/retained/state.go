// Package retained holds the state that survives low-power suspend: the
// sensor calibration and the acquisition counters. The state is saved as a
// checksummed binary image before every suspend and restored after every
// wake, so nothing depends on implicit globals.
package retained

import (
	"encoding/binary"
	"errors"

	"ulpsense-go/drivers/bme280"
	"ulpsense-go/errcode"

	"github.com/sigurn/crc8"
)

const (
	magic0  = 'R'
	magic1  = 'T'
	version = 1

	flagCalibrated = 1 << 0

	offFlags  = 3
	offBoots  = 4
	offCycles = 8
	offSeq    = 12
	offCount  = 14 // six uint32 counters
	offCalib  = offCount + 6*4
	offCRC    = offCalib + bme280.ImageLen

	// ImageLen is the size of a serialised State.
	ImageLen = offCRC + 1
)

// ErrNoState is returned by Load when nothing has been saved yet.
var ErrNoState = errors.New("retained: no state")

var crcTable = crc8.MakeTable(crc8.CRC8)

// Counters accumulates acquisition health across wakes.
type Counters struct {
	Nacks      uint32 // coprocessor transfers not acknowledged
	BusErrors  uint32 // other coprocessor transfer failures
	Timeouts   uint32 // conversions that never finished
	Overruns   uint32 // frames dropped because the mailbox was full
	Faults     uint32 // fault frames seen by the main unit
	Degenerate uint32 // samples whose pressure ladder collapsed
}

// State is everything the main unit keeps across suspend.
type State struct {
	Boots       uint32 // cold starts
	Cycles      uint32 // measurement wakes
	LastSeq     uint16 // last mailbox frame consumed
	Calibrated  bool
	Calibration bme280.Calibration
	Counters    Counters
}

// MarshalBinary encodes s into its fixed image.
func (s State) MarshalBinary() ([]byte, error) {
	b := make([]byte, ImageLen)
	b[0], b[1], b[2] = magic0, magic1, version
	if s.Calibrated {
		b[offFlags] |= flagCalibrated
	}
	le := binary.LittleEndian
	le.PutUint32(b[offBoots:], s.Boots)
	le.PutUint32(b[offCycles:], s.Cycles)
	le.PutUint16(b[offSeq:], s.LastSeq)
	for i, v := range s.Counters.slice() {
		le.PutUint32(b[offCount+4*i:], v)
	}
	im := s.Calibration.Image()
	copy(b[offCalib:], im[:])
	b[offCRC] = crc8.Checksum(b[:offCRC], crcTable)
	return b, nil
}

// UnmarshalBinary decodes an image written by MarshalBinary. Any length,
// header or checksum mismatch yields errcode.CorruptState.
func (s *State) UnmarshalBinary(b []byte) error {
	if len(b) != ImageLen || b[0] != magic0 || b[1] != magic1 || b[2] != version {
		return &errcode.E{C: errcode.CorruptState, Op: "retained.decode", Msg: "bad header"}
	}
	if crc8.Checksum(b[:offCRC], crcTable) != b[offCRC] {
		return &errcode.E{C: errcode.CorruptState, Op: "retained.decode", Msg: "checksum mismatch"}
	}
	le := binary.LittleEndian
	var out State
	out.Calibrated = b[offFlags]&flagCalibrated != 0
	out.Boots = le.Uint32(b[offBoots:])
	out.Cycles = le.Uint32(b[offCycles:])
	out.LastSeq = le.Uint16(b[offSeq:])
	cs := out.Counters.ptrs()
	for i := range cs {
		*cs[i] = le.Uint32(b[offCount+4*i:])
	}
	var im bme280.Image
	copy(im[:], b[offCalib:offCRC])
	out.Calibration = im.Calibration()
	*s = out
	return nil
}

func (c Counters) slice() [6]uint32 {
	return [6]uint32{c.Nacks, c.BusErrors, c.Timeouts, c.Overruns, c.Faults, c.Degenerate}
}

func (c *Counters) ptrs() [6]*uint32 {
	return [6]*uint32{&c.Nacks, &c.BusErrors, &c.Timeouts, &c.Overruns, &c.Faults, &c.Degenerate}
}
