package bme280

// Calibration holds the factory trimming constants. Widths and signedness
// follow the register map; H4 and H5 are 12-bit two's complement values
// sign-extended into int16.
//
// A Calibration is read once per power cycle and never modified afterwards.
type Calibration struct {
	T1 uint16
	T2 int16
	T3 int16

	P1 uint16
	P2 int16
	P3 int16
	P4 int16
	P5 int16
	P6 int16
	P7 int16
	P8 int16
	P9 int16

	H1 uint8
	H2 int16
	H3 uint8
	H4 int16
	H5 int16
	H6 int8
}

// Image is the calibration register content laid out as read from the bus:
// 26 bytes from 0x88, 1 byte from 0xA1, 7 bytes from 0xE1.
type Image [ImageLen]byte

// DecodeCalibration parses the three calibration reads. tp holds
// T1,T2,T3,P1..P9 as little-endian words in register order (the trailing two
// bytes are ignored), h1 is the byte at 0xA1 and h the 7 bytes from 0xE1.
func DecodeCalibration(tp [CalibTPLen]byte, h1 byte, h [CalibHLen]byte) Calibration {
	var c Calibration

	c.T1 = le16(tp[0:])
	c.T2 = int16(le16(tp[2:]))
	c.T3 = int16(le16(tp[4:]))

	c.P1 = le16(tp[6:])
	c.P2 = int16(le16(tp[8:]))
	c.P3 = int16(le16(tp[10:]))
	c.P4 = int16(le16(tp[12:]))
	c.P5 = int16(le16(tp[14:]))
	c.P6 = int16(le16(tp[16:]))
	c.P7 = int16(le16(tp[18:]))
	c.P8 = int16(le16(tp[20:]))
	c.P9 = int16(le16(tp[22:]))

	c.H1 = h1
	c.H2 = int16(le16(h[0:]))
	c.H3 = h[2]
	// H4: 0xE4[7:0] -> bits 11:4, 0xE5[3:0] -> bits 3:0.
	c.H4 = int16(int8(h[3]))<<4 | int16(h[4]&0x0F)
	// H5: 0xE6[7:0] -> bits 11:4, 0xE5[7:4] -> bits 3:0.
	c.H5 = int16(int8(h[5]))<<4 | int16(h[4]>>4)
	c.H6 = int8(h[6])

	return c
}

// EncodeCalibration lays c out in register form. It is the inverse of
// DecodeCalibration for every H4/H5 value in the 12-bit signed range.
func EncodeCalibration(c Calibration) (tp [CalibTPLen]byte, h1 byte, h [CalibHLen]byte) {
	put16(tp[0:], c.T1)
	put16(tp[2:], uint16(c.T2))
	put16(tp[4:], uint16(c.T3))

	put16(tp[6:], c.P1)
	put16(tp[8:], uint16(c.P2))
	put16(tp[10:], uint16(c.P3))
	put16(tp[12:], uint16(c.P4))
	put16(tp[14:], uint16(c.P5))
	put16(tp[16:], uint16(c.P6))
	put16(tp[18:], uint16(c.P7))
	put16(tp[20:], uint16(c.P8))
	put16(tp[22:], uint16(c.P9))
	// 0xA1 sits inside the 0x88 burst as well.
	tp[25] = c.H1

	h1 = c.H1
	put16(h[0:], uint16(c.H2))
	h[2] = c.H3
	h[3] = byte(uint16(c.H4) >> 4)
	h[4] = byte(c.H4)&0x0F | byte(c.H5)<<4
	h[5] = byte(uint16(c.H5) >> 4)
	h[6] = byte(c.H6)
	return tp, h1, h
}

// Image returns the register image of c.
func (c Calibration) Image() Image {
	var im Image
	tp, h1, h := EncodeCalibration(c)
	copy(im[:CalibTPLen], tp[:])
	im[CalibTPLen] = h1
	copy(im[CalibTPLen+1:], h[:])
	return im
}

// Split returns the three register blocks held in the image.
func (im Image) Split() (tp [CalibTPLen]byte, h1 byte, h [CalibHLen]byte) {
	copy(tp[:], im[:CalibTPLen])
	h1 = im[CalibTPLen]
	copy(h[:], im[CalibTPLen+1:])
	return tp, h1, h
}

// Calibration decodes the image.
func (im Image) Calibration() Calibration {
	return DecodeCalibration(im.Split())
}

func le16(b []byte) uint16 { return uint16(b[0]) | uint16(b[1])<<8 }

func put16(b []byte, v uint16) {
	b[0] = byte(v) // low
	b[1] = byte(v >> 8)
}
