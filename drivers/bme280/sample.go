package bme280

// RawSample holds the uncompensated ADC codes of one measurement.
// Pressure and temperature carry 20 significant bits, humidity 16.
type RawSample struct {
	Pressure    int32
	Temperature int32
	Humidity    int32
}

// DecodeRawSample assembles ADC codes from the data registers. The top
// nibble of each xlsb byte is significant; the low nibble is discarded.
func DecodeRawSample(p [3]byte, t [3]byte, h [2]byte) RawSample {
	return RawSample{
		Pressure:    int32(p[0])<<12 | int32(p[1])<<4 | int32(p[2])>>4,
		Temperature: int32(t[0])<<12 | int32(t[1])<<4 | int32(t[2])>>4,
		Humidity:    int32(h[0])<<8 | int32(h[1]),
	}
}

// DecodeData splits an 8-byte burst read from 0xF7 and decodes it.
func DecodeData(b [DataLen]byte) RawSample {
	return DecodeRawSample(
		[3]byte{b[0], b[1], b[2]},
		[3]byte{b[3], b[4], b[5]},
		[2]byte{b[6], b[7]},
	)
}

// EncodeData returns the burst layout that decodes to s. The discarded low
// nibble of each xlsb byte is left zero.
func EncodeData(s RawSample) (b [DataLen]byte) {
	b[0] = byte(s.Pressure >> 12)
	b[1] = byte(s.Pressure >> 4)
	b[2] = byte(s.Pressure<<4) & 0xF0
	b[3] = byte(s.Temperature >> 12)
	b[4] = byte(s.Temperature >> 4)
	b[5] = byte(s.Temperature<<4) & 0xF0
	b[6] = byte(s.Humidity >> 8)
	b[7] = byte(s.Humidity)
	return b
}
