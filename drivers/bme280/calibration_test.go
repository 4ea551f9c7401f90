package bme280

import (
	"testing"
	"time"

	tbme "tinygo.org/x/drivers/bme280"
)

func TestCalibrationEncodeDecode(t *testing.T) {
	cases := []Calibration{
		vendorCal,
		{T1: 1, T2: -1, T3: -32768, P1: 65535, P9: 32767, H1: 255, H2: -2, H3: 200, H4: -2048, H5: -1, H6: -128},
		{H4: 2047, H5: -2048},
		{H4: -1, H5: 2047},
	}
	for i, want := range cases {
		got := DecodeCalibration(EncodeCalibration(want))
		if got != want {
			t.Errorf("case %d: got %+v, want %+v", i, got, want)
		}
		if im := want.Image(); im.Calibration() != want {
			t.Errorf("case %d: image round trip mismatch", i)
		}
	}
}

func TestDecodeCalibrationHumidityNibbles(t *testing.T) {
	var tp [CalibTPLen]byte
	// 0xE1..0xE7: H2=0x0163, H3=0, H4=0x13<<4|0x5, H5=0xFE<<4|0xA, H6=0x1E
	h := [CalibHLen]byte{0x63, 0x01, 0x00, 0x13, 0xA5, 0xFE, 0x1E}
	c := DecodeCalibration(tp, 0x4B, h)
	if c.H1 != 75 || c.H2 != 355 || c.H3 != 0 || c.H6 != 30 {
		t.Fatalf("byte fields: %+v", c)
	}
	if c.H4 != 0x135 {
		t.Fatalf("H4 = %#x, want 0x135", c.H4)
	}
	if c.H5 != -22 { // 0xFEA as 12-bit two's complement
		t.Fatalf("H5 = %d, want -22", c.H5)
	}
}

func TestDecodeRawSample(t *testing.T) {
	s := DecodeRawSample([3]byte{0x7E, 0xA0, 0x00}, [3]byte{0x7E, 0xED, 0x0F}, [2]byte{0x63, 0x2A})
	if s.Pressure != 0x7EA00 {
		t.Fatalf("pressure = %#x, want 0x7ea00", s.Pressure)
	}
	// Low nibble of xlsb is discarded.
	if s.Temperature != 0x7EED0 {
		t.Fatalf("temperature = %#x, want 0x7eed0", s.Temperature)
	}
	if s.Humidity != 0x632A {
		t.Fatalf("humidity = %#x", s.Humidity)
	}
	if got := DecodeData(EncodeData(vendorRaw)); got != vendorRaw {
		t.Fatalf("data round trip = %+v", got)
	}
}

func TestConfigRegisters(t *testing.T) {
	d := DefaultConfig()
	if d.CtrlHum() != 0x05 || d.CtrlMeas() != 0xB5 {
		t.Fatalf("ctrl_hum=%#x ctrl_meas=%#x, want 0x05/0xb5", d.CtrlHum(), d.CtrlMeas())
	}
	if got := d.MeasureTime(); got != 113*time.Millisecond {
		t.Fatalf("MeasureTime = %v, want 113ms", got)
	}
	if got := (Config{}).withDefaults(); got.Settle != DefaultSettle || got.Address != Address {
		t.Fatalf("defaults = %+v", got)
	}

	fast := Config{
		Temperature: tbme.Sampling1X,
		Pressure:    tbme.Sampling1X,
		Humidity:    tbme.Sampling1X,
		Settle:      time.Millisecond,
	}.withDefaults()
	if fast.Settle != 10*time.Millisecond {
		t.Fatalf("settle not raised to conversion time: %v", fast.Settle)
	}
}
