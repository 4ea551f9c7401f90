package bme280

import "ulpsense-go/x/mathx"

// Humidity ladder bounds before the final >>12 (0..100 %RH in Q22.22).
const (
	humidityLadderMin = 0
	humidityLadderMax = 419430400
)

// TempContext carries the fine temperature term from temperature
// compensation into pressure and humidity compensation of the same sample.
type TempContext struct {
	TFine int32
}

// Reading is one compensated measurement in the sensor's fixed-point units.
type Reading struct {
	TemperatureCentiC int32  // 0.01 °C
	PressurePa256     uint32 // Q24.8 Pa; 0 means no valid pressure
	HumidityRH1024    uint32 // Q22.10 %RH
}

// PressureValid reports whether the pressure ladder produced a value.
func (r Reading) PressureValid() bool { return r.PressurePa256 != 0 }

// PaRounded returns the pressure in whole Pa, rounded to nearest.
func (r Reading) PaRounded() uint32 { return mathx.RoundDiv(r.PressurePa256, 256) }

// Celsius, Pascal and RelHumidity are float views used for logs only.
func (r Reading) Celsius() float32     { return float32(r.TemperatureCentiC) / 100 }
func (r Reading) Pascal() float32      { return float32(r.PressurePa256) / 256 }
func (r Reading) RelHumidity() float32 { return float32(r.HumidityRH1024) / 1024 }

// CompensateTemperature returns temperature in 0.01 °C. Output value of
// 5123 equals 51.23 °C. The returned context must be passed to the pressure
// and humidity steps of the same sample.
//
// raw has 20 bits of resolution. All arithmetic is 32-bit signed and wraps.
func (c *Calibration) CompensateTemperature(raw int32) (int32, TempContext) {
	var1 := (((raw >> 3) - (int32(c.T1) << 1)) * int32(c.T2)) >> 11
	d := (raw >> 4) - int32(c.T1)
	var2 := (((d * d) >> 12) * int32(c.T3)) >> 14
	tFine := var1 + var2
	return (tFine*5 + 128) >> 8, TempContext{TFine: tFine}
}

// CompensatePressure returns pressure in Pa as Q24.8 (24 integer and 8
// fractional bits). Output value of 24674867 represents 24674867/256 =
// 96386.2 Pa.
//
// A zero return is not a physical value: it signals the divisor of the
// ladder collapsed to zero and the sample carries no pressure.
func (c *Calibration) CompensatePressure(raw int32, tc TempContext) uint32 {
	var var1, var2, p int64
	var1 = int64(tc.TFine) - 128000
	var2 = var1 * var1 * int64(c.P6)
	var2 = var2 + ((var1 * int64(c.P5)) << 17)
	var2 = var2 + (int64(c.P4) << 35)
	var1 = ((var1 * var1 * int64(c.P3)) >> 8) + ((var1 * int64(c.P2)) << 12)
	var1 = (((int64(1) << 47) + var1) * int64(c.P1)) >> 33
	if var1 == 0 {
		return 0
	}
	p = int64(1048576 - raw)
	p = (((p << 31) - var2) * 3125) / var1
	var1 = (int64(c.P9) * (p >> 13) * (p >> 13)) >> 25
	var2 = (int64(c.P8) * p) >> 19
	p = ((p + var1 + var2) >> 8) + (int64(c.P7) << 4)
	return uint32(p)
}

// CompensateHumidity returns humidity in %RH as Q22.10 (22 integer and 10
// fractional bits). Output value of 47445 represents 47445/1024 = 46.333 %RH.
//
// raw has 16 bits of resolution. The ladder is clamped to 0..100 %RH before
// the final shift.
func (c *Calibration) CompensateHumidity(raw int32, tc TempContext) uint32 {
	v := tc.TFine - 76800
	x := (((raw << 14) - (int32(c.H4) << 20) - (int32(c.H5) * v)) + 16384) >> 15
	y := (((v * int32(c.H6)) >> 10) * (((v * int32(c.H3)) >> 11) + 32768)) >> 10
	y = (((y + 2097152) * int32(c.H2)) + 8192) >> 14
	v = x * y
	v = v - (((((v >> 15) * (v >> 15)) >> 7) * int32(c.H1)) >> 4)
	v = mathx.Clamp[int32](v, humidityLadderMin, humidityLadderMax)
	return uint32(v >> 12)
}

// Compensate runs the three steps in the required order.
func (c *Calibration) Compensate(s RawSample) Reading {
	t, tc := c.CompensateTemperature(s.Temperature)
	return Reading{
		TemperatureCentiC: t,
		PressurePa256:     c.CompensatePressure(s.Pressure, tc),
		HumidityRH1024:    c.CompensateHumidity(s.Humidity, tc),
	}
}
