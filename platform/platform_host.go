//go:build !rp2040 && !rp2350 && !(linux && arm64)

package platform

import (
	"ulpsense-go/drivers/bme280"
	"ulpsense-go/drivers/bme280/bme280sim"
	"ulpsense-go/drivers/led"
)

// SimCalibration and SimSample are what the simulated chip reports.
var (
	SimCalibration = bme280.Calibration{
		T1: 27504, T2: 26435, T3: -1000,
		P1: 36477, P2: -10685, P3: 3024, P4: 2855, P5: 140, P6: -7, P7: 15500, P8: -14600, P9: 6000,
		H1: 75, H2: 355, H3: 0, H4: 309, H5: 0, H6: 30,
	}
	SimSample = bme280.RawSample{Pressure: 415148, Temperature: 519888, Humidity: 25386}
)

// Open returns a simulated BME280 on a host build.
func Open() (*Board, error) {
	return &Board{
		Device:   "sim",
		I2C:      bme280sim.New(SimCalibration, SimSample),
		BusName:  "sim",
		FaultLED: led.New(&led.MemPin{}, false, false),
	}, nil
}
