package bme280_test

import (
	"errors"
	"testing"

	"ulpsense-go/drivers/bme280"
	"ulpsense-go/drivers/bme280/bme280sim"
)

var cal = bme280.Calibration{
	T1: 27504, T2: 26435, T3: -1000,
	P1: 36477, P2: -10685, P3: 3024, P4: 2855, P5: 140, P6: -7, P7: 15500, P8: -14600, P9: 6000,
	H1: 75, H2: 355, H3: 0, H4: 309, H5: -7, H6: 30,
}

var raw = bme280.RawSample{Pressure: 415148, Temperature: 519888, Humidity: 25386}

func TestDeviceIdentity(t *testing.T) {
	chip := bme280sim.New(cal, raw)
	d := bme280.New(chip)

	id, err := d.ChipID()
	if err != nil || id != bme280.ChipID {
		t.Fatalf("ChipID = %#x, %v", id, err)
	}
	if !d.Connected() {
		t.Fatal("not connected")
	}

	chip.SetChipID(0x58) // BMP280
	if d.Connected() {
		t.Fatal("BMP280 id accepted")
	}

	d.Configure(bme280.Config{Address: bme280.AddressAlt})
	if _, err := d.ChipID(); !errors.Is(err, bme280sim.ErrNack) {
		t.Fatalf("wrong address err = %v", err)
	}
}

func TestDeviceReadCalibration(t *testing.T) {
	chip := bme280sim.New(cal, raw)
	d := bme280.New(chip)
	got, err := d.ReadCalibration()
	if err != nil {
		t.Fatal(err)
	}
	if got != cal {
		t.Fatalf("calibration = %+v, want %+v", got, cal)
	}

	chip.FailNext(nil, bme280sim.ErrBus)
	if _, err := d.ReadCalibration(); err != bme280sim.ErrBus {
		t.Fatalf("err = %v, want bus error unchanged", err)
	}
}

func TestDeviceTriggerCollect(t *testing.T) {
	chip := bme280sim.New(cal, raw)
	chip.SetBusyPolls(2)
	d := bme280.New(chip)

	if err := d.Trigger(); err != nil {
		t.Fatal(err)
	}
	if chip.Reg(bme280.RegCtrlHum) != 0x05 || chip.Reg(bme280.RegCtrlMeas) != 0xB5 {
		t.Fatalf("ctrl_hum=%#x ctrl_meas=%#x", chip.Reg(bme280.RegCtrlHum), chip.Reg(bme280.RegCtrlMeas))
	}
	if chip.Triggers() != 1 {
		t.Fatalf("triggers = %d", chip.Triggers())
	}

	var buf [bme280.DataLen]byte
	for i := 0; i < 2; i++ {
		if err := d.Collect(&buf); err != bme280.ErrNotReady {
			t.Fatalf("collect %d: err = %v, want not ready", i, err)
		}
	}
	if err := d.Collect(&buf); err != nil {
		t.Fatal(err)
	}
	if got := bme280.DecodeData(buf); got != raw {
		t.Fatalf("raw = %+v, want %+v", got, raw)
	}
}

func TestDeviceRead(t *testing.T) {
	chip := bme280sim.New(cal, raw)
	d := bme280.New(chip)
	cfg := bme280.DefaultConfig()
	cfg.CollectTimeout = 1
	d.Configure(cfg)

	got, err := d.Read()
	if err != nil || got != raw {
		t.Fatalf("Read = %+v, %v", got, err)
	}

	chip.SetBusyPolls(1 << 20)
	if _, err := d.Read(); err != bme280.ErrTimeout {
		t.Fatalf("err = %v, want timeout", err)
	}
}

func TestDeviceReset(t *testing.T) {
	chip := bme280sim.New(cal, raw)
	d := bme280.New(chip)
	if err := d.Trigger(); err != nil {
		t.Fatal(err)
	}
	if err := d.Reset(); err != nil {
		t.Fatal(err)
	}
	if chip.Reg(bme280.RegCtrlMeas) != 0 {
		t.Fatal("ctrl_meas survived reset")
	}
}
