// Command bme280-decode compensates a raw BME280 sample offline.
//
//	bme280-decode -cal <68 hex chars> -raw <16 hex chars>
//
// -cal is the calibration image: 26 bytes from 0x88, the byte at 0xA1 and
// 7 bytes from 0xE1. -raw is the 8-byte burst from 0xF7.
package main

import (
	"encoding/hex"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"ulpsense-go/drivers/bme280"
	"ulpsense-go/errcode"
)

func main() {
	cal := flag.String("cal", "", "calibration image, hex")
	raw := flag.String("raw", "", "data registers 0xF7..0xFE, hex")
	flag.Parse()

	if err := run(os.Stdout, *cal, *raw); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(2)
	}
}

func run(w io.Writer, calHex, rawHex string) error {
	var im bme280.Image
	if err := decodeHex(calHex, im[:]); err != nil {
		return &errcode.E{C: errcode.InvalidParams, Op: "cal", Err: err}
	}
	var data [bme280.DataLen]byte
	if err := decodeHex(rawHex, data[:]); err != nil {
		return &errcode.E{C: errcode.InvalidParams, Op: "raw", Err: err}
	}

	cal := im.Calibration()
	s := bme280.DecodeData(data)
	r := cal.Compensate(s)

	fmt.Fprintf(w, "adc_T=%d adc_P=%d adc_H=%d\n", s.Temperature, s.Pressure, s.Humidity)
	fmt.Fprintf(w, "T=%d (%.2f C)\n", r.TemperatureCentiC, r.Celsius())
	if r.PressureValid() {
		fmt.Fprintf(w, "P=%d (%.2f Pa)\n", r.PressurePa256, r.Pascal())
	} else {
		fmt.Fprintln(w, "P=invalid")
	}
	fmt.Fprintf(w, "H=%d (%.2f %%RH)\n", r.HumidityRH1024, r.RelHumidity())
	return nil
}

func decodeHex(s string, dst []byte) error {
	s = strings.NewReplacer(" ", "", ":", "", "0x", "").Replace(s)
	b, err := hex.DecodeString(s)
	if err != nil {
		return err
	}
	if len(b) != len(dst) {
		return fmt.Errorf("want %d bytes, got %d", len(dst), len(b))
	}
	copy(dst, b)
	return nil
}
