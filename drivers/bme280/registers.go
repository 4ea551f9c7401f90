// Package bme280 provides constants for register addresses and bitfields used
// in the operation of the Bosch BME280 environmental sensor.
package bme280

const (
	// 7-bit I2C address with SDO tied low.
	Address = 0x76
	// Alternate address with SDO tied high.
	AddressAlt = 0x77

	// Value of regChipID on a BME280 (BMP280 reports 0x56..0x58).
	ChipID = 0x60

	regCalibTP   = 0x88 // 26 bytes: T1..P9, reserved, H1
	regCalibH1   = 0xA1 // 1 byte
	regChipID    = 0xD0
	regReset     = 0xE0
	regCalibH    = 0xE1 // 7 bytes: H2..H6
	regCtrlHum   = 0xF2
	regStatus    = 0xF3
	regCtrlMeas  = 0xF4
	regConfig    = 0xF5
	regPressMSB  = 0xF7 // burst: press[3], temp[3], hum[2]
	cmdSoftReset = 0xB6

	statusMeasuring = 1 << 3
	statusImUpdate  = 1 << 0

	// Lengths of the register blocks.
	CalibTPLen = 26
	CalibHLen  = 7
	ImageLen   = CalibTPLen + 1 + CalibHLen
	DataLen    = 8
)

// Register addresses exported for transports that script their own bus
// transactions (coprocessor programs, simulators).
const (
	RegCalibTP  = regCalibTP
	RegCalibH1  = regCalibH1
	RegChipID   = regChipID
	RegReset    = regReset
	RegCalibH   = regCalibH
	RegCtrlHum  = regCtrlHum
	RegStatus   = regStatus
	RegCtrlMeas = regCtrlMeas
	RegConfig   = regConfig
	RegData     = regPressMSB

	StatusMeasuring = statusMeasuring
	StatusImUpdate  = statusImUpdate
	CmdSoftReset    = cmdSoftReset
)
