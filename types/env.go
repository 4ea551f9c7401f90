package types

// ------------------------
// Environment sensor
// ------------------------

// EnvInfo describes the sensor behind env/<sensor>/... (retained).
type EnvInfo struct {
	Sensor string `json:"sensor"` // "bme280"
	Addr   uint16 `json:"addr"`   // I2C address
	Bus    string `json:"bus"`    // "i2c0", "sim", ...
}

// EnvReading is published on env/<sensor>/value (retained). Values keep the
// sensor's fixed-point units.
type EnvReading struct {
	// Hundredths of °C (2508 => 25.08 °C).
	CentiC int32 `json:"centi_c"`
	// Pa as Q24.8 (25767233 => 100653.25 Pa). Zero when PressureValid is false.
	PaX256        uint32 `json:"pa_x256"`
	PressureValid bool   `json:"pressure_valid"`
	Pa            uint32 `json:"pa"` // PaX256 rounded to whole Pa
	// %RH as Q22.10 (31694 => 30.95 %RH).
	RHx1024 uint32 `json:"rh_x1024"`

	Seq uint16 `json:"seq"` // coprocessor frame sequence
	TS  int64  `json:"ts_ms"`
}

// SensorHealth is published on env/<sensor>/health (retained) after every
// cycle. Counters are cumulative since the retained state was created.
type SensorHealth struct {
	Link       Link   `json:"link"`
	Boots      uint32 `json:"boots"`
	Cycles     uint32 `json:"cycles"`
	Nacks      uint32 `json:"nacks"`
	BusErrors  uint32 `json:"bus_errors"`
	Timeouts   uint32 `json:"timeouts"`
	Overruns   uint32 `json:"overruns"`
	Faults     uint32 `json:"faults"`
	Degenerate uint32 `json:"degenerate"`
	LastError  string `json:"error,omitempty"`
	TS         int64  `json:"ts_ms"`
}

// SensorConfig is supplied on config/sensor.
type SensorConfig struct {
	Addr     uint16 `json:"addr"`      // 0x76 or 0x77; 0 selects 0x76
	PeriodMs uint32 `json:"period_ms"` // coprocessor wake period
	SettleMs uint32 `json:"settle_ms"` // trigger-to-read delay
	// Oversampling as the register field value (1..5 => 1x..16x); 0 selects 16x.
	OsrsT uint8 `json:"osrs_t"`
	OsrsP uint8 `json:"osrs_p"`
	OsrsH uint8 `json:"osrs_h"`
}
