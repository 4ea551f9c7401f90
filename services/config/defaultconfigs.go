package config

// -----------------------------------------------------------------------------
// Embedded configuration
//
// Key: device ID (same value placed in ctx under CtxDeviceKey)
// Val: raw JSON bytes for that device
// -----------------------------------------------------------------------------

// cfgSensorNode matches the original ESP32 firmware: BME280 at 0x76,
// 16x oversampling on all channels, 120 ms settle, 10 s ULP period.
const cfgSensorNode = `{
  "sensor": {
      "addr": 118,
      "period_ms": 10000,
      "settle_ms": 120,
      "osrs_t": 5,
      "osrs_p": 5,
      "osrs_h": 5
  },
  "node": {
      "state_path": ""
  },
  "heartbeat": {
      "interval": 60
  }
}`

// cfgSim shortens the cycle for host runs.
const cfgSim = `{
  "sensor": {
      "addr": 118,
      "period_ms": 1000,
      "settle_ms": 120
  },
  "node": {
      "state_path": "ulpsense.state"
  },
  "heartbeat": {
      "interval": 5
  }
}`

// cfgLinux keeps retained state on disk across process restarts.
const cfgLinux = `{
  "sensor": {
      "addr": 118,
      "period_ms": 10000,
      "settle_ms": 120
  },
  "node": {
      "state_path": "/var/lib/ulpsense/state"
  }
}`

var embeddedConfigs = map[string][]byte{
	"pico":  []byte(cfgSensorNode),
	"esp32": []byte(cfgSensorNode),
	"rpi":   []byte(cfgLinux),
	"sim":   []byte(cfgSim),
}
