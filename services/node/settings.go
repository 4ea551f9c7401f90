package node

import (
	"context"
	"time"

	"ulpsense-go/bus"
	"ulpsense-go/drivers/bme280"
	"ulpsense-go/services/config"
	"ulpsense-go/services/coproc"
	"ulpsense-go/types"
	"ulpsense-go/x/mathx"

	tbme "tinygo.org/x/drivers/bme280"
)

// NodeConfig is supplied on config/node.
type NodeConfig struct {
	StatePath string `json:"state_path"` // empty keeps state in memory
}

// Program converts the sensor config into the coprocessor program.
// Oversampling out of range falls back to 16x.
func Program(sc types.SensorConfig) coproc.Program {
	settle := time.Duration(sc.SettleMs) * time.Millisecond
	if settle <= 0 {
		settle = bme280.DefaultSettle
	}
	cfg := bme280.Config{
		Address:     sc.Addr,
		Temperature: osrs(sc.OsrsT),
		Pressure:    osrs(sc.OsrsP),
		Humidity:    osrs(sc.OsrsH),
		Settle:      settle,
	}
	return coproc.NewProgram(cfg, time.Duration(sc.PeriodMs)*time.Millisecond)
}

func osrs(v uint8) tbme.Oversampling {
	if !mathx.Between(v, uint8(tbme.Sampling1X), uint8(tbme.Sampling16X)) {
		return tbme.Sampling16X
	}
	return tbme.Oversampling(v)
}

// WaitConfig waits for the retained config/<key> message and decodes it
// into dst. It returns false if nothing arrived before ctx ended.
func WaitConfig[T any](ctx context.Context, conn *bus.Connection, key string, dst *T) (bool, error) {
	sub := conn.Subscribe(config.Topic(key))
	defer sub.Unsubscribe()
	select {
	case m := <-sub.Channel():
		return true, config.Decode(m.Payload, dst)
	case <-ctx.Done():
		return false, nil
	}
}
