package main

import (
	"context"
	"time"

	"ulpsense-go/bus"
	"ulpsense-go/platform"
	"ulpsense-go/services/config"
	"ulpsense-go/services/coproc"
	"ulpsense-go/services/heartbeat"
	"ulpsense-go/services/node"
	"ulpsense-go/services/retained"
	"ulpsense-go/types"
	"ulpsense-go/x/logx"
	"ulpsense-go/x/strx"
)

var log = logx.New("main")

func main() {
	// Allow USB CDC to enumerate before we print.
	time.Sleep(2 * time.Second)
	ctx := context.Background()

	board, err := platform.Open()
	if err != nil {
		log.Error("platform open failed", "err", err)
		return
	}
	defer board.Close()

	log.Info("bootstrapping bus", "device", board.Device, "i2c", board.BusName)
	b := bus.NewBus(8)
	cfgConn := b.NewConnection("config")
	nodeConn := b.NewConnection("node")
	uiConn := b.NewConnection("ui")

	ctx = context.WithValue(ctx, config.CtxDeviceKey, board.Device)
	if err := config.NewConfigService().Publish(ctx, cfgConn); err != nil {
		log.Warn("no embedded config, using defaults", "err", err)
	}

	var sc types.SensorConfig
	var nc node.NodeConfig
	wctx, cancel := context.WithTimeout(ctx, 100*time.Millisecond)
	if _, err := node.WaitConfig(wctx, nodeConn, "sensor", &sc); err != nil {
		log.Warn("bad sensor config", "err", err)
	}
	if _, err := node.WaitConfig(wctx, nodeConn, "node", &nc); err != nil {
		log.Warn("bad node config", "err", err)
	}
	cancel()

	var store retained.Store = &retained.MemStore{}
	if nc.StatePath != "" {
		store = retained.FileStore{Path: nc.StatePath}
	}
	log.Info("retained state", "store", strx.Coalesce(nc.StatePath, "memory"))

	prog := node.Program(sc)
	cp := coproc.NewSim(board.I2C, coproc.NewMailbox(4))

	mon := uiConn.Subscribe(bus.T("node", "state"))
	go func() {
		for m := range mon.Channel() {
			log.Debug("<-", "topic", m.Topic, "payload", m.Payload)
		}
	}()
	hb := &heartbeat.Service{}
	if err := hb.Start(ctx, uiConn); err != nil {
		log.Warn("heartbeat not started", "err", err)
	}

	svc := node.New(node.Deps{
		I2C:     board.I2C,
		BusName: board.BusName,
		Coproc:  cp,
		Store:   store,
		Power:   &node.ChanPower{Wake: cp.Wake(), Fallback: 3 * prog.Period},
		Conn:    nodeConn,

		FaultLED: board.FaultLED,
	}, prog)

	log.Info("starting node", "period", prog.Period)
	if err := svc.Run(ctx); err != nil {
		log.Error("node stopped", "err", err)
	}
}
