// config/config_test.go
package config

import (
	"context"
	"testing"
	"time"

	"ulpsense-go/bus"
	"ulpsense-go/types"
)

func TestConfig_PublishEmbedded_RetainedPerKey(t *testing.T) {
	// Override lookup for this test.
	oldLookup := EmbeddedConfigLookup
	EmbeddedConfigLookup = func(device string) ([]byte, bool) {
		if device != "pico" {
			return nil, false
		}
		return []byte(`{
			"mode": "dev",
			"debug": true,
			"sensor": {"addr": 119, "period_ms": 5000}
		}`), true
	}
	t.Cleanup(func() { EmbeddedConfigLookup = oldLookup })

	// Arrange bus and service.
	b := bus.NewBus(16)
	conn := b.NewConnection("test-config")
	svc := NewConfigService()

	// Start publisher with device ID in context.
	ctx := context.WithValue(context.Background(), CtxDeviceKey, "pico")
	svc.Start(ctx, conn)

	// Subscribe; retained messages should arrive immediately.
	sub := conn.Subscribe(bus.Topic{configPrefix, "#"})

	type gotMsg struct {
		key string
		val any
	}

	wantCount := 3 // mode, debug, sensor
	got := map[string]gotMsg{}

	deadline := time.Now().Add(600 * time.Millisecond)
	for len(got) < wantCount && time.Now().Before(deadline) {
		select {
		case m := <-sub.Channel():
			if len(m.Topic) < 2 {
				t.Fatalf("unexpected topic length: %#v", m.Topic)
			}
			// Assert tokens to string
			prefix, ok := m.Topic[0].(string)
			if !ok {
				t.Fatalf("topic[0] type %T, want string", m.Topic[0])
			}
			if prefix != configPrefix {
				t.Fatalf("unexpected prefix: %q", prefix)
			}
			keyTok := m.Topic[1]
			key, ok := keyTok.(string)
			if !ok {
				t.Fatalf("topic[1] type %T, want string", keyTok)
			}
			got[key] = gotMsg{key: key, val: m.Payload}
		case <-time.After(10 * time.Millisecond):
		}
	}
	if len(got) != wantCount {
		t.Fatalf("expected %d retained messages, got %d (%v)", wantCount, len(got), got)
	}

	// Assert payloads without reflect.
	// mode
	if v, ok := got["mode"]; !ok {
		t.Fatal("missing 'mode' message")
	} else if s, ok := v.val.(string); !ok || s != "dev" {
		t.Fatalf("mode payload = %#v, want \"dev\"", v.val)
	}
	// debug
	if v, ok := got["debug"]; !ok {
		t.Fatal("missing 'debug' message")
	} else if bval, ok := v.val.(bool); !ok || bval != true {
		t.Fatalf("debug payload = %#v, want true", v.val)
	}
	// sensor decodes into the typed payload.
	v, ok := got["sensor"]
	if !ok {
		t.Fatal("missing 'sensor' message")
	}
	var sc types.SensorConfig
	if err := Decode(v.val, &sc); err != nil {
		t.Fatalf("decode sensor: %v", err)
	}
	if sc.Addr != 0x77 || sc.PeriodMs != 5000 || sc.SettleMs != 0 {
		t.Fatalf("sensor config = %+v", sc)
	}
}

func TestConfig_EmbeddedSensorDefaults(t *testing.T) {
	b := bus.NewBus(8)
	conn := b.NewConnection("test-embedded")
	ctx := context.WithValue(context.Background(), CtxDeviceKey, "esp32")
	if err := NewConfigService().Publish(ctx, conn); err != nil {
		t.Fatal(err)
	}
	sub := conn.Subscribe(Topic("sensor"))
	select {
	case m := <-sub.Channel():
		var sc types.SensorConfig
		if err := Decode(m.Payload, &sc); err != nil {
			t.Fatal(err)
		}
		want := types.SensorConfig{Addr: 0x76, PeriodMs: 10000, SettleMs: 120, OsrsT: 5, OsrsP: 5, OsrsH: 5}
		if sc != want {
			t.Fatalf("sensor config = %+v, want %+v", sc, want)
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("no retained sensor config")
	}
}

func TestDecode_RawForms(t *testing.T) {
	var sc types.SensorConfig
	if err := Decode(`{"settle_ms": 50}`, &sc); err != nil || sc.SettleMs != 50 {
		t.Fatalf("string: %+v %v", sc, err)
	}
	if err := Decode([]byte(`{"addr": 118}`), &sc); err != nil || sc.Addr != 0x76 {
		t.Fatalf("bytes: %+v %v", sc, err)
	}
	if err := Decode(`[1,2]`, &sc); err == nil {
		t.Fatal("array decoded into struct")
	}
}

func TestConfig_PublishConfig_NotObject(t *testing.T) {
	oldLookup := EmbeddedConfigLookup
	EmbeddedConfigLookup = func(string) ([]byte, bool) { return []byte(`[1]`), true }
	t.Cleanup(func() { EmbeddedConfigLookup = oldLookup })

	conn := bus.NewBus(4).NewConnection("test-not-object")
	ctx := context.WithValue(context.Background(), CtxDeviceKey, "pico")
	if err := NewConfigService().Publish(ctx, conn); err == nil {
		t.Fatal("expected error for non-object config")
	}
}

func TestConfig_PublishConfig_MissingDevice(t *testing.T) {
	b := bus.NewBus(4)
	conn := b.NewConnection("test-missing-device")
	svc := NewConfigService()

	// No device ID in context
	if err := svc.publishConfig(context.Background(), conn); err == nil {
		t.Fatal("expected error for missing device ID, got nil")
	}
}

func TestConfig_PublishConfig_NoConfigFound(t *testing.T) {
	// Override lookup to simulate absence.
	oldLookup := EmbeddedConfigLookup
	EmbeddedConfigLookup = func(device string) ([]byte, bool) { return nil, false }
	t.Cleanup(func() { EmbeddedConfigLookup = oldLookup })

	b := bus.NewBus(4)
	conn := b.NewConnection("test-no-config")
	svc := NewConfigService()

	ctx := context.WithValue(context.Background(), CtxDeviceKey, "unknown-device")
	if err := svc.publishConfig(ctx, conn); err == nil {
		t.Fatal("expected error for missing embedded config, got nil")
	}
}
