package node

import (
	"context"
	"time"
)

// WakeCause is the reason the main unit is running.
type WakeCause uint8

const (
	WakeUnknown WakeCause = iota
	WakeColdBoot
	WakeTimer
	WakeCoprocessor
)

func (w WakeCause) String() string {
	switch w {
	case WakeColdBoot:
		return "cold_boot"
	case WakeTimer:
		return "timer"
	case WakeCoprocessor:
		return "coprocessor"
	}
	return "unknown"
}

// Power is the low-power wait primitive.
type Power interface {
	// WakeCause reports why the current run started.
	WakeCause() WakeCause
	// Sleep suspends until the next wake and returns its cause. On hardware
	// it does not return; the next wake restarts the program.
	Sleep(ctx context.Context) (WakeCause, error)
}

// ChanPower emulates deep sleep by blocking on the coprocessor wake edge.
// If nothing arrives within Fallback the sleep ends with WakeTimer, which
// the node treats as a cold start.
type ChanPower struct {
	Wake     <-chan struct{}
	Fallback time.Duration
	Cause    WakeCause // reported by WakeCause; defaults to WakeColdBoot
}

func (p *ChanPower) WakeCause() WakeCause {
	if p.Cause == WakeUnknown {
		return WakeColdBoot
	}
	return p.Cause
}

func (p *ChanPower) Sleep(ctx context.Context) (WakeCause, error) {
	fb := p.Fallback
	if fb <= 0 {
		fb = time.Minute
	}
	t := time.NewTimer(fb)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return WakeUnknown, ctx.Err()
	case <-p.Wake:
		p.Cause = WakeCoprocessor
	case <-t.C:
		p.Cause = WakeTimer
	}
	return p.Cause, nil
}
