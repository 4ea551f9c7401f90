// Package led drives a single indicator LED on a GPIO output.
package led

import "sync/atomic"

// Pin is a digital output with readback. machine.Pin satisfies it.
type Pin interface {
	Set(high bool)
	Get() bool
}

// LED maps a logical on/off onto a pin level.
type LED struct {
	pin       Pin
	activeLow bool
}

// New drives pin to the initial state and returns the LED. A nil pin gives
// an LED that ignores Set and always reads off.
func New(pin Pin, activeLow, initial bool) *LED {
	l := &LED{pin: pin, activeLow: activeLow}
	l.Set(initial)
	return l
}

// Set switches the LED. It is a no-op on a nil LED.
func (l *LED) Set(on bool) {
	if l == nil || l.pin == nil {
		return
	}
	level := on
	if l.activeLow {
		level = !level
	}
	l.pin.Set(level)
}

// On reports the logical state.
func (l *LED) On() bool {
	if l == nil || l.pin == nil {
		return false
	}
	level := l.pin.Get()
	if l.activeLow {
		level = !level
	}
	return level
}

func (l *LED) Toggle() { l.Set(!l.On()) }

// MemPin is a Pin with no hardware behind it.
type MemPin struct{ level atomic.Bool }

func (p *MemPin) Set(high bool) { p.level.Store(high) }
func (p *MemPin) Get() bool     { return p.level.Load() }
