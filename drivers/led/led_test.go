package led

import "testing"

func TestActiveHigh(t *testing.T) {
	p := &MemPin{}
	l := New(p, false, false)
	if l.On() || p.Get() {
		t.Fatal("initial state not off")
	}
	l.Set(true)
	if !l.On() || !p.Get() {
		t.Fatal("set on did not raise pin")
	}
	l.Toggle()
	if l.On() {
		t.Fatal("toggle did not switch off")
	}
}

func TestActiveLow(t *testing.T) {
	p := &MemPin{}
	l := New(p, true, false)
	if !p.Get() {
		t.Fatal("active-low off should drive the pin high")
	}
	l.Set(true)
	if p.Get() || !l.On() {
		t.Fatalf("pin=%v on=%v", p.Get(), l.On())
	}
}

func TestNilIsInert(t *testing.T) {
	var l *LED
	l.Set(true)
	l.Toggle()
	if l.On() {
		t.Fatal("nil LED reads on")
	}
	if New(nil, false, true).On() {
		t.Fatal("pinless LED reads on")
	}
}
