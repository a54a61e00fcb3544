package effects

import (
	"math"
	"testing"
)

func TestDelayLineWrap(t *testing.T) {
	const c, k = 16, 5
	d := NewDelayLine(c)
	for i := 0; i < c+k; i++ {
		d.Write(float32(i))
	}
	for i := 0; i < k; i++ {
		want := float32(c + i)
		if got := d.Read(); got != want {
			t.Fatalf("read %d = %v, want %v", i, got, want)
		}
	}
	if r, w := d.Cursors(); r != k || w != k {
		t.Fatalf("cursors = %d, %d, want %d, %d", r, w, k, k)
	}
}

func TestDelayLineReadBeforeWriteDelaysByLength(t *testing.T) {
	d := NewDelayLine(8)
	var out []float32
	for i := 1; i <= 12; i++ {
		out = append(out, d.Read())
		d.Write(float32(i))
	}
	for i, v := range out {
		want := float32(0)
		if i >= 8 {
			want = float32(i - 7)
		}
		if v != want {
			t.Fatalf("out[%d] = %v, want %v", i, v, want)
		}
	}
}

func TestDelayLineSetLenClamps(t *testing.T) {
	d := NewDelayLine(10)
	d.Write(1)
	d.SetLen(4)
	if d.Len() != 4 || d.Cap() != 10 {
		t.Fatalf("len/cap = %d/%d", d.Len(), d.Cap())
	}
	if r, w := d.Cursors(); r != 0 || w != 0 {
		t.Fatalf("cursors not reset: %d %d", r, w)
	}
	if d.Read() != 0 {
		t.Fatal("ring not cleared")
	}
	d.SetLen(100)
	if d.Len() != 10 {
		t.Fatalf("len = %d, want capped at 10", d.Len())
	}
	d.SetLen(0)
	if d.Len() != 1 {
		t.Fatalf("len = %d, want 1", d.Len())
	}
}

func TestEchoProducesDelayedOutput(t *testing.T) {
	e := NewEcho(2, 1000, 0.1)
	e.Gain = 1
	frame := []float64{1, 1}
	e.Process(frame)
	var tail float64
	for i := 1; i <= 100; i++ {
		frame[0], frame[1] = 0, 0
		e.Process(frame)
		if i == 100 {
			tail = frame[0]
		}
	}
	if math.Abs(tail) < 0.01 {
		t.Fatalf("expected echo after 100 samples, got %v", tail)
	}
	if frame[0] != frame[1] {
		t.Fatalf("identical channels diverged: %v %v", frame[0], frame[1])
	}
}

func TestEchoStaysBounded(t *testing.T) {
	e := NewEcho(1, 1000, 0.01)
	e.Gain, e.Feedback = 4, 1
	frame := []float64{0}
	for i := 0; i < 5000; i++ {
		frame[0] = 1
		e.Process(frame)
		if math.Abs(frame[0]) > 1 {
			t.Fatalf("sample %d = %v out of range", i, frame[0])
		}
	}
}

func TestInactiveEchoBypasses(t *testing.T) {
	e := NewEcho(2, 1000, 0.05)
	e.SetActive(false)
	r0, w0 := e.Line(0).Cursors()
	frame := []float64{0.25, -0.5}
	for i := 0; i < 200; i++ {
		e.Process(frame)
	}
	if frame[0] != 0.25 || frame[1] != -0.5 {
		t.Fatalf("inactive echo changed frame to %v", frame)
	}
	if r, w := e.Line(0).Cursors(); r != r0 || w != w0 {
		t.Fatalf("cursors moved from %d,%d to %d,%d", r0, w0, r, w)
	}
}
