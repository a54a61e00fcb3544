// Package scope is the waveform display buffer written by the audio thread
// and read by a renderer.
package scope

import (
	"math"
	"sync/atomic"
)

// DefaultCapacity is the number of samples a scope keeps.
const DefaultCapacity = 4096

// Ring keeps the most recent samples. One goroutine may Push while others
// Snapshot; a snapshot taken during a push may mix old and new samples.
type Ring struct {
	slots []atomic.Uint32
	head  atomic.Uint64
}

func NewRing(capacity int) *Ring {
	if capacity < 1 {
		capacity = DefaultCapacity
	}
	return &Ring{slots: make([]atomic.Uint32, capacity)}
}

// Push overwrites the oldest sample with v. It never blocks.
func (r *Ring) Push(v float32) {
	h := r.head.Load()
	r.slots[h%uint64(len(r.slots))].Store(math.Float32bits(v))
	r.head.Store(h + 1)
}

func (r *Ring) Cap() int { return len(r.slots) }

// Len is the number of valid samples, at most Cap.
func (r *Ring) Len() int {
	h := r.head.Load()
	if h > uint64(len(r.slots)) {
		return len(r.slots)
	}
	return int(h)
}

// Written is the total number of pushes so far.
func (r *Ring) Written() uint64 { return r.head.Load() }

// Snapshot copies the newest min(len(dst), Len) samples into dst, oldest
// first, and returns how many it copied.
func (r *Ring) Snapshot(dst []float32) int {
	h := r.head.Load()
	n := uint64(len(dst))
	if c := uint64(len(r.slots)); n > c {
		n = c
	}
	if n > h {
		n = h
	}
	start := h - n
	for i := uint64(0); i < n; i++ {
		idx := (start + i) % uint64(len(r.slots))
		dst[i] = math.Float32frombits(r.slots[idx].Load())
	}
	return int(n)
}
