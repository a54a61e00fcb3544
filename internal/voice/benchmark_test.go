package voice

import (
	"testing"

	"github.com/cbegin/sgsa-go/internal/osc"
)

func BenchmarkPoolProcess(b *testing.B) {
	for _, preset := range []string{"saw stack", "detuned supersaw"} {
		b.Run(preset, func(b *testing.B) {
			pool := newTestPool(b, func(p *Params) {
				p.Preset, _ = osc.FindPreset(p.Presets, preset)
			})
			for k := 0; k < pool.NumVoices(); k++ {
				pool.NoteOn(48+k*3, 100)
			}
			buf := make([]float32, 128*2)

			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				pool.Process(buf)
			}
		})
	}
}
