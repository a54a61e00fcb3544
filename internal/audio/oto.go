package audio

import (
	"fmt"
	"sync"

	"github.com/ebitengine/oto/v3"
)

// OtoPlayer plays through oto directly, which supports mono output and a
// caller chosen buffer period.
type OtoPlayer struct {
	player *oto.Player
	reader *StreamReader
}

var (
	otoContextOnce sync.Once
	otoContext     *oto.Context
	otoContextErr  error
	otoSampleRate  int
	otoChannels    int
)

func sharedOtoContext(sampleRate, channels, bufferFrames int) (*oto.Context, error) {
	otoContextOnce.Do(func() {
		otoSampleRate = sampleRate
		otoChannels = channels
		op := &oto.NewContextOptions{
			SampleRate:   sampleRate,
			ChannelCount: channels,
			Format:       oto.FormatFloat32LE,
		}
		if bufferFrames > 0 {
			op.BufferSize = framesToDuration(bufferFrames, sampleRate)
		}
		ctx, ready, err := oto.NewContext(op)
		if err != nil {
			otoContextErr = err
			return
		}
		<-ready
		otoContext = ctx
	})
	if otoContextErr != nil {
		return nil, otoContextErr
	}
	if otoSampleRate != sampleRate || otoChannels != channels {
		return nil, fmt.Errorf("oto context already initialized at %d Hz x%d (requested %d Hz x%d)",
			otoSampleRate, otoChannels, sampleRate, channels)
	}
	return otoContext, nil
}

// NewOtoPlayer wraps source, which renders channels interleaved samples.
func NewOtoPlayer(sampleRate, channels, bufferFrames int, source SampleSource) (*OtoPlayer, error) {
	ctx, err := sharedOtoContext(sampleRate, channels, bufferFrames)
	if err != nil {
		return nil, err
	}
	reader := NewStreamReader(source, channels, channels)
	pl := ctx.NewPlayer(reader)
	if bufferFrames > 0 {
		pl.SetBufferSize(bufferFrames * channels * 4)
	}
	return &OtoPlayer{player: pl, reader: reader}, nil
}

func (p *OtoPlayer) Play()           { p.player.Play() }
func (p *OtoPlayer) Pause()          { p.player.Pause() }
func (p *OtoPlayer) IsPlaying() bool { return p.player.IsPlaying() }

func (p *OtoPlayer) Stop() error {
	p.player.Pause()
	if err := p.player.Close(); err != nil {
		return err
	}
	return p.reader.Close()
}
