package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"os"
	"sync/atomic"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/text"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv"
	"golang.org/x/image/font/basicfont"

	"github.com/cbegin/sgsa-go"
	"github.com/cbegin/sgsa-go/internal/cli"
	"github.com/cbegin/sgsa-go/internal/midi"
	"github.com/cbegin/sgsa-go/internal/scope"
	"github.com/cbegin/sgsa-go/internal/wave"
)

const (
	windowW    = 960
	windowH    = 600
	minWindowW = 720
	minWindowH = 480

	lineH    = 16
	keyWidth = 22
)

var (
	bgColor       = color.RGBA{192, 192, 192, 255}
	panelColor    = color.RGBA{192, 192, 192, 255}
	borderColor   = color.RGBA{128, 128, 128, 255}
	bevelLight    = color.RGBA{255, 255, 255, 255}
	bevelDarker   = color.RGBA{64, 64, 64, 255}
	sunkenBgColor = color.RGBA{24, 24, 32, 255}
	textColor     = color.RGBA{230, 230, 230, 255}
	dimTextColor  = color.RGBA{140, 140, 150, 255}
	warnColor     = color.RGBA{255, 140, 60, 255}
	waveColor     = color.RGBA{80, 200, 255, 220}
	heldColor     = color.RGBA{0, 0, 128, 255}
)

// keyRunes maps physical keys onto the characters of the shared layout.
var keyRunes = map[ebiten.Key]rune{
	ebiten.KeyZ: 'z', ebiten.KeyS: 's', ebiten.KeyX: 'x', ebiten.KeyD: 'd',
	ebiten.KeyC: 'c', ebiten.KeyV: 'v', ebiten.KeyG: 'g', ebiten.KeyB: 'b',
	ebiten.KeyH: 'h', ebiten.KeyN: 'n', ebiten.KeyJ: 'j', ebiten.KeyM: 'm',
	ebiten.KeyComma: ',',
	ebiten.KeyQ: 'q', ebiten.KeyDigit2: '2', ebiten.KeyW: 'w', ebiten.KeyDigit3: '3',
	ebiten.KeyE: 'e', ebiten.KeyR: 'r', ebiten.KeyDigit5: '5', ebiten.KeyT: 't',
	ebiten.KeyDigit6: '6', ebiten.KeyY: 'y', ebiten.KeyDigit7: '7', ebiten.KeyU: 'u',
	ebiten.KeyI: 'i',
}

type game struct {
	synth    *sgsa.Synth
	logger   *slog.Logger
	port     string
	scopeBuf []float32
	scopeImg *ebiten.Image
	wavePeak float64

	held      map[ebiten.Key]int
	midiHeld  [128]atomic.Bool
	keys      []ebiten.Key
	octave    int
	preset    int
	kind      int
	kindSet   bool
	volume    float64
	delayOn   bool
	lastStats sgsa.Stats
	status    string

	viewW int
	viewH int
}

func newGame(s *sgsa.Synth, logger *slog.Logger, port string) *game {
	p := s.Params()
	return &game{
		synth:    s,
		logger:   logger,
		port:     port,
		scopeBuf: make([]float32, scope.DefaultCapacity),
		held:     map[ebiten.Key]int{},
		preset:   p.Preset,
		volume:   p.MasterVolume,
		delayOn:  p.DelayEnabled,
		status:   "Ready",
		viewW:    windowW,
		viewH:    windowH,
	}
}

func (g *game) Update() error {
	g.keys = inpututil.AppendJustReleasedKeys(g.keys[:0])
	for _, k := range g.keys {
		if key, ok := g.held[k]; ok {
			g.synth.NoteOff(key)
			delete(g.held, k)
		}
	}
	g.keys = inpututil.AppendJustPressedKeys(g.keys[:0])
	for _, k := range g.keys {
		if err := g.pressed(k); err != nil {
			return err
		}
	}

	st := g.synth.Stats()
	if st.DroppedNotes > g.lastStats.DroppedNotes {
		g.status = fmt.Sprintf("Voices exhausted: %d notes dropped", st.DroppedNotes)
		g.logger.Warn("voices exhausted", "dropped_notes", st.DroppedNotes-g.lastStats.DroppedNotes)
	}
	g.lastStats = st
	return nil
}

func (g *game) pressed(k ebiten.Key) error {
	switch k {
	case ebiten.KeyEscape:
		return ebiten.Termination
	case ebiten.KeySpace:
		g.synth.AllNotesOff()
		clear(g.held)
		g.status = "All notes off"
	case ebiten.KeyArrowLeft, ebiten.KeyArrowRight:
		if k == ebiten.KeyArrowLeft {
			g.preset--
		} else {
			g.preset++
		}
		g.synth.SelectPreset(g.preset)
		g.kindSet = false
		g.status = "Preset " + g.presetName()
	case ebiten.KeyArrowUp, ebiten.KeyArrowDown:
		if k == ebiten.KeyArrowUp {
			g.volume = min(4, g.volume+0.1)
		} else {
			g.volume = max(0, g.volume-0.1)
		}
		g.synth.SetMasterVolume(g.volume)
	case ebiten.KeyPageUp:
		g.octave = min(4, g.octave+1)
	case ebiten.KeyPageDown:
		g.octave = max(-4, g.octave-1)
	case ebiten.KeyTab:
		g.delayOn = !g.delayOn
		g.synth.SetDelayEnabled(g.delayOn)
	case ebiten.KeyK:
		n := len(wave.Kinds())
		if g.kindSet {
			g.kind = (g.kind + 1) % n
		}
		g.kindSet = true
		// Smallest controller value that maps onto the chosen kind.
		g.synth.Control(g.synth.Params().Controls.Waveform, (g.kind*128+n-1)/n)
		g.status = "Waveform " + wave.Kind(g.kind).String()
	default:
		r, ok := keyRunes[k]
		if !ok {
			return nil
		}
		key, ok := cli.KeyNote(r, g.octave)
		if !ok {
			return nil
		}
		if g.synth.NoteOn(key, 100) {
			g.held[k] = key
		}
	}
	return nil
}

func (g *game) presetName() string {
	names := g.synth.PresetNames()
	return names[((g.preset%len(names))+len(names))%len(names)]
}

func (g *game) Draw(screen *ebiten.Image) {
	screen.Fill(bgColor)

	scopeRect := image.Rect(8, 8, g.viewW-8, g.viewH*3/5)
	infoRect := image.Rect(8, scopeRect.Max.Y+8, g.viewW/2-4, g.viewH-36)
	keysRect := image.Rect(g.viewW/2+4, scopeRect.Max.Y+8, g.viewW-8, g.viewH-36)
	statusRect := image.Rect(8, g.viewH-30, g.viewW-8, g.viewH-8)

	drawSunkenPanel(screen, scopeRect)
	drawSunkenPanel(screen, infoRect)
	drawPanel(screen, keysRect)
	drawSunkenPanel(screen, statusRect)

	g.drawScope(screen, scopeRect)
	g.drawInfo(screen, infoRect)
	g.drawKeyboard(screen, keysRect)
	text.Draw(screen, g.status, basicfont.Face7x13, statusRect.Min.X+8, statusRect.Min.Y+15, textColor)
}

func (g *game) Layout(outsideW, outsideH int) (int, int) {
	g.viewW = max(outsideW, minWindowW)
	g.viewH = max(outsideH, minWindowH)
	return g.viewW, g.viewH
}

func (g *game) drawScope(screen *ebiten.Image, rect image.Rectangle) {
	inner := rect.Inset(4)
	width, height := inner.Dx(), inner.Dy()
	if width < 2 || height < 4 {
		return
	}
	if g.scopeImg == nil || g.scopeImg.Bounds().Dx() != width || g.scopeImg.Bounds().Dy() != height {
		g.scopeImg = ebiten.NewImage(width, height)
	}
	g.scopeImg.Fill(color.RGBA{14, 16, 22, 255})
	n := g.synth.Scope().Snapshot(g.scopeBuf)
	g.drawWaveform(g.scopeImg, g.scopeBuf[:n], width, height)

	op := &ebiten.DrawImageOptions{}
	op.GeoM.Translate(float64(inner.Min.X), float64(inner.Min.Y))
	screen.DrawImage(g.scopeImg, op)
}

func (g *game) drawWaveform(dst *ebiten.Image, samples []float32, width, height int) {
	midY := height / 2
	ebitenutil.DrawRect(dst, 0, float64(midY), float64(width), 1, color.RGBA{40, 44, 58, 100})
	if len(samples) < 2 {
		return
	}

	// Fast attack, slow release on the display gain.
	peak := 0.0
	for _, s := range samples {
		peak = max(peak, float64(s), -float64(s))
	}
	target := max(peak, 0.01)
	if target > g.wavePeak {
		g.wavePeak = g.wavePeak*0.3 + target*0.7
	} else {
		g.wavePeak = g.wavePeak*0.995 + target*0.005
	}
	g.wavePeak = max(g.wavePeak, 0.01)
	gain := float64(midY-2) / g.wavePeak

	start := findZeroCrossing(samples, len(samples)/4)
	visible := max(2, len(samples)-start)
	prevY := midY - int(float64(samples[start])*gain)
	for px := 1; px < width; px++ {
		si := min(start+px*visible/width, len(samples)-1)
		y := midY - int(float64(samples[si])*gain)
		ebitenutil.DrawLine(dst, float64(px-1), float64(prevY), float64(px), float64(y), waveColor)
		prevY = y
	}
}

// findZeroCrossing returns the first rising zero crossing within searchLen.
func findZeroCrossing(samples []float32, searchLen int) int {
	searchLen = min(searchLen, len(samples)-2)
	for i := 1; i < searchLen; i++ {
		if samples[i-1] <= 0 && samples[i] > 0 {
			return i
		}
	}
	return 0
}

func (g *game) drawInfo(screen *ebiten.Image, rect image.Rectangle) {
	p := g.synth.Params()
	st := g.synth.Stats()
	kind := "preset"
	if g.kindSet {
		kind = wave.Kind(g.kind).String()
	}
	input := "computer keyboard"
	if g.port != "" {
		input = "keyboard + " + g.port
	}
	lines := []struct {
		label, value string
		warn         bool
	}{
		{"preset", g.presetName(), false},
		{"waveform", kind, false},
		{"volume", fmt.Sprintf("%.1f", g.volume), g.volume == 0},
		{"octave", fmt.Sprintf("%+d", g.octave), false},
		{"delay", fmt.Sprintf("%v  %.2fs fb %.2f", g.delayOn, p.DelaySeconds, p.DelayFeedback), false},
		{"vibrato", fmt.Sprintf("%.1f Hz  %.1f Hz deep  after %.2fs", p.VibratoRate, p.VibratoDepth, p.VibratoOnset), false},
		{"voices", fmt.Sprintf("%d / %d  steal %s", st.AudibleVoices, p.Voices, p.Stealing), false},
		{"dropped", fmt.Sprintf("%d notes  %d commands", st.DroppedNotes, st.DroppedCommands), st.DroppedNotes > 0},
		{"output", fmt.Sprintf("%d Hz x%d  %d frames  %d bits", p.SampleRate, p.Channels, p.BufferFrames, p.QuantizeBits), false},
		{"input", input, false},
	}
	x := rect.Min.X + 10
	y := rect.Min.Y + 18
	for _, l := range lines {
		if y > rect.Max.Y-4 {
			break
		}
		text.Draw(screen, l.label, basicfont.Face7x13, x, y, dimTextColor)
		c := textColor
		if l.warn {
			c = warnColor
		}
		text.Draw(screen, l.value, basicfont.Face7x13, x+80, y, c)
		y += lineH
	}
}

// drawKeyboard shows two octaves from the current shift with sounding keys
// highlighted.
func (g *game) drawKeyboard(screen *ebiten.Image, rect image.Rectangle) {
	var sounding [128]bool
	for _, key := range g.held {
		sounding[key] = true
	}
	for i := range g.midiHeld {
		sounding[i] = sounding[i] || g.midiHeld[i].Load()
	}

	base := cli.BaseKey + g.octave*12
	x0 := rect.Min.X + 10
	top := rect.Min.Y + 28
	whiteH := max(20, rect.Dy()-40)
	isBlack := [12]bool{1: true, 3: true, 6: true, 8: true, 10: true}

	text.Draw(screen, fmt.Sprintf("C%d", base/12-1), basicfont.Face7x13, x0, rect.Min.Y+18, bevelDarker)
	white := 0
	for i := 0; i < 25; i++ {
		key := base + i
		if key > 127 || isBlack[i%12] {
			continue
		}
		r := image.Rect(x0+white*keyWidth, top, x0+(white+1)*keyWidth-2, top+whiteH)
		if r.Max.X > rect.Max.X-6 {
			break
		}
		c := color.Color(bevelLight)
		if sounding[key] {
			c = heldColor
		}
		ebitenutil.DrawRect(screen, float64(r.Min.X), float64(r.Min.Y), float64(r.Dx()), float64(r.Dy()), c)
		white++
	}
	white = 0
	for i := 0; i < 25; i++ {
		key := base + i
		if key > 127 {
			break
		}
		if !isBlack[i%12] {
			white++
			continue
		}
		bx := x0 + white*keyWidth - keyWidth/3
		if bx+keyWidth*2/3 > rect.Max.X-6 {
			break
		}
		c := color.Color(bevelDarker)
		if sounding[key] {
			c = heldColor
		}
		ebitenutil.DrawRect(screen, float64(bx), float64(top), float64(keyWidth*2/3), float64(whiteH*3/5), c)
	}
}

func drawPanel(screen *ebiten.Image, rect image.Rectangle) {
	ebitenutil.DrawRect(screen, float64(rect.Min.X), float64(rect.Min.Y), float64(rect.Dx()), float64(rect.Dy()), panelColor)
	drawBevel(screen, rect, bevelLight, bevelDarker)
}

func drawSunkenPanel(screen *ebiten.Image, rect image.Rectangle) {
	ebitenutil.DrawRect(screen, float64(rect.Min.X), float64(rect.Min.Y), float64(rect.Dx()), float64(rect.Dy()), sunkenBgColor)
	drawBevel(screen, rect, borderColor, bevelLight)
}

// drawBevel draws the top/left edge in hi and the bottom/right edge in lo.
func drawBevel(screen *ebiten.Image, rect image.Rectangle, hi, lo color.Color) {
	x := float64(rect.Min.X)
	y := float64(rect.Min.Y)
	w := float64(rect.Dx())
	h := float64(rect.Dy())
	ebitenutil.DrawRect(screen, x, y, w-1, 1, hi)
	ebitenutil.DrawRect(screen, x, y+1, 1, h-2, hi)
	ebitenutil.DrawRect(screen, x, y+h-1, w, 1, lo)
	ebitenutil.DrawRect(screen, x+w-1, y, 1, h, lo)
}

func main() {
	params := sgsa.DefaultParams()
	pf := cli.BindFlags(flag.CommandLine, &params)
	debug := flag.Bool("debug", false, "debug logging with source locations")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] [midi-port]\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level, AddSource: *debug}))
	slog.SetDefault(logger)

	if err := pf.Apply(); err != nil {
		logger.Error("invalid configuration", "err", err)
		os.Exit(1)
	}
	synth, err := sgsa.New(params, sgsa.WithLogger(logger), sgsa.WithBackend(sgsa.BackendEbiten))
	if err != nil {
		logger.Error("invalid configuration", "err", err)
		os.Exit(1)
	}

	port := flag.Arg(0)
	g := newGame(synth, logger, port)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if port != "" {
		in, err := midi.FindPort(port)
		if err != nil {
			logger.Error("open midi port", "port", port, "err", err)
			os.Exit(1)
		}
		g.port = in.String()
		defer midi.Close()
		go func() {
			err := midi.Listen(ctx, in.String(), func(ev midi.Event) {
				switch ev.Status {
				case midi.NoteOn:
					g.midiHeld[ev.Data1&0x7f].Store(true)
				case midi.NoteOff:
					g.midiHeld[ev.Data1&0x7f].Store(false)
				}
				synth.Handle(ev)
			})
			if err != nil {
				logger.Error("midi input", "err", err)
			}
		}()
	}

	if err := synth.Start(); err != nil {
		logger.Error("start audio", "err", err)
		os.Exit(1)
	}
	defer synth.Stop()

	ebiten.SetWindowSize(windowW, windowH)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetWindowSizeLimits(minWindowW, minWindowH, -1, -1)
	ebiten.SetWindowTitle("sgsa")
	if err := ebiten.RunGame(g); err != nil {
		logger.Error("run", "err", err)
	}
}
