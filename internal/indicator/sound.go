package indicator

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/jfreymuth/pulse"
)

type cueKind int

const (
	cueStart cueKind = iota + 1
	cueStop
	cueComplete
	cueFailed
	cueCancel
)

const (
	cueSampleRate = 22050
	cueVolume     = 0.18
	cueGap        = 22 * time.Millisecond
	cueRamp       = 5 * time.Millisecond
)

// tone is one sine segment of a cue.
type tone struct {
	hz     float64
	length time.Duration
	gain   float64
}

// cue is a short melody; segments are separated by cueGap of silence.
type cue []tone

// cueMelodies maps request transitions to what the user hears. Rising
// intervals mark progress, falling ones mark the request ending without audio.
var cueMelodies = map[cueKind]cue{
	cueStart:    {{hz: 784, length: 60 * time.Millisecond}, {hz: 1047, length: 80 * time.Millisecond}},
	cueStop:     {{hz: 660, length: 110 * time.Millisecond}},
	cueComplete: {{hz: 659, length: 60 * time.Millisecond}, {hz: 784, length: 60 * time.Millisecond}, {hz: 988, length: 100 * time.Millisecond}},
	cueFailed:   {{hz: 392, length: 90 * time.Millisecond}, {hz: 392, length: 90 * time.Millisecond}},
	cueCancel:   {{hz: 523, length: 70 * time.Millisecond}, {hz: 392, length: 90 * time.Millisecond}},
}

var (
	renderedOnce sync.Once
	rendered     map[cueKind][]int16
)

// emitCue plays the cue for kind on the default Pulse sink.
func emitCue(ctx context.Context, kind cueKind) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	samples := cueSamples(kind)
	if len(samples) == 0 {
		return nil
	}
	return playPCM(samples)
}

func cueSamples(kind cueKind) []int16 {
	renderedOnce.Do(func() {
		rendered = make(map[cueKind][]int16, len(cueMelodies))
		for k, melody := range cueMelodies {
			rendered[k] = melody.render()
		}
	})
	return rendered[kind]
}

func playPCM(samples []int16) error {
	client, err := pulse.NewClient(
		pulse.ClientApplicationName("babel"),
		pulse.ClientApplicationIconName("preferences-desktop-locale"),
	)
	if err != nil {
		return fmt.Errorf("connect pulse server: %w", err)
	}
	defer client.Close()

	src := &pcmSource{samples: samples}
	stream, err := client.NewPlayback(
		pulse.Int16Reader(src.read),
		pulse.PlaybackMono,
		pulse.PlaybackSampleRate(cueSampleRate),
		pulse.PlaybackLatency(0.02),
		pulse.PlaybackMediaName("babel request cue"),
	)
	if err != nil {
		return fmt.Errorf("open cue playback: %w", err)
	}
	defer stream.Close()

	stream.Start()
	stream.Drain()
	if err := stream.Error(); err != nil {
		return fmt.Errorf("play cue: %w", err)
	}
	return nil
}

// pcmSource feeds a fixed buffer to a Pulse playback stream.
type pcmSource struct {
	samples []int16
	offset  int
}

func (s *pcmSource) read(buf []int16) (int, error) {
	n := copy(buf, s.samples[s.offset:])
	s.offset += n
	if s.offset >= len(s.samples) {
		return n, pulse.EndOfData
	}
	return n, nil
}

func (c cue) render() []int16 {
	if len(c) == 0 {
		return nil
	}
	gap := samplesForDuration(cueGap)

	var pcm []int16
	for i, segment := range c {
		if i > 0 {
			pcm = append(pcm, make([]int16, gap)...)
		}
		pcm = append(pcm, segment.render()...)
	}
	return pcm
}

func (t tone) render() []int16 {
	gain := t.gain
	if gain == 0 {
		gain = cueVolume
	}
	n := samplesForDuration(t.length)
	if n <= 0 || t.hz <= 0 || gain < 0 {
		return nil
	}

	ramp := min(max(n/10, 1), samplesForDuration(cueRamp))
	pcm := make([]int16, n)
	step := 2 * math.Pi * t.hz / cueSampleRate
	for i := range pcm {
		amplitude := gain * envelope(i, n, ramp) * 32767
		pcm[i] = int16(math.Round(math.Sin(step*float64(i)) * amplitude))
	}
	return pcm
}

// envelope fades the first and last ramp samples to avoid clicks.
func envelope(i, n, ramp int) float64 {
	if ramp <= 0 {
		return 1
	}
	edge := min(i, n-i-1)
	if edge >= ramp {
		return 1
	}
	return float64(edge) / float64(ramp)
}

func samplesForDuration(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(math.Round(d.Seconds() * cueSampleRate))
}
