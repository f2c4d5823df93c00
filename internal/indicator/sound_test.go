package indicator

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jfreymuth/pulse"
	"github.com/stretchr/testify/require"
)

func TestEveryCueKindHasSamples(t *testing.T) {
	for _, kind := range []cueKind{cueStart, cueStop, cueComplete, cueFailed, cueCancel} {
		require.NotEmpty(t, cueSamples(kind), "kind %d", kind)
	}
	require.Empty(t, cueSamples(cueKind(99)))
}

func TestToneRenderLength(t *testing.T) {
	got := tone{hz: 440, length: 100 * time.Millisecond}.render()
	require.Len(t, got, samplesForDuration(100*time.Millisecond))
}

func TestToneRenderRejectsInvalidTones(t *testing.T) {
	require.Empty(t, tone{hz: 0, length: 100 * time.Millisecond}.render())
	require.Empty(t, tone{hz: 440}.render())
	require.Empty(t, tone{hz: 440, length: 100 * time.Millisecond, gain: -1}.render())
}

func TestToneRenderFadesEdges(t *testing.T) {
	got := tone{hz: 440, length: 50 * time.Millisecond}.render()
	require.Zero(t, got[0])
	require.Zero(t, got[len(got)-1])
}

func TestCueRenderInsertsGaps(t *testing.T) {
	melody := cue{{hz: 440, length: 50 * time.Millisecond}, {hz: 660, length: 50 * time.Millisecond}}
	want := 2*samplesForDuration(50*time.Millisecond) + samplesForDuration(cueGap)
	require.Len(t, melody.render(), want)
	require.Nil(t, cue(nil).render())
}

func TestEnvelope(t *testing.T) {
	require.Equal(t, 0.0, envelope(0, 100, 10))
	require.Equal(t, 0.5, envelope(5, 100, 10))
	require.Equal(t, 1.0, envelope(50, 100, 10))
	require.Equal(t, 0.0, envelope(99, 100, 10))
	require.Equal(t, 1.0, envelope(0, 100, 0))
}

func TestPCMSourceSignalsEndOfData(t *testing.T) {
	src := &pcmSource{samples: []int16{1, 2, 3, 4, 5}}
	buf := make([]int16, 3)

	n, err := src.read(buf)
	require.NoError(t, err)
	require.Equal(t, 3, n)

	n, err = src.read(buf)
	require.ErrorIs(t, err, pulse.EndOfData)
	require.Equal(t, 2, n)
	require.Equal(t, []int16{4, 5}, buf[:n])
}

func TestSamplesForDuration(t *testing.T) {
	require.Equal(t, 0, samplesForDuration(0))
	require.Equal(t, cueSampleRate/10, samplesForDuration(100*time.Millisecond))
}

func TestEmitCueRespectsCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := emitCue(ctx, cueStart)
	require.True(t, errors.Is(err, context.Canceled))
}
