package language

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseNormalizes(t *testing.T) {
	code, err := Parse("  HI ")
	require.NoError(t, err)
	require.Equal(t, Code("hi"), code)
}

func TestParseRejectsUnknownAndEmpty(t *testing.T) {
	_, err := Parse("xx")
	require.Error(t, err)
	require.Contains(t, err.Error(), "unsupported language")

	_, err = Parse(" ")
	require.Error(t, err)
	require.Contains(t, err.Error(), "must not be empty")
}

func TestParsePairLabelsFailingSide(t *testing.T) {
	pair, err := ParsePair("en", "nl")
	require.NoError(t, err)
	require.Equal(t, Pair{Source: "en", Target: "nl"}, pair)
	require.Equal(t, "en->nl", pair.String())

	_, err = ParsePair("en", "klingon")
	require.Error(t, err)
	require.Contains(t, err.Error(), "target:")

	_, err = ParsePair("", "nl")
	require.Error(t, err)
	require.Contains(t, err.Error(), "source:")
}

func TestSourceMustBeTranscribable(t *testing.T) {
	code, err := ParseSource(" CA ")
	require.NoError(t, err)
	require.Equal(t, Code("ca"), code)

	_, err = ParseSource("hi")
	require.Error(t, err)
	require.Contains(t, err.Error(), "cannot be transcribed")

	_, err = ParsePair("hi", "en")
	require.Error(t, err)
	require.Contains(t, err.Error(), "source:")

	pair, err := ParsePair("fr", "hi")
	require.NoError(t, err)
	require.Equal(t, Pair{Source: "fr", Target: "hi"}, pair)

	require.Equal(t, []Code{"ca", "en", "es", "fr", "gb"}, Sources())
	require.True(t, CanSpeak("gb"))
	require.False(t, CanSpeak("ja"))
}

func TestSupportedSortedAndNamed(t *testing.T) {
	codes := Supported()
	require.NotEmpty(t, codes)
	for i := 1; i < len(codes); i++ {
		require.Less(t, codes[i-1], codes[i])
	}
	require.Equal(t, "Hindi", Name("hi"))
	require.Equal(t, "zz", Name("zz"))
}
