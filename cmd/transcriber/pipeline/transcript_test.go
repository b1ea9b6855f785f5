package pipeline

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/audioscribe/transcriber/cmd/transcriber/transcribe"
)

func TestBuildTranscript(t *testing.T) {
	raw := []transcribe.RawSegment{
		{
			Text:         " Hello world.",
			StartTS:      0,
			EndTS:        250,
			NoSpeechProb: 0.1,
			Tokens: []transcribe.RawToken{
				{Text: "[_BEG_]", StartTS: 0, EndTS: 0, P: 0.99},
				{Text: " Hello", StartTS: 0, EndTS: 120, P: 0.95},
				{Text: " world.", StartTS: 120, EndTS: 250, P: 0.9},
				{Text: "<|endoftext|>", StartTS: 250, EndTS: 250, P: 0.99},
			},
		},
		{
			Text:        " How are you?",
			StartTS:     300,
			EndTS:       550,
			SpeakerTurn: true,
			Tokens: []transcribe.RawToken{
				{Text: "   ", StartTS: 300, EndTS: 310, P: 0.5},
				{Text: " How", StartTS: 310, EndTS: 400, P: 0.8},
			},
		},
	}

	t.Run("with word timestamps", func(t *testing.T) {
		tr := buildTranscript(raw, "en", 16000*6, "base", true)

		require.Equal(t, "en", tr.Language)
		require.Equal(t, 6.0, tr.Duration)
		require.Equal(t, "base", tr.Model)
		require.Len(t, tr.Segments, 2)

		first := tr.Segments[0]
		require.Equal(t, 0.0, first.Start)
		require.Equal(t, 2.5, first.End)
		require.Equal(t, " Hello world.", first.Text)
		require.False(t, first.SpeakerTurn)
		require.Equal(t, float32(0.1), first.NoSpeechProbability)
		// Special tokens are dropped, spoken words keep their raw text.
		require.Equal(t, []transcribe.Word{
			{Text: " Hello", Start: 0, End: 1.2, Probability: 0.95},
			{Text: " world.", Start: 1.2, End: 2.5, Probability: 0.9},
		}, first.Words)

		second := tr.Segments[1]
		require.Equal(t, 3.0, second.Start)
		require.Equal(t, 5.5, second.End)
		require.True(t, second.SpeakerTurn)
		require.Equal(t, []transcribe.Word{
			{Text: " How", Start: 3.1, End: 4.0, Probability: 0.8},
		}, second.Words)
	})

	t.Run("without word timestamps", func(t *testing.T) {
		tr := buildTranscript(raw, "en", 16000, "base", false)
		for _, seg := range tr.Segments {
			require.Nil(t, seg.Words)
		}
	})

	t.Run("empty", func(t *testing.T) {
		tr := buildTranscript(nil, "auto", 0, "custom", true)
		require.NotNil(t, tr.Segments)
		require.Empty(t, tr.Segments)
		require.Equal(t, 0.0, tr.Duration)
	})

	t.Run("special tokens only", func(t *testing.T) {
		tr := buildTranscript([]transcribe.RawSegment{
			{
				Text:    " uh",
				StartTS: 0,
				EndTS:   100,
				Tokens: []transcribe.RawToken{
					{Text: "[_TT_50]"},
					{Text: "<|nospeech|>"},
				},
			},
		}, "en", 16000, "base", true)
		require.Nil(t, tr.Segments[0].Words)
	})
}
