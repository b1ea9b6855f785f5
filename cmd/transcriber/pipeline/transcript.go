package pipeline

import (
	"strings"

	"github.com/audioscribe/transcriber/cmd/transcriber/audio"
	"github.com/audioscribe/transcriber/cmd/transcriber/transcribe"
)

// buildTranscript maps raw engine segments into the transcript data model.
// Engine timestamps are centiseconds and convert to seconds by dividing by
// 100. The duration is computed from the processed sample count rather than
// taken from the engine, so it stays consistent with any trimming applied.
func buildTranscript(raw []transcribe.RawSegment, lang string, numSamples int, modelName string, wordTimestamps bool) transcribe.Transcript {
	segments := make([]transcribe.Segment, 0, len(raw))
	for _, rs := range raw {
		seg := transcribe.Segment{
			Start:               float64(rs.StartTS) / 100,
			End:                 float64(rs.EndTS) / 100,
			Text:                rs.Text,
			SpeakerTurn:         rs.SpeakerTurn,
			NoSpeechProbability: rs.NoSpeechProb,
		}

		if wordTimestamps {
			if words := extractWords(rs.Tokens); len(words) > 0 {
				seg.Words = words
			}
		}

		segments = append(segments, seg)
	}

	return transcribe.Transcript{
		Segments: segments,
		Language: lang,
		Duration: float64(numSamples) / audio.SampleRate,
		Model:    modelName,
	}
}

// extractWords converts engine tokens to words, dropping special tokens:
// anything whose trimmed text is empty or starts with '[' or '<' is an
// engine-internal marker, not a spoken word.
func extractWords(tokens []transcribe.RawToken) []transcribe.Word {
	words := make([]transcribe.Word, 0, len(tokens))
	for _, tok := range tokens {
		trimmed := strings.TrimSpace(tok.Text)
		if trimmed == "" || strings.HasPrefix(trimmed, "[") || strings.HasPrefix(trimmed, "<") {
			continue
		}
		words = append(words, transcribe.Word{
			Text:        tok.Text,
			Start:       float64(tok.StartTS) / 100,
			End:         float64(tok.EndTS) / 100,
			Probability: tok.P,
		})
	}
	return words
}
