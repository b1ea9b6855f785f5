package whisper

import (
	"fmt"
	"log/slog"

	"github.com/streamer45/silero-vad-go/speech"
)

// VAD settings
const (
	vadWindowSizeInSamples  = 512
	vadThreshold            = 0.5
	vadMinSilenceDurationMs = 150
	vadMinSpeechDurationMs  = 200
	vadSilencePadMs         = 32
	vadSampleRate           = 16000
)

// hasSpeech runs the silero detector over the full sample buffer and reports
// whether any speech segment was found.
func hasSpeech(modelPath string, samples []float32) (bool, error) {
	sd, err := speech.NewDetector(speech.DetectorConfig{
		ModelPath:  modelPath,
		SampleRate: vadSampleRate,

		// set WindowSize to 512 to get as fine-grained detection as possible
		// (for when the number of samples don't cleanly divide into the
		// WindowSize)
		WindowSize:           vadWindowSizeInSamples,
		Threshold:            vadThreshold,
		MinSilenceDurationMs: vadMinSilenceDurationMs,
		MinSpeechDurationMs:  vadMinSpeechDurationMs,
		SilencePadMs:         vadSilencePadMs,
	})
	if err != nil {
		return false, fmt.Errorf("failed to create speech detector: %w", err)
	}
	defer func() {
		if err := sd.Destroy(); err != nil {
			slog.Error("failed to destroy speech detector", slog.String("err", err.Error()))
		}
	}()

	segments, err := sd.Detect(samples)
	if err != nil {
		return false, fmt.Errorf("failed to detect speech: %w", err)
	}

	return len(segments) > 0, nil
}
