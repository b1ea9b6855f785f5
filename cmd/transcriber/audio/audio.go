// Package audio loads media files into the 16kHz mono float32 sample format
// the inference engine expects, with optional signal conditioning.
package audio

import (
	"fmt"
	"log/slog"
	"math"
	"os"

	"github.com/audioscribe/transcriber/cmd/transcriber/config"
)

const (
	// SampleRate is the fixed sample rate of all sample buffers.
	SampleRate = 16000

	// minLevel is the amplitude below which audio is considered silent.
	minLevel = 1e-6
)

// Load decodes the media file at path and applies the configured processing
// steps in fixed order: DC offset removal, peak normalization, silence
// trimming. The trim threshold is calibrated against normalized amplitude,
// which is why the order matters.
func Load(path string, cfg config.AudioProcessingConfig) ([]float32, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("audio file not found: %w", err)
	}

	samples, err := Decode(path)
	if err != nil {
		return nil, err
	}

	slog.Debug("decoded audio",
		slog.Int("samples", len(samples)),
		slog.Float64("durationSecs", float64(len(samples))/SampleRate))

	if cfg.RemoveDCOffset {
		RemoveDCOffset(samples)
	}
	if cfg.Normalize {
		NormalizePeak(samples)
	}
	if cfg.TrimSilence {
		samples = TrimSilence(samples, cfg.SilenceThresholdDb, cfg.SilencePadMs)
	}

	return samples, nil
}

// RemoveDCOffset subtracts the arithmetic mean from every sample in place.
// Recordings with hardware DC bias would otherwise skew RMS-based silence
// detection.
func RemoveDCOffset(samples []float32) {
	if len(samples) == 0 {
		return
	}

	var sum float64
	for _, s := range samples {
		sum += float64(s)
	}
	mean := float32(sum / float64(len(samples)))

	if math.Abs(float64(mean)) <= minLevel {
		return
	}

	slog.Debug("removing DC offset", slog.Float64("mean", float64(mean)))
	for i := range samples {
		samples[i] -= mean
	}
}

// NormalizePeak rescales samples in place so the peak amplitude is 1.0.
// Buffers whose peak is below minLevel are treated as silent and left
// untouched to avoid amplifying noise.
func NormalizePeak(samples []float32) {
	if len(samples) == 0 {
		return
	}

	var peak float32
	for _, s := range samples {
		if a := float32(math.Abs(float64(s))); a > peak {
			peak = a
		}
	}

	if peak < minLevel {
		slog.Debug("audio is silent, skipping normalization")
		return
	}

	if math.Abs(float64(peak)-1.0) <= 0.01 {
		return
	}

	slog.Debug("normalizing peak amplitude", slog.Float64("peak", float64(peak)))
	scale := 1.0 / peak
	for i := range samples {
		samples[i] *= scale
	}
}

// TrimSilence returns samples with leading and trailing silence removed,
// using 10ms RMS windows against the given dB threshold and keeping padMs of
// padding around the detected speech span. All-silent buffers and degenerate
// spans are returned unchanged.
func TrimSilence(samples []float32, thresholdDb float64, padMs int) []float32 {
	if len(samples) == 0 {
		return samples
	}

	threshold := dbToLinear(thresholdDb)
	windowSize := SampleRate / 100
	if windowSize < 1 {
		windowSize = 1
	}

	start, startOk := findFirstActive(samples, windowSize, threshold)
	end, endOk := findLastActive(samples, windowSize, threshold)
	if !startOk || !endOk || start >= end {
		return samples
	}

	padSamples := SampleRate * padMs / 1000
	start -= padSamples
	if start < 0 {
		start = 0
	}
	end += padSamples
	if end > len(samples) {
		end = len(samples)
	}

	if start == 0 && end == len(samples) {
		return samples
	}

	slog.Debug("trimmed silence",
		slog.Int64("trimmedStartMs", int64(start)*1000/SampleRate),
		slog.Int64("trimmedEndMs", int64(len(samples)-end)*1000/SampleRate))

	out := make([]float32, end-start)
	copy(out, samples[start:end])
	return out
}

func findFirstActive(samples []float32, windowSize int, threshold float64) (int, bool) {
	for i := 0; i+windowSize <= len(samples); i += windowSize {
		if rms(samples[i:i+windowSize]) > threshold {
			return i, true
		}
	}
	return 0, false
}

func findLastActive(samples []float32, windowSize int, threshold float64) (int, bool) {
	last := len(samples) / windowSize
	for i := last - 1; i >= 0; i-- {
		start := i * windowSize
		if rms(samples[start:start+windowSize]) > threshold {
			return start + windowSize, true
		}
	}
	return 0, false
}

// rms returns the root-mean-square level of the window, 0 for an empty one.
func rms(samples []float32) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sumSq float64
	for _, s := range samples {
		sumSq += float64(s) * float64(s)
	}
	return math.Sqrt(sumSq / float64(len(samples)))
}

func dbToLinear(db float64) float64 {
	return math.Pow(10, db/20)
}
