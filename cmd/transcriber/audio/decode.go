package audio

import (
	"errors"
	"fmt"
	"os/exec"
	"strconv"
)

// Decode runs ffmpeg to decode any media file into raw signed 16-bit
// little-endian PCM, mono, at SampleRate, and converts the samples to
// float32 in [-1.0, 1.0].
func Decode(path string) ([]float32, error) {
	cmd := exec.Command("ffmpeg",
		"-nostdin",
		"-threads", "0",
		"-i", path,
		"-f", "s16le",
		"-ac", "1",
		"-acodec", "pcm_s16le",
		"-ar", strconv.Itoa(SampleRate),
		"-")

	out, err := cmd.Output()
	if err != nil {
		var execErr *exec.Error
		if errors.As(err, &execErr) {
			return nil, fmt.Errorf("ffmpeg not found: %w", err)
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, fmt.Errorf("ffmpeg failed: %s", string(exitErr.Stderr))
		}
		return nil, fmt.Errorf("failed to run ffmpeg: %w", err)
	}

	if len(out) == 0 {
		return nil, fmt.Errorf("ffmpeg produced no output")
	}

	samples := make([]float32, len(out)/2)
	for i := range samples {
		sample := int16(out[2*i]) | int16(out[2*i+1])<<8
		samples[i] = float32(sample) / 32768.0
	}

	return samples, nil
}
