// Package models resolves model identifiers to verified local files, using an
// on-disk cache keyed by canonical filenames and downloading missing
// artifacts from their fixed hosts.
package models

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/audioscribe/transcriber/cmd/transcriber/config"
)

const (
	// huggingFaceBaseURL is the artifact host for the whisper.cpp GGML models.
	huggingFaceBaseURL = "https://huggingface.co/ggerganov/whisper.cpp/resolve/main"

	// vadModelURL hosts the silero VAD model used when voice activity
	// detection is enabled.
	vadModelURL      = "https://raw.githubusercontent.com/snakers4/silero-vad/master/src/silero_vad/data/silero_vad.onnx"
	vadModelFilename = "silero_vad.onnx"
)

// ResolveCacheDir returns the model cache directory: the override when set,
// otherwise a subdirectory of the platform cache root.
func ResolveCacheDir(override string) (string, error) {
	if override != "" {
		return override, nil
	}
	dir, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve user cache dir: %w", err)
	}
	return filepath.Join(dir, "transcriber", "models"), nil
}

// EnsureModel returns the path to a usable, verified local model file for the
// given config, downloading it into the cache when absent. Custom model files
// are never downloaded; they must already exist.
func EnsureModel(cfg config.TranscribeConfig) (string, error) {
	if cfg.ModelFile != "" {
		if _, err := os.Stat(cfg.ModelFile); err != nil {
			return "", fmt.Errorf("model not found at %q: %w", cfg.ModelFile, err)
		}
		return cfg.ModelFile, nil
	}

	cacheDir, err := ResolveCacheDir(cfg.CacheDir)
	if err != nil {
		return "", err
	}

	filename := cfg.ModelSize.Filename()
	modelPath := filepath.Join(cacheDir, filename)

	if _, err := os.Stat(modelPath); err == nil {
		slog.Debug("model already cached", slog.String("path", modelPath))
		return modelPath, nil
	}

	if err := os.MkdirAll(cacheDir, 0700); err != nil {
		return "", fmt.Errorf("failed to create cache dir %q: %w", cacheDir, err)
	}

	url := fmt.Sprintf("%s/%s", huggingFaceBaseURL, filename)
	slog.Info("downloading model", slog.String("url", url))
	if err := downloadModel(url, modelPath); err != nil {
		return "", err
	}

	return modelPath, nil
}

// EnsureVADModel returns the path to the silero VAD model, downloading it
// into the cache when absent.
func EnsureVADModel(cacheDirOverride string) (string, error) {
	cacheDir, err := ResolveCacheDir(cacheDirOverride)
	if err != nil {
		return "", err
	}

	modelPath := filepath.Join(cacheDir, vadModelFilename)
	if _, err := os.Stat(modelPath); err == nil {
		return modelPath, nil
	}

	if err := os.MkdirAll(cacheDir, 0700); err != nil {
		return "", fmt.Errorf("failed to create cache dir %q: %w", cacheDir, err)
	}

	slog.Info("downloading VAD model", slog.String("url", vadModelURL))
	if err := downloadModel(vadModelURL, modelPath); err != nil {
		return "", err
	}

	return modelPath, nil
}

// ListCached returns the model files present under dir.
func ListCached(dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}

	var out []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if filepath.Ext(e.Name()) == ".bin" {
			out = append(out, filepath.Join(dir, e.Name()))
		}
	}
	return out
}
