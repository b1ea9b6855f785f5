// Package download fetches remote audio through the external yt-dlp
// downloader, validating both the requested URL and the paths the tool
// reports back.
package download

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// maxStderrLen caps how much downloader stderr is propagated in errors.
const maxStderrLen = 1000

// Result describes a completed audio download.
type Result struct {
	AudioPath string
	Title     string
	Duration  float64
}

type mediaInfo struct {
	Title    string  `json:"title"`
	Duration float64 `json:"duration"`
}

// ValidateURL checks that url is a plain http:// or https:// URL. Everything
// else, including file:// URLs and strings with shell metacharacters, is
// rejected before the downloader is ever invoked.
func ValidateURL(url string) error {
	trimmed := strings.TrimSpace(url)
	if strings.HasPrefix(trimmed, "https://") || strings.HasPrefix(trimmed, "http://") {
		return nil
	}
	return fmt.Errorf("invalid URL %q: must start with http:// or https://", trimmed)
}

// Audio downloads the audio track of url into outputDir using yt-dlp,
// extracting it as WAV. It returns the downloaded file path along with any
// title/duration metadata yt-dlp reports.
func Audio(url, outputDir string) (Result, error) {
	if err := ValidateURL(url); err != nil {
		return Result{}, err
	}

	if err := exec.Command("yt-dlp", "--version").Run(); err != nil {
		return Result{}, fmt.Errorf("yt-dlp not found: %w", err)
	}

	if err := os.MkdirAll(outputDir, 0700); err != nil {
		return Result{}, fmt.Errorf("failed to create output dir: %w", err)
	}

	// Metadata probe. Failures here are not fatal: the download proceeds
	// without title/duration.
	var info mediaInfo
	infoOut, err := exec.Command("yt-dlp", "--dump-json", "--no-download", "--no-exec", url).Output()
	if err == nil {
		if err := json.Unmarshal(infoOut, &info); err != nil {
			slog.Debug("failed to parse media metadata", slog.String("err", err.Error()))
			info = mediaInfo{}
		}
	}

	out, err := exec.Command("yt-dlp",
		"--extract-audio",
		"--audio-format", "wav",
		"--audio-quality", "0",
		"--no-playlist",
		"--no-exec",
		"--output", filepath.Join(outputDir, "%(id)s.%(ext)s"),
		"--print", "after_move:filepath",
		url).Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			stderr := string(exitErr.Stderr)
			if len(stderr) > maxStderrLen {
				stderr = stderr[:maxStderrLen]
			}
			return Result{}, fmt.Errorf("yt-dlp failed: %s", stderr)
		}
		return Result{}, fmt.Errorf("failed to run yt-dlp: %w", err)
	}

	audioPath := strings.TrimSpace(string(out))
	if audioPath == "" {
		// Older yt-dlp versions don't support --print after_move:filepath;
		// fall back to scanning the output directory.
		audioPath, err = findAudioFile(outputDir)
		if err != nil {
			return Result{}, err
		}
	} else if err := validatePathInDir(audioPath, outputDir); err != nil {
		return Result{}, err
	}

	if _, err := os.Stat(audioPath); err != nil {
		return Result{}, fmt.Errorf("downloaded file not found at %q: %w", audioPath, err)
	}

	slog.Debug("audio downloaded", slog.String("path", audioPath))

	return Result{
		AudioPath: audioPath,
		Title:     info.Title,
		Duration:  info.Duration,
	}, nil
}

// validatePathInDir rejects paths outside dir, guarding against a downloader
// that reports a traversal outside its sandbox. Paths are canonicalized
// through the filesystem when possible, lexically otherwise.
func validatePathInDir(path, dir string) error {
	canonicalDir := canonicalize(dir)
	canonicalPath := canonicalize(path)

	rel, err := filepath.Rel(canonicalDir, canonicalPath)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return fmt.Errorf("downloaded file path %q is outside the output directory %q", path, dir)
	}
	return nil
}

func canonicalize(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = filepath.Clean(path)
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved
	}
	return abs
}

// findAudioFile returns the most recently modified audio file in dir.
func findAudioFile(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("failed to read output dir: %w", err)
	}

	var (
		best     string
		bestTime int64
	)
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.TrimPrefix(filepath.Ext(e.Name()), ".") {
		case "wav", "mp3", "ogg", "m4a", "opus", "flac":
		default:
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if mod := info.ModTime().UnixNano(); best == "" || mod > bestTime {
			best = filepath.Join(dir, e.Name())
			bestTime = mod
		}
	}

	if best == "" {
		return "", fmt.Errorf("no audio file found after download")
	}
	return best, nil
}
