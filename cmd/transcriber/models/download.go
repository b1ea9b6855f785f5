package models

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
)

const (
	// maxDownloadBytes is the hard ceiling on a single model download,
	// enforced both on the advertised length and on the bytes actually
	// written.
	maxDownloadBytes = 5_000_000_000

	// minModelBytes rejects payloads too small to be a model, such as HTML
	// error pages served with a 200 status.
	minModelBytes = 1_000_000
)

// downloadModel streams url into dest. The transfer goes through a temporary
// file unique to this process, which is removed on every failure path and
// atomically renamed into place only after the payload has been verified.
// Concurrent processes downloading the same model therefore never observe a
// partial file: the last rename wins.
func downloadModel(url, dest string) (retErr error) {
	resp, err := http.Get(url)
	if err != nil {
		return fmt.Errorf("failed to download model: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to download model: HTTP %d", resp.StatusCode)
	}

	if resp.ContentLength > maxDownloadBytes {
		return fmt.Errorf("advertised size (%d bytes) exceeds the %d bytes limit", resp.ContentLength, int64(maxDownloadBytes))
	}

	tmpPath := fmt.Sprintf("%s.%d.part", dest, os.Getpid())
	f, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}

	guard := newCleanupGuard(tmpPath)
	defer guard.cleanup()

	dw := &downloadWriter{
		w:     f,
		total: resp.ContentLength,
		name:  dest,
	}

	_, err = io.Copy(dw, resp.Body)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return fmt.Errorf("failed to write model file: %w", err)
	}

	info, err := os.Stat(tmpPath)
	if err != nil {
		return fmt.Errorf("failed to stat temp file: %w", err)
	}

	if info.Size() < minModelBytes {
		return fmt.Errorf("downloaded file too small (%d bytes), likely an error page", info.Size())
	}

	if resp.ContentLength > 0 && info.Size() != resp.ContentLength {
		return fmt.Errorf("size mismatch: expected %d bytes, got %d", resp.ContentLength, info.Size())
	}

	if err := os.Rename(tmpPath, dest); err != nil {
		return fmt.Errorf("failed to move model file: %w", err)
	}
	guard.disarm()

	slog.Info("model saved", slog.String("path", dest), slog.Int64("size", info.Size()))

	return nil
}

// cleanupGuard removes a file on failure paths. It is disarmed exactly once,
// after the file has been verified and renamed into its final location.
type cleanupGuard struct {
	path  string
	armed bool
}

func newCleanupGuard(path string) *cleanupGuard {
	return &cleanupGuard{path: path, armed: true}
}

func (g *cleanupGuard) disarm() {
	g.armed = false
}

func (g *cleanupGuard) cleanup() {
	if !g.armed {
		return
	}
	if err := os.Remove(g.path); err != nil && !os.IsNotExist(err) {
		slog.Error("failed to remove temp file", slog.String("path", g.path), slog.String("err", err.Error()))
	}
}

// downloadWriter counts bytes, enforces the running-total ceiling (the
// advertised length may be absent or wrong) and logs progress every 10%.
// Progress reporting is observational only.
type downloadWriter struct {
	w       io.Writer
	written int64
	total   int64
	lastPct int64
	name    string
}

func (dw *downloadWriter) Write(p []byte) (int, error) {
	if dw.written+int64(len(p)) > maxDownloadBytes {
		return 0, fmt.Errorf("download exceeds the %d bytes limit", int64(maxDownloadBytes))
	}

	n, err := dw.w.Write(p)
	dw.written += int64(n)

	if dw.total > 0 {
		if pct := dw.written * 100 / dw.total; pct >= dw.lastPct+10 {
			dw.lastPct = pct - pct%10
			slog.Info("downloading", slog.String("file", dw.name), slog.Int64("pct", pct))
		}
	}

	return n, err
}
