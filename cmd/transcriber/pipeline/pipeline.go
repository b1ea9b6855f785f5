// Package pipeline composes audio loading, model resolution, inference and
// transcript assembly into the two entry points: local file and remote URL.
package pipeline

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	whisper "github.com/audioscribe/transcriber/cmd/transcriber/apis/whisper.cpp"
	"github.com/audioscribe/transcriber/cmd/transcriber/audio"
	"github.com/audioscribe/transcriber/cmd/transcriber/config"
	"github.com/audioscribe/transcriber/cmd/transcriber/download"
	"github.com/audioscribe/transcriber/cmd/transcriber/models"
	"github.com/audioscribe/transcriber/cmd/transcriber/transcribe"
)

type Pipeline struct {
	cfg config.TranscribeConfig

	// newTranscriber is swappable so the orchestration logic can be tested
	// with a scripted engine.
	newTranscriber func(cfg config.TranscribeConfig, modelFile string) (transcribe.Transcriber, error)
}

func New(cfg config.TranscribeConfig) (*Pipeline, error) {
	cfg.SetDefaults()
	if err := cfg.IsValid(); err != nil {
		return nil, fmt.Errorf("failed to validate config: %w", err)
	}

	return &Pipeline{
		cfg:            cfg,
		newTranscriber: newWhisperTranscriber,
	}, nil
}

// TranscribeFile transcribes the local media file at path.
func (p *Pipeline) TranscribeFile(path string) (transcribe.Transcript, error) {
	modelFile, err := models.EnsureModel(p.cfg)
	if err != nil {
		return transcribe.Transcript{}, err
	}

	samples, err := audio.Load(path, p.cfg.Audio)
	if err != nil {
		return transcribe.Transcript{}, err
	}

	return p.transcribeSamples(samples, modelFile)
}

// TranscribeURL downloads the audio at url into a temporary directory,
// transcribes it and attaches the source metadata. The downloaded file is
// removed on every exit path.
func (p *Pipeline) TranscribeURL(url string) (transcribe.Transcript, error) {
	tmpDir := filepath.Join(os.TempDir(), "transcriber")

	res, err := download.Audio(url, tmpDir)
	if err != nil {
		return transcribe.Transcript{}, err
	}
	defer func() {
		if err := os.Remove(res.AudioPath); err != nil {
			slog.Warn("failed to clean up downloaded file",
				slog.String("path", res.AudioPath), slog.String("err", err.Error()))
		}
	}()

	tr, err := p.TranscribeFile(res.AudioPath)
	if err != nil {
		return transcribe.Transcript{}, err
	}

	tr.SourceURL = url
	tr.SourceTitle = res.Title

	return tr, nil
}

func (p *Pipeline) transcribeSamples(samples []float32, modelFile string) (transcribe.Transcript, error) {
	t, err := p.newTranscriber(p.cfg, modelFile)
	if err != nil {
		return transcribe.Transcript{}, fmt.Errorf("failed to create transcriber: %w", err)
	}

	slog.Info("running transcription", slog.Int("samples", len(samples)))

	raw, lang, err := t.Transcribe(samples)
	if err != nil {
		if destroyErr := t.Destroy(); destroyErr != nil {
			slog.Error("failed to destroy transcriber", slog.String("err", destroyErr.Error()))
		}
		return transcribe.Transcript{}, fmt.Errorf("failed to transcribe audio samples: %w", err)
	}

	if err := t.Destroy(); err != nil {
		return transcribe.Transcript{}, fmt.Errorf("failed to destroy transcriber: %w", err)
	}

	return buildTranscript(raw, lang, len(samples), p.cfg.ModelName(), p.cfg.WordTimestamps), nil
}

func newWhisperTranscriber(cfg config.TranscribeConfig, modelFile string) (transcribe.Transcriber, error) {
	lang, err := config.ParseLanguage(cfg.Language)
	if err != nil {
		return nil, err
	}

	var vadModelFile string
	if cfg.VAD {
		vadModelFile, err = models.EnsureVADModel(cfg.CacheDir)
		if err != nil {
			return nil, err
		}
	}

	return whisper.NewContext(whisper.Config{
		ModelFile:       modelFile,
		NumThreads:      cfg.NumThreads,
		Language:        lang,
		Translate:       cfg.Translate,
		TokenTimestamps: cfg.WordTimestamps,
		Temperature:     cfg.Temperature,
		BeamSize:        cfg.BeamSize,
		UseGPU:          cfg.GPU,
		GPUDevice:       cfg.GPUDevice,
		VAD:             cfg.VAD,
		VADModelFile:    vadModelFile,
	})
}
