package whisper

// #cgo linux LDFLAGS: -l:libwhisper.a -lm -lstdc++
// #cgo darwin LDFLAGS: -lwhisper -lstdc++ -framework Accelerate
// #include <whisper.h>
// #include <stdlib.h>
import "C"

import (
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"unsafe"

	"github.com/audioscribe/transcriber/cmd/transcriber/transcribe"
)

// greedyBestOf is the candidate pool size used for greedy decoding.
const greedyBestOf = 5

type Config struct {
	// The path to the GGML model file to use.
	ModelFile string
	// The number of system threads to use to perform the transcription.
	// Zero leaves the engine default in place.
	NumThreads int
	// Language to transcribe in ("auto" or empty for autodetection).
	Language string
	// Whether to translate the output to English.
	Translate bool
	// Whether to capture per-token timestamps and probabilities.
	TokenTimestamps bool
	// Sampling temperature.
	Temperature float64
	// Beam width for beam search decoding. Zero selects greedy decoding.
	BeamSize int
	// Whether to offload inference to the GPU at GPUDevice.
	UseGPU    bool
	GPUDevice int
	// Whether to gate inference behind voice activity detection. Requires
	// VADModelFile.
	VAD          bool
	VADModelFile string
	// Whether or not to print progress to stdout (default false).
	PrintProgress bool
}

func (c Config) IsValid() error {
	if c == (Config{}) {
		return fmt.Errorf("invalid empty config")
	}

	if c.ModelFile == "" {
		return fmt.Errorf("invalid ModelFile: should not be empty")
	}

	if _, err := os.Stat(c.ModelFile); err != nil {
		return fmt.Errorf("invalid ModelFile: failed to stat model file: %w", err)
	}

	if numCPU := runtime.NumCPU(); c.NumThreads < 0 || c.NumThreads > numCPU {
		return fmt.Errorf("invalid NumThreads: should be in the range [0, %d]", numCPU)
	}

	if c.Temperature < 0 {
		return fmt.Errorf("invalid Temperature: should not be negative")
	}

	if c.BeamSize < 0 {
		return fmt.Errorf("invalid BeamSize: should not be negative")
	}

	if c.GPUDevice < 0 {
		return fmt.Errorf("invalid GPUDevice: should not be negative")
	}

	if c.VAD {
		if c.VADModelFile == "" {
			return fmt.Errorf("invalid VADModelFile: should not be empty when VAD is enabled")
		}
		if _, err := os.Stat(c.VADModelFile); err != nil {
			return fmt.Errorf("invalid VADModelFile: failed to stat model file: %w", err)
		}
	}

	return nil
}

type Context struct {
	cfg     Config
	ctx     *C.struct_whisper_context
	cparams C.struct_whisper_context_params
	params  C.struct_whisper_full_params
}

func NewContext(cfg Config) (*Context, error) {
	var c Context

	if err := cfg.IsValid(); err != nil {
		return nil, fmt.Errorf("failed to validate config: %w", err)
	}
	c.cfg = cfg

	slog.Debug("creating transcription context", slog.Any("cfg", cfg))

	path := C.CString(cfg.ModelFile)
	defer C.free(unsafe.Pointer(path))

	c.cparams = C.whisper_context_default_params()
	c.cparams.use_gpu = C.bool(cfg.UseGPU)
	c.cparams.gpu_device = C.int(cfg.GPUDevice)
	c.ctx = C.whisper_init_from_file_with_params(path, c.cparams)
	if c.ctx == nil {
		return nil, fmt.Errorf("failed to load model file")
	}

	if cfg.BeamSize > 0 {
		c.params = C.whisper_full_default_params(C.WHISPER_SAMPLING_BEAM_SEARCH)
		c.params.beam_search.beam_size = C.int(cfg.BeamSize)
	} else {
		c.params = C.whisper_full_default_params(C.WHISPER_SAMPLING_GREEDY)
		c.params.greedy.best_of = C.int(greedyBestOf)
	}

	if c.cfg.Language == "" {
		c.cfg.Language = "auto"
	}
	c.params.language = C.CString(c.cfg.Language)
	c.params.translate = C.bool(c.cfg.Translate)
	c.params.token_timestamps = C.bool(c.cfg.TokenTimestamps)
	c.params.temperature = C.float(c.cfg.Temperature)
	if c.cfg.NumThreads > 0 {
		c.params.n_threads = C.int(c.cfg.NumThreads)
	}
	c.params.print_progress = C.bool(c.cfg.PrintProgress)
	c.params.print_realtime = C.bool(false)
	c.params.print_timestamps = C.bool(false)

	return &c, nil
}

func (c *Context) Destroy() error {
	if c.ctx == nil {
		return fmt.Errorf("context is not initialized")
	}
	C.whisper_free(c.ctx)
	C.free(unsafe.Pointer(c.params.language))
	c.ctx = nil
	return nil
}

// Transcribe runs inference over the full sample buffer and returns the raw
// segments (timestamps in centiseconds) along with the detected language.
// When VAD is enabled and no speech is found, inference is skipped and an
// empty segment list is returned.
func (c *Context) Transcribe(samples []float32) ([]transcribe.RawSegment, string, error) {
	if len(samples) == 0 {
		return nil, "", fmt.Errorf("samples should not be empty")
	}

	if c.cfg.VAD {
		ok, err := hasSpeech(c.cfg.VADModelFile, samples)
		if err != nil {
			return nil, "", fmt.Errorf("failed to run speech detection: %w", err)
		}
		if !ok {
			slog.Debug("no speech detected, skipping inference")
			return nil, c.cfg.Language, nil
		}
	}

	ret := C.whisper_full(c.ctx, c.params, (*C.float)(&samples[0]), C.int(len(samples)))
	if ret != 0 {
		return nil, "", fmt.Errorf("whisper_full failed with code %d", ret)
	}

	lang := C.GoString(C.whisper_lang_str(C.whisper_full_lang_id(c.ctx)))

	n := int(C.whisper_full_n_segments(c.ctx))
	segments := make([]transcribe.RawSegment, n)
	for i := 0; i < n; i++ {
		segments[i].Text = C.GoString(C.whisper_full_get_segment_text(c.ctx, C.int(i)))
		segments[i].StartTS = int64(C.whisper_full_get_segment_t0(c.ctx, C.int(i)))
		segments[i].EndTS = int64(C.whisper_full_get_segment_t1(c.ctx, C.int(i)))
		segments[i].SpeakerTurn = bool(C.whisper_full_get_segment_speaker_turn_next(c.ctx, C.int(i)))
		segments[i].NoSpeechProb = float32(C.whisper_full_get_segment_no_speech_prob(c.ctx, C.int(i)))

		if !c.cfg.TokenTimestamps {
			continue
		}

		nTokens := int(C.whisper_full_n_tokens(c.ctx, C.int(i)))
		tokens := make([]transcribe.RawToken, 0, nTokens)
		for j := 0; j < nTokens; j++ {
			data := C.whisper_full_get_token_data(c.ctx, C.int(i), C.int(j))
			tokens = append(tokens, transcribe.RawToken{
				Text:    C.GoString(C.whisper_full_get_token_text(c.ctx, C.int(i), C.int(j))),
				StartTS: int64(data.t0),
				EndTS:   int64(data.t1),
				P:       float32(data.p),
			})
		}
		segments[i].Tokens = tokens
	}

	return segments, lang, nil
}
