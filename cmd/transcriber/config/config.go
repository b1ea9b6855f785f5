package config

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"strconv"

	"gopkg.in/yaml.v3"
)

const (
	// defaults
	ModelSizeDefault          = ModelSizeLargeV3
	LanguageAuto              = "auto"
	SilenceThresholdDbDefault = -40.0
	SilencePadMsDefault       = 50
)

type ModelSize string

const (
	ModelSizeTiny         ModelSize = "tiny"
	ModelSizeTinyEn       ModelSize = "tiny.en"
	ModelSizeBase         ModelSize = "base"
	ModelSizeBaseEn       ModelSize = "base.en"
	ModelSizeSmall        ModelSize = "small"
	ModelSizeSmallEn      ModelSize = "small.en"
	ModelSizeMedium       ModelSize = "medium"
	ModelSizeMediumEn     ModelSize = "medium.en"
	ModelSizeLargeV2      ModelSize = "large-v2"
	ModelSizeLargeV3      ModelSize = "large-v3"
	ModelSizeLargeV3Turbo ModelSize = "large-v3-turbo"
)

func (s ModelSize) IsValid() bool {
	switch s {
	case ModelSizeTiny, ModelSizeTinyEn, ModelSizeBase, ModelSizeBaseEn,
		ModelSizeSmall, ModelSizeSmallEn, ModelSizeMedium, ModelSizeMediumEn,
		ModelSizeLargeV2, ModelSizeLargeV3, ModelSizeLargeV3Turbo:
		return true
	default:
		return false
	}
}

// Filename returns the canonical model filename as used by the artifact host
// and the local cache. The mapping is total for valid sizes.
func (s ModelSize) Filename() string {
	return fmt.Sprintf("ggml-%s.bin", string(s))
}

// AudioProcessingConfig controls the optional sample processing steps applied
// after decoding and before inference.
type AudioProcessingConfig struct {
	// RemoveDCOffset subtracts the sample mean from every sample.
	RemoveDCOffset bool `yaml:"remove_dc_offset"`
	// Normalize rescales samples so the peak amplitude is 1.0.
	Normalize bool `yaml:"normalize"`
	// TrimSilence drops leading and trailing silence.
	TrimSilence bool `yaml:"trim_silence"`
	// SilenceThresholdDb is the RMS threshold (dB) for silence detection.
	SilenceThresholdDb float64 `yaml:"silence_threshold_db"`
	// SilencePadMs is the padding kept around detected speech boundaries.
	SilencePadMs int `yaml:"silence_pad_ms"`
}

func (c *AudioProcessingConfig) SetDefaults() {
	if c.SilenceThresholdDb == 0 {
		c.SilenceThresholdDb = SilenceThresholdDbDefault
	}
	if c.SilencePadMs == 0 {
		c.SilencePadMs = SilencePadMsDefault
	}
}

func (c AudioProcessingConfig) IsValid() error {
	if c.SilenceThresholdDb > 0 {
		return fmt.Errorf("SilenceThresholdDb should be zero or negative")
	}
	if c.SilencePadMs < 0 {
		return fmt.Errorf("SilencePadMs should be a non-negative number")
	}
	return nil
}

// TranscribeConfig is the full option surface of a transcription run.
type TranscribeConfig struct {
	// ModelSize selects a named model preset. Ignored when ModelFile is set.
	ModelSize ModelSize `yaml:"model_size"`
	// ModelFile points at a custom local GGML model file.
	ModelFile string `yaml:"model_file"`
	// Language is "auto" or a language code/name accepted by ParseLanguage.
	Language string `yaml:"language"`
	// Translate requests translation to English instead of transcription.
	Translate bool `yaml:"translate"`
	// WordTimestamps enables word-level timestamp extraction.
	WordTimestamps bool `yaml:"word_timestamps"`
	// NumThreads is the number of inference threads (0 = engine default).
	NumThreads int `yaml:"num_threads"`
	// GPU enables GPU offload on GPUDevice.
	GPU       bool `yaml:"gpu"`
	GPUDevice int  `yaml:"gpu_device"`
	// Temperature is the sampling temperature.
	Temperature float64 `yaml:"temperature"`
	// BeamSize enables beam search when positive (0 = greedy decoding).
	BeamSize int `yaml:"beam_size"`
	// VAD enables the voice activity gate ahead of inference.
	VAD bool `yaml:"vad"`
	// CacheDir overrides the platform cache directory for model files.
	CacheDir string `yaml:"cache_dir"`

	Audio AudioProcessingConfig `yaml:"audio"`
}

func (cfg *TranscribeConfig) SetDefaults() {
	if cfg.ModelSize == "" && cfg.ModelFile == "" {
		cfg.ModelSize = ModelSizeDefault
	}
	if cfg.Language == "" {
		cfg.Language = LanguageAuto
	}
	cfg.Audio.SetDefaults()
}

func (cfg TranscribeConfig) IsValid() error {
	if cfg == (TranscribeConfig{}) {
		return fmt.Errorf("config cannot be empty")
	}

	if cfg.ModelFile == "" && !cfg.ModelSize.IsValid() {
		return fmt.Errorf("ModelSize value is not valid")
	}

	if _, err := ParseLanguage(cfg.Language); err != nil {
		return fmt.Errorf("Language value is not valid: %w", err)
	}

	if numCPU := runtime.NumCPU(); cfg.NumThreads < 0 || cfg.NumThreads > numCPU {
		return fmt.Errorf("NumThreads should be in the range [0, %d]", numCPU)
	}

	if cfg.GPUDevice < 0 {
		return fmt.Errorf("GPUDevice should be a non-negative number")
	}

	if cfg.Temperature < 0 {
		return fmt.Errorf("Temperature should be a non-negative number")
	}

	if cfg.BeamSize < 0 {
		return fmt.Errorf("BeamSize should be a non-negative number")
	}

	return cfg.Audio.IsValid()
}

// ModelName is the human readable name recorded in the transcript.
func (cfg TranscribeConfig) ModelName() string {
	if cfg.ModelFile != "" {
		return "custom"
	}
	return string(cfg.ModelSize)
}

func (cfg *TranscribeConfig) FromEnv() {
	cfg.ModelSize = ModelSize(os.Getenv("MODEL_SIZE"))
	cfg.ModelFile = os.Getenv("MODEL_FILE")
	cfg.Language = os.Getenv("LANGUAGE")
	cfg.Translate, _ = strconv.ParseBool(os.Getenv("TRANSLATE"))
	cfg.WordTimestamps, _ = strconv.ParseBool(os.Getenv("WORD_TIMESTAMPS"))
	cfg.NumThreads, _ = strconv.Atoi(os.Getenv("NUM_THREADS"))
	cfg.GPU, _ = strconv.ParseBool(os.Getenv("GPU"))
	cfg.GPUDevice, _ = strconv.Atoi(os.Getenv("GPU_DEVICE"))
	cfg.Temperature, _ = strconv.ParseFloat(os.Getenv("TEMPERATURE"), 64)
	cfg.BeamSize, _ = strconv.Atoi(os.Getenv("BEAM_SIZE"))
	cfg.VAD, _ = strconv.ParseBool(os.Getenv("VAD"))
	cfg.CacheDir = os.Getenv("CACHE_DIR")
	cfg.Audio.RemoveDCOffset, _ = strconv.ParseBool(os.Getenv("AUDIO_REMOVE_DC_OFFSET"))
	cfg.Audio.Normalize, _ = strconv.ParseBool(os.Getenv("AUDIO_NORMALIZE"))
	cfg.Audio.TrimSilence, _ = strconv.ParseBool(os.Getenv("AUDIO_TRIM_SILENCE"))
	cfg.Audio.SilenceThresholdDb, _ = strconv.ParseFloat(os.Getenv("AUDIO_SILENCE_THRESHOLD_DB"), 64)
	cfg.Audio.SilencePadMs, _ = strconv.Atoi(os.Getenv("AUDIO_SILENCE_PAD_MS"))
}

// Load reads the YAML configuration file at path and returns a validated
// config with defaults applied.
func Load(path string) (TranscribeConfig, error) {
	f, err := os.Open(path)
	if err != nil {
		return TranscribeConfig{}, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return TranscribeConfig{}, fmt.Errorf("failed to parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r, applies defaults and validates
// the result. Unknown fields are rejected.
func LoadFromReader(r io.Reader) (TranscribeConfig, error) {
	var cfg TranscribeConfig
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return TranscribeConfig{}, fmt.Errorf("failed to decode yaml: %w", err)
	}
	cfg.SetDefaults()
	if err := cfg.IsValid(); err != nil {
		return TranscribeConfig{}, err
	}
	return cfg, nil
}
