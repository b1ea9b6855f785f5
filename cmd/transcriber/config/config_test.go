package config

import (
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestModelSizeIsValid(t *testing.T) {
	tcs := []struct {
		name  string
		size  ModelSize
		valid bool
	}{
		{
			name: "empty",
			size: ModelSize(""),
		},
		{
			name: "unknown",
			size: ModelSize("huge"),
		},
		{
			name:  "tiny",
			size:  ModelSizeTiny,
			valid: true,
		},
		{
			name:  "english-only variant",
			size:  ModelSizeBaseEn,
			valid: true,
		},
		{
			name:  "large-v3-turbo",
			size:  ModelSizeLargeV3Turbo,
			valid: true,
		},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.valid, tc.size.IsValid())
		})
	}
}

func TestModelSizeFilename(t *testing.T) {
	require.Equal(t, "ggml-base.bin", ModelSizeBase.Filename())
	require.Equal(t, "ggml-large-v3-turbo.bin", ModelSizeLargeV3Turbo.Filename())
}

func TestTranscribeConfigIsValid(t *testing.T) {
	tcs := []struct {
		name string
		cfg  TranscribeConfig
		err  string
	}{
		{
			name: "empty",
			cfg:  TranscribeConfig{},
			err:  "config cannot be empty",
		},
		{
			name: "invalid model size",
			cfg: TranscribeConfig{
				ModelSize: ModelSize("huge"),
				Language:  LanguageAuto,
			},
			err: "ModelSize value is not valid",
		},
		{
			name: "custom model file skips size check",
			cfg: TranscribeConfig{
				ModelFile: "/path/to/model.bin",
				Language:  LanguageAuto,
			},
		},
		{
			name: "invalid language",
			cfg: TranscribeConfig{
				ModelSize: ModelSizeBase,
				Language:  "klingon",
			},
			err: "Language value is not valid",
		},
		{
			name: "negative threads",
			cfg: TranscribeConfig{
				ModelSize:  ModelSizeBase,
				Language:   LanguageAuto,
				NumThreads: -1,
			},
			err: "NumThreads should be in the range",
		},
		{
			name: "too many threads",
			cfg: TranscribeConfig{
				ModelSize:  ModelSizeBase,
				Language:   LanguageAuto,
				NumThreads: runtime.NumCPU() + 1,
			},
			err: "NumThreads should be in the range",
		},
		{
			name: "negative gpu device",
			cfg: TranscribeConfig{
				ModelSize: ModelSizeBase,
				Language:  LanguageAuto,
				GPUDevice: -1,
			},
			err: "GPUDevice should be a non-negative number",
		},
		{
			name: "negative temperature",
			cfg: TranscribeConfig{
				ModelSize:   ModelSizeBase,
				Language:    LanguageAuto,
				Temperature: -0.5,
			},
			err: "Temperature should be a non-negative number",
		},
		{
			name: "negative beam size",
			cfg: TranscribeConfig{
				ModelSize: ModelSizeBase,
				Language:  LanguageAuto,
				BeamSize:  -2,
			},
			err: "BeamSize should be a non-negative number",
		},
		{
			name: "positive silence threshold",
			cfg: TranscribeConfig{
				ModelSize: ModelSizeBase,
				Language:  LanguageAuto,
				Audio: AudioProcessingConfig{
					SilenceThresholdDb: 10,
				},
			},
			err: "SilenceThresholdDb should be zero or negative",
		},
		{
			name: "negative silence pad",
			cfg: TranscribeConfig{
				ModelSize: ModelSizeBase,
				Language:  LanguageAuto,
				Audio: AudioProcessingConfig{
					SilenceThresholdDb: SilenceThresholdDbDefault,
					SilencePadMs:       -10,
				},
			},
			err: "SilencePadMs should be a non-negative number",
		},
		{
			name: "valid",
			cfg: TranscribeConfig{
				ModelSize:   ModelSizeSmall,
				Language:    "en",
				NumThreads:  1,
				Temperature: 0.2,
				BeamSize:    5,
				Audio: AudioProcessingConfig{
					TrimSilence:        true,
					SilenceThresholdDb: -40,
					SilencePadMs:       50,
				},
			},
		},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.IsValid()
			if tc.err == "" {
				require.NoError(t, err)
			} else {
				require.ErrorContains(t, err, tc.err)
			}
		})
	}
}

func TestTranscribeConfigSetDefaults(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		var cfg TranscribeConfig
		cfg.SetDefaults()
		require.Equal(t, ModelSizeDefault, cfg.ModelSize)
		require.Equal(t, LanguageAuto, cfg.Language)
		require.Equal(t, SilenceThresholdDbDefault, cfg.Audio.SilenceThresholdDb)
		require.Equal(t, SilencePadMsDefault, cfg.Audio.SilencePadMs)
	})

	t.Run("custom model file leaves size empty", func(t *testing.T) {
		cfg := TranscribeConfig{ModelFile: "/path/to/model.bin"}
		cfg.SetDefaults()
		require.Empty(t, cfg.ModelSize)
	})

	t.Run("existing values untouched", func(t *testing.T) {
		cfg := TranscribeConfig{
			ModelSize: ModelSizeTiny,
			Language:  "it",
			Audio: AudioProcessingConfig{
				SilenceThresholdDb: -60,
				SilencePadMs:       100,
			},
		}
		cfg.SetDefaults()
		require.Equal(t, ModelSizeTiny, cfg.ModelSize)
		require.Equal(t, "it", cfg.Language)
		require.Equal(t, -60.0, cfg.Audio.SilenceThresholdDb)
		require.Equal(t, 100, cfg.Audio.SilencePadMs)
	})
}

func TestFromEnv(t *testing.T) {
	t.Setenv("MODEL_SIZE", "small")
	t.Setenv("LANGUAGE", "de")
	t.Setenv("TRANSLATE", "true")
	t.Setenv("WORD_TIMESTAMPS", "true")
	t.Setenv("NUM_THREADS", "2")
	t.Setenv("GPU", "true")
	t.Setenv("TEMPERATURE", "0.4")
	t.Setenv("BEAM_SIZE", "5")
	t.Setenv("VAD", "true")
	t.Setenv("CACHE_DIR", "/tmp/models")
	t.Setenv("AUDIO_TRIM_SILENCE", "true")
	t.Setenv("AUDIO_SILENCE_THRESHOLD_DB", "-35")
	t.Setenv("AUDIO_SILENCE_PAD_MS", "80")

	var cfg TranscribeConfig
	cfg.FromEnv()

	require.Equal(t, ModelSizeSmall, cfg.ModelSize)
	require.Equal(t, "de", cfg.Language)
	require.True(t, cfg.Translate)
	require.True(t, cfg.WordTimestamps)
	require.Equal(t, 2, cfg.NumThreads)
	require.True(t, cfg.GPU)
	require.Equal(t, 0.4, cfg.Temperature)
	require.Equal(t, 5, cfg.BeamSize)
	require.True(t, cfg.VAD)
	require.Equal(t, "/tmp/models", cfg.CacheDir)
	require.True(t, cfg.Audio.TrimSilence)
	require.Equal(t, -35.0, cfg.Audio.SilenceThresholdDb)
	require.Equal(t, 80, cfg.Audio.SilencePadMs)
}

func TestModelName(t *testing.T) {
	require.Equal(t, "base", TranscribeConfig{ModelSize: ModelSizeBase}.ModelName())
	require.Equal(t, "custom", TranscribeConfig{ModelFile: "/path/to/model.bin"}.ModelName())
}

func TestParseLanguage(t *testing.T) {
	tcs := []struct {
		name string
		in   string
		out  string
		err  bool
	}{
		{
			name: "empty",
			in:   "",
			out:  LanguageAuto,
		},
		{
			name: "auto",
			in:   "auto",
			out:  LanguageAuto,
		},
		{
			name: "code",
			in:   "en",
			out:  "en",
		},
		{
			name: "name",
			in:   "italian",
			out:  "it",
		},
		{
			name: "mixed case name",
			in:   "German",
			out:  "de",
		},
		{
			name: "padded",
			in:   " fr ",
			out:  "fr",
		},
		{
			name: "unsupported",
			in:   "klingon",
			err:  true,
		},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			out, err := ParseLanguage(tc.in)
			if tc.err {
				require.Error(t, err)
				require.Empty(t, out)
			} else {
				require.NoError(t, err)
				require.Equal(t, tc.out, out)
			}
		})
	}
}

func TestLanguages(t *testing.T) {
	langs := Languages()
	require.NotEmpty(t, langs)

	for i := 1; i < len(langs); i++ {
		require.Less(t, langs[i-1][0], langs[i][0])
	}

	found := false
	for _, l := range langs {
		if l[0] == "en" {
			require.Equal(t, "english", l[1])
			found = true
		}
	}
	require.True(t, found)
}

func TestLoadFromReader(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		data := `
model_size: base
language: english
word_timestamps: true
beam_size: 5
audio:
  trim_silence: true
  silence_threshold_db: -35
`
		cfg, err := LoadFromReader(strings.NewReader(data))
		require.NoError(t, err)
		require.Equal(t, ModelSizeBase, cfg.ModelSize)
		require.Equal(t, "english", cfg.Language)
		require.True(t, cfg.WordTimestamps)
		require.Equal(t, 5, cfg.BeamSize)
		require.True(t, cfg.Audio.TrimSilence)
		require.Equal(t, -35.0, cfg.Audio.SilenceThresholdDb)
		require.Equal(t, SilencePadMsDefault, cfg.Audio.SilencePadMs)
	})

	t.Run("unknown field", func(t *testing.T) {
		_, err := LoadFromReader(strings.NewReader("model_sizes: base\n"))
		require.Error(t, err)
		require.ErrorContains(t, err, "failed to decode yaml")
	})

	t.Run("invalid value", func(t *testing.T) {
		_, err := LoadFromReader(strings.NewReader("model_size: huge\n"))
		require.ErrorContains(t, err, "ModelSize value is not valid")
	})
}
