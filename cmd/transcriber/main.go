package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/audioscribe/transcriber/cmd/transcriber/config"
	"github.com/audioscribe/transcriber/cmd/transcriber/pipeline"
	"github.com/audioscribe/transcriber/cmd/transcriber/transcribe"
)

func slogReplaceAttr(_ []string, a slog.Attr) slog.Attr {
	if a.Key == slog.SourceKey {
		source := a.Value.Any().(*slog.Source)
		source.File = filepath.Base(source.File)
	}
	return a
}

func writeOutput(w io.Writer, tr transcribe.Transcript, format string) error {
	switch format {
	case "text":
		if err := tr.Text(w); err != nil {
			return err
		}
		_, err := io.WriteString(w, "\n")
		return err
	case "srt":
		return tr.SRT(w)
	case "vtt":
		return tr.WebVTT(w)
	case "json":
		return tr.JSON(w)
	case "json-pretty":
		return tr.JSONPretty(w)
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

func main() {
	var cfg config.TranscribeConfig
	var (
		configFile = flag.String("config", "", "path to a YAML config file (overrides other config flags)")
		modelSize  = flag.String("model", string(config.ModelSizeDefault), "model size (tiny ... large-v3-turbo)")
		format     = flag.String("format", "text", "output format: text, srt, vtt, json, json-pretty")
		output     = flag.String("output", "", "output file (default stdout)")
		debug      = flag.Bool("debug", false, "enable debug logging")
		listLangs  = flag.Bool("languages", false, "list supported languages and exit")
	)
	flag.StringVar(&cfg.ModelFile, "model-file", "", "path to a custom GGML model file")
	flag.StringVar(&cfg.Language, "language", "auto", "language code or name, or auto")
	flag.BoolVar(&cfg.Translate, "translate", false, "translate the output to English")
	flag.BoolVar(&cfg.WordTimestamps, "words", false, "capture word-level timestamps")
	flag.IntVar(&cfg.NumThreads, "threads", 0, "number of inference threads (0 = engine default)")
	flag.BoolVar(&cfg.GPU, "gpu", true, "enable GPU offload")
	flag.IntVar(&cfg.GPUDevice, "gpu-device", 0, "GPU device index")
	flag.Float64Var(&cfg.Temperature, "temperature", 0, "sampling temperature")
	flag.IntVar(&cfg.BeamSize, "beam", 0, "beam search width (0 = greedy decoding)")
	flag.BoolVar(&cfg.VAD, "vad", true, "enable voice activity detection")
	flag.StringVar(&cfg.CacheDir, "cache-dir", "", "model cache directory override")
	flag.BoolVar(&cfg.Audio.RemoveDCOffset, "remove-dc-offset", false, "remove DC offset before inference")
	flag.BoolVar(&cfg.Audio.Normalize, "normalize", false, "peak-normalize audio before inference")
	flag.BoolVar(&cfg.Audio.TrimSilence, "trim-silence", false, "trim leading/trailing silence")
	flag.Float64Var(&cfg.Audio.SilenceThresholdDb, "silence-threshold", config.SilenceThresholdDbDefault, "silence RMS threshold in dB")
	flag.IntVar(&cfg.Audio.SilencePadMs, "silence-pad", config.SilencePadMsDefault, "padding around detected speech in ms")
	flag.Parse()

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		AddSource:   true,
		Level:       level,
		ReplaceAttr: slogReplaceAttr,
	}))
	slog.SetDefault(logger)

	if *listLangs {
		for _, l := range config.Languages() {
			fmt.Printf("%-4s %s\n", l[0], l[1])
		}
		return
	}

	if flag.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] <file or URL>\n", filepath.Base(os.Args[0]))
		flag.PrintDefaults()
		os.Exit(2)
	}
	input := flag.Arg(0)

	cfg.ModelSize = config.ModelSize(*modelSize)
	if *configFile != "" {
		var err error
		cfg, err = config.Load(*configFile)
		if err != nil {
			slog.Error("failed to load config", slog.String("err", err.Error()))
			os.Exit(1)
		}
	}
	cfg.SetDefaults()

	p, err := pipeline.New(cfg)
	if err != nil {
		slog.Error("failed to create pipeline", slog.String("err", err.Error()))
		os.Exit(1)
	}

	var tr transcribe.Transcript
	if strings.HasPrefix(input, "http://") || strings.HasPrefix(input, "https://") {
		tr, err = p.TranscribeURL(input)
	} else {
		tr, err = p.TranscribeFile(input)
	}
	if err != nil {
		slog.Error("transcription failed", slog.String("err", err.Error()))
		os.Exit(1)
	}

	w := io.Writer(os.Stdout)
	if *output != "" {
		f, err := os.Create(*output)
		if err != nil {
			slog.Error("failed to create output file", slog.String("err", err.Error()))
			os.Exit(1)
		}
		defer f.Close()
		w = f
	}

	if err := writeOutput(w, tr, *format); err != nil {
		slog.Error("failed to write output", slog.String("err", err.Error()))
		os.Exit(1)
	}
}
