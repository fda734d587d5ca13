package transcribe

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"scribe-transcriber/internal/app/api/provider"
	"scribe-transcriber/internal/app/audio"
	appconfig "scribe-transcriber/internal/app/config"
	"scribe-transcriber/internal/app/converter"
	apperrors "scribe-transcriber/internal/app/errors"
	"scribe-transcriber/internal/app/logging"
	"scribe-transcriber/internal/app/transcript"
	"scribe-transcriber/internal/config"
	"scribe-transcriber/internal/downloader"
)

var (
	configPath     string
	language       string
	noAudioEvents  bool
	format         string
	outputPath     string
	outputDir      string
	downloadDir    string
	numSpeakers    int
	noDiarize      bool
	segmentMinutes int
	providerName   string
	modelName      string
	keepSegments   bool
	jsonArray      bool
	metricsFile    string
	showProgress   bool
)

func init() {
	defaults := appconfig.Default()

	Cmd.Flags().StringVar(&configPath, "config", "", "YAML file with default settings (default $SCRIBE_CONFIG or ~/.scribe-transcriber/config.yaml)")
	Cmd.Flags().StringVarP(&language, "language", "l", defaults.Transcribe.Language, "language code of the recording, e.g. jpn or eng")
	Cmd.Flags().BoolVarP(&noAudioEvents, "no-audio-events", "e", false, "do not tag audio events such as (laughter)")
	Cmd.Flags().StringVarP(&format, "format", "f", defaults.Transcribe.Format, "output format: text or json")
	Cmd.Flags().StringVarP(&outputPath, "output", "o", "", "output file (default <output-dir>/transcript_YYYYMMDD_HHMMSS.txt)")
	Cmd.Flags().StringVar(&outputDir, "output-dir", defaults.Transcribe.OutputDir, "directory for generated transcript files")
	Cmd.Flags().StringVar(&downloadDir, "download-dir", "downloads", "directory for media downloaded from a URL")
	Cmd.Flags().IntVar(&numSpeakers, "num-speakers", defaults.Transcribe.NumSpeakers, "expected number of speakers, 0 lets the service decide")
	Cmd.Flags().BoolVar(&noDiarize, "no-diarize", false, "write each segment's raw text without speaker labels")
	Cmd.Flags().IntVar(&segmentMinutes, "segment-minutes", defaults.Transcribe.SegmentMinutes, "length of each uploaded segment in minutes")
	Cmd.Flags().StringVar(&providerName, "provider", defaults.DefaultProvider, "transcription provider: elevenlabs or openai")
	Cmd.Flags().StringVar(&modelName, "model", "", "provider model, e.g. scribe_v1")
	Cmd.Flags().BoolVar(&keepSegments, "keep-segments", false, "keep segment files after a successful run")
	Cmd.Flags().BoolVar(&jsonArray, "json-array", false, "wrap JSON output in an array so the file is a single JSON document")
	Cmd.Flags().StringVar(&metricsFile, "metrics-file", "", "write provider metrics in Prometheus textfile format to this path")
	Cmd.Flags().BoolVar(&showProgress, "progress", false, "show a progress bar on stderr when it is a terminal")
}

// Cmd represents the transcribe command
var Cmd = &cobra.Command{
	Use:   "transcribe <file-or-url>",
	Short: "Transcribe an audio or video file into a speaker-labelled transcript",
	Long: `Transcribe an audio or video file into a speaker-labelled transcript.

- The input is probed with ffprobe and cut into segments with ffmpeg
- Segments are sent to the provider one at a time, in order
- Each result is appended to the output file as soon as it arrives
- Segment files are removed only when every segment succeeded`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		verbose, _ := cmd.Flags().GetBool("verbose")
		logger, err := logging.NewLogger(verbose)
		if err != nil {
			return err
		}
		defer logger.Sync()

		cfg, err := appconfig.LoadOrDefault(configPath)
		if err != nil {
			return apperrors.Mark(err, apperrors.ErrInvalidConfig)
		}
		applyConfigDefaults(cmd, cfg)
		if err := validateFlags(); err != nil {
			return err
		}

		transcriber, metrics, err := newTranscriber(cfg)
		if err != nil {
			return err
		}

		codec := audio.NewFFmpeg()
		segmenter := audio.NewSegmenter(
			codec,
			segmentLength(segmentMinutes, transcriber.GetProviderInfo(), codec.BitrateKbps(), logger),
			cfg.Transcribe.WorkDir,
			logger,
		)
		conv := converter.NewConverter(transcriber, segmenter,
			downloader.New(downloader.WithLogger(logger)),
			converter.WithLogger(logger),
			converter.WithMetrics(metrics),
			converter.WithConsole(cmd.OutOrStdout()),
		)

		result, err := conv.Run(cmd.Context(), converter.Options{
			Source:         args[0],
			OutputPath:     outputPath,
			OutputDir:      outputDir,
			DownloadDir:    downloadDir,
			LanguageCode:   language,
			NumSpeakers:    numSpeakers,
			Diarize:        !noDiarize,
			TagAudioEvents: !noAudioEvents,
			Model:          modelName,
			Format:         transcript.Format(format),
			JSONArray:      jsonArray,
			KeepSegments:   keepSegments,
			MetricsFile:    metricsFile,
			Progress:       showProgress && converter.IsTTY(os.Stderr),
		})
		if err != nil {
			return err
		}

		logger.Info("done",
			zap.String("output", result.OutputPath),
			zap.Duration("audio", result.Duration),
			zap.Int("segments", result.Segments))
		fmt.Fprintf(cmd.OutOrStdout(), "\nTranscript saved to %s\n", result.OutputPath)
		return nil
	},
}

// applyConfigDefaults fills every flag the user did not set from cfg.
func applyConfigDefaults(cmd *cobra.Command, cfg *appconfig.Config) {
	flags := cmd.Flags()
	t := cfg.Transcribe

	if !flags.Changed("language") {
		language = t.Language
	}
	if !flags.Changed("no-audio-events") {
		noAudioEvents = !t.TagAudioEvents
	}
	if !flags.Changed("format") {
		format = t.Format
	}
	if !flags.Changed("output-dir") {
		outputDir = t.OutputDir
	}
	if !flags.Changed("num-speakers") {
		numSpeakers = t.NumSpeakers
	}
	if !flags.Changed("no-diarize") {
		noDiarize = !t.Diarize
	}
	if !flags.Changed("segment-minutes") {
		segmentMinutes = t.SegmentMinutes
	}
	if !flags.Changed("provider") {
		providerName = cfg.DefaultProvider
	}
	if !flags.Changed("metrics-file") {
		metricsFile = t.MetricsFile
	}
}

// validateFlags rejects flag values the config file would reject too.
func validateFlags() error {
	if segmentMinutes <= 0 {
		return apperrors.Mark(apperrors.InvalidField("segment-minutes", "must be positive"), apperrors.ErrInvalidConfig)
	}
	return nil
}

// newTranscriber builds the selected provider and instruments it.
func newTranscriber(cfg *appconfig.Config) (provider.ChunkTranscriber, *provider.DefaultProviderMetrics, error) {
	if _, err := provider.GetProviderCreator(providerName); err != nil {
		return nil, nil, apperrors.Wrapf(apperrors.ErrProviderNotFound,
			"%q (available: %v)", providerName, provider.ListRegisteredProviders())
	}

	keys := config.GetAPIKeys()
	settings, apiKey := cfg.ProviderSettings(providerName, keys)
	if apiKey == "" || apiKey == keys.For(providerName) {
		if _, err := config.RequireAPIKey(keys, providerName); err != nil {
			return nil, nil, err
		}
	}

	p, err := provider.CreateProvider(providerName, provider.NewProviderConfig(settings, apiKey))
	if err != nil {
		return nil, nil, apperrors.Mark(err, apperrors.ErrInvalidConfig)
	}

	metrics := provider.NewProviderMetrics()
	return provider.Instrument(p, metrics), metrics, nil
}

// segmentLength converts minutes into a segment length, shortened when a
// segment that long would exceed the provider's upload limit.
func segmentLength(minutes int, info provider.ProviderInfo, bitrateKbps int, logger *zap.Logger) time.Duration {
	length := time.Duration(minutes) * time.Minute
	limit := audio.MaxSegmentLength(info.MaxFileSizeMB, bitrateKbps)
	if limit > 0 && length > limit {
		logger.Warn("segment length exceeds the provider upload limit, shortening",
			zap.String("provider", info.Name),
			zap.Int("max_file_size_mb", info.MaxFileSizeMB),
			zap.Duration("requested", length),
			zap.Duration("used", limit))
		return limit
	}
	return length
}
