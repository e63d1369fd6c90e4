package logging

import (
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/bio2bel/bio2bel/pkg/config"
)

const (
	DefaultMaxSizeMB  = 20
	DefaultMaxBackups = 3
	DefaultMaxAgeDays = 30
	DefaultCompress   = true

	timeFormat = "2006-01-02 15:04:05"
)

// LevelFromVerbosity maps a -v count to a level name.
func LevelFromVerbosity(verbosity int) string {
	switch verbosity {
	case 0:
		return "info"
	case 1:
		return "debug"
	default: // 2+
		return "trace"
	}
}

// Apply sets the global log level and output writers.
// Console output goes to stderr so command output on stdout stays clean.
// When logFilePath is non-empty a rotating file writer is added; rotation knobs come from the
// [log] section of the global config file.
func Apply(level string, loader *config.Loader, logFilePath string) {
	applyLevel(level)
	log.Logger = zerolog.New(writers(os.Stderr, loader, logFilePath)).With().Timestamp().Logger()
}

func applyLevel(level string) {
	switch level {
	case "trace":
		zerolog.SetGlobalLevel(zerolog.TraceLevel)
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}

func writers(console io.Writer, loader *config.Loader, logFilePath string) io.Writer {
	consoleOutput := zerolog.ConsoleWriter{Out: console, TimeFormat: timeFormat}
	if logFilePath == "" {
		return consoleOutput
	}

	if err := ensureLogDir(logFilePath); err != nil {
		log.Logger = zerolog.New(consoleOutput).With().Timestamp().Logger()
		log.Error().Err(err).Str("path", logFilePath).Msg("Failed to prepare log directory; logging to console only")
		return consoleOutput
	}

	fileConsole := zerolog.ConsoleWriter{
		Out:        rotatingFile(logFilePath, loader),
		TimeFormat: timeFormat,
		NoColor:    true,
	}

	return zerolog.MultiLevelWriter(consoleOutput, fileConsole)
}

// rotatingFile builds the lumberjack writer, applying rotation settings over the defaults.
func rotatingFile(path string, loader *config.Loader) *lumberjack.Logger {
	fileWriter := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    DefaultMaxSizeMB,
		MaxBackups: DefaultMaxBackups,
		MaxAge:     DefaultMaxAgeDays,
		Compress:   DefaultCompress,
	}
	if loader == nil {
		return fileWriter
	}
	if val := loader.Int("log.max_size_mb", DefaultMaxSizeMB); val > 0 {
		fileWriter.MaxSize = val
	}
	if val := loader.Int("log.max_backups", DefaultMaxBackups); val >= 0 {
		fileWriter.MaxBackups = val
	}
	if val := loader.Int("log.max_age_days", DefaultMaxAgeDays); val >= 0 {
		fileWriter.MaxAge = val
	}
	fileWriter.Compress = loader.Bool("log.compress", DefaultCompress)
	return fileWriter
}

func ensureLogDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "" || dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
