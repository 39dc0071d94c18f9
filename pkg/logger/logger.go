package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/natefinch/lumberjack"
	"github.com/sirupsen/logrus"
	prefixed "github.com/x-cray/logrus-prefixed-formatter"
)

// Config controls console verbosity and the rotated log file.
type Config struct {
	Verbosity int
	File      string
	// MaxSize is in megabytes
	MaxSize    int
	MaxBackups int
}

var (
	// root logger every component logger derives from
	log = logrus.New()
)

func init() {
	log.SetFormatter(&prefixed.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
		ForceFormatting: true,
	})
	log.SetLevel(logrus.InfoLevel)
}

// Init configures the level and output of every logger.
func Init(cfg Config) error {
	switch {
	case cfg.Verbosity >= 2:
		log.SetLevel(logrus.TraceLevel)
	case cfg.Verbosity == 1:
		log.SetLevel(logrus.DebugLevel)
	default:
		log.SetLevel(logrus.InfoLevel)
	}

	if cfg.File == "" {
		log.SetOutput(os.Stderr)
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(cfg.File), 0755); err != nil {
		return fmt.Errorf("create log directory: %w", err)
	}

	if cfg.MaxSize == 0 {
		cfg.MaxSize = 5
	}
	if cfg.MaxBackups == 0 {
		cfg.MaxBackups = 10
	}

	log.SetOutput(io.MultiWriter(os.Stderr, &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
	}))

	return nil
}

func GetLogger(prefix string) *logrus.Entry {
	return log.WithFields(logrus.Fields{"prefix": prefix})
}

// SetOutput redirects every logger, mainly for tests.
func SetOutput(w io.Writer) {
	log.SetOutput(w)
}
