package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Logger owns the zerolog sink for one process run
type Logger struct {
	logger   zerolog.Logger
	file     io.Closer
	redactor *Redactor
}

// Config mirrors the logging section of the edupilot config
type Config struct {
	Level     string
	File      string
	Console   bool
	Pretty    bool
	Redaction bool
	MaxSize   int // megabytes
	MaxAge    int // days
	Compress  bool

	// Output receives console logs, stderr when nil
	Output io.Writer
}

// New builds the sink chain console/file -> redactor -> zerolog. Unknown
// levels fall back to info.
func New(cfg Config) (*Logger, error) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}

	sink, file, err := openSinks(cfg)
	if err != nil {
		return nil, err
	}

	l := &Logger{}
	if file != nil {
		l.file = file
	}
	if cfg.Redaction {
		l.redactor = NewRedactor()
		sink = l.redactor.Wrap(sink)
	}
	l.logger = zerolog.New(sink).Level(level).With().Timestamp().Logger()
	return l, nil
}

func openSinks(cfg Config) (io.Writer, *RotatingWriter, error) {
	var sinks []io.Writer

	if cfg.Console {
		out := cfg.Output
		if out == nil {
			out = os.Stderr
		}
		if cfg.Pretty {
			out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
		}
		sinks = append(sinks, out)
	}

	var file *RotatingWriter
	if cfg.File != "" {
		maxSize := cfg.MaxSize
		if maxSize <= 0 {
			maxSize = 100
		}
		var err error
		if file, err = NewRotatingWriter(cfg.File, maxSize, cfg.MaxAge, cfg.Compress); err != nil {
			return nil, nil, err
		}
		sinks = append(sinks, file)
	}

	switch len(sinks) {
	case 0:
		return io.Discard, nil, nil
	case 1:
		return sinks[0], file, nil
	}
	return io.MultiWriter(sinks...), file, nil
}

// Close flushes and closes the log file, if any
func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}
	return l.file.Close()
}

// GetZerolog returns the configured zerolog.Logger
func (l *Logger) GetZerolog() zerolog.Logger {
	return l.logger
}

// Redactor returns the active redactor, nil when redaction is off
func (l *Logger) Redactor() *Redactor {
	return l.redactor
}
