// Package logging wires structured, optionally rotating logging for the
// gateway process, grounded on Hola-to-network_logistics_problem's
// pkg/logger/logger.go (same slog + lumberjack choice, its own comments
// rewritten rather than carried over).
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/fluxweld/gatewing/internal/reqid"
)

var Log *slog.Logger

// Config controls the destination, format, and rotation of gateway logs.
type Config struct {
	Level      string // debug, info, warn, error
	Format     string // json, text
	Output     string // stdout, stderr, file
	FilePath   string
	MaxSize    int
	MaxBackups int
	MaxAge     int
	Compress   bool
}

// Init builds the package-level logger from cfg.
func Init(cfg Config) {
	var lvl slog.Level
	switch cfg.Level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	var writer io.Writer
	switch cfg.Output {
	case "stderr":
		writer = os.Stderr
	case "file":
		path := cfg.FilePath
		if path == "" {
			path = "logs/gatewing.log"
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			writer = os.Stdout
		} else {
			writer = &lumberjack.Logger{
				Filename:   path,
				MaxSize:    cfg.MaxSize,
				MaxBackups: cfg.MaxBackups,
				MaxAge:     cfg.MaxAge,
				Compress:   cfg.Compress,
			}
		}
	default:
		writer = os.Stdout
	}

	opts := &slog.HandlerOptions{Level: lvl, AddSource: lvl == slog.LevelDebug}
	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(writer, opts)
	} else {
		handler = slog.NewJSONHandler(writer, opts)
	}
	Log = slog.New(handler)
}

func init() {
	// A usable default before Init runs, so packages importing logging for
	// side effects during tests never see a nil logger.
	Log = slog.New(slog.NewTextHandler(os.Stdout, nil))
}

// FromContext returns the package logger annotated with the request id
// carried by ctx, matching reqid's per-request correlation.
func FromContext(ctx context.Context) *slog.Logger {
	if id, ok := reqid.FromContext(ctx); ok {
		return Log.With("request_id", strconv.FormatInt(id, 10))
	}
	return Log
}
