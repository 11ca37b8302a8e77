package logger

import (
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Config opciones para el logger.
type Config struct {
	Env      string // development -> consola legible; otro -> JSON
	Level    string // trace, debug, info, warn, error
	WriterID string // se agrega a cada línea para distinguir dispositivos
	Out      io.Writer
}

// New crea el logger estructurado raíz y redirige el logger global de zerolog.
func New(cfg Config) zerolog.Logger {
	var w io.Writer = os.Stdout
	if cfg.Out != nil {
		w = cfg.Out
	}
	if cfg.Env == "development" {
		w = zerolog.ConsoleWriter{Out: w}
	}

	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}
	ctx := zerolog.New(w).Level(level).With().Timestamp()
	if cfg.WriterID != "" {
		ctx = ctx.Str("writer_id", cfg.WriterID)
	}
	zl := ctx.Logger()

	log.Logger = zl
	return zl
}

// Component devuelve un sublogger con el campo component fijo.
func Component(base zerolog.Logger, name string) zerolog.Logger {
	return base.With().Str("component", name).Logger()
}

// Nop logger descartado, para tests.
func Nop() zerolog.Logger {
	return zerolog.Nop()
}
