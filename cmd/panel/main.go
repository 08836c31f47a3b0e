// cmd/panel/main.go
package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/farllirs/botpanel/internal/bot"
	"github.com/farllirs/botpanel/internal/config"
	"github.com/farllirs/botpanel/internal/panel"
	"github.com/farllirs/botpanel/internal/store"
	v "github.com/farllirs/botpanel/internal/version"
)

func main() {
	cfg, err := config.New()
	if err != nil {
		errLogger := zerolog.New(os.Stderr)
		errLogger.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logger := newLogger(cfg)
	logger.Info().Str("version", v.AppVersion).Msgf("Starting %s...", v.AppName)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	st, err := store.Open(cfg.DataDir, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to open command store")
	}

	sessions := panel.NewSessionStore(cfg.DataDir)
	registry := bot.NewRegistry(st, logger)
	defer registry.Shutdown()

	srv := panel.NewServer(cfg.Port, registry, st, sessions, logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Run(ctx)
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	select {
	case s := <-sig:
		logger.Info().Msgf("Received signal %s, shutting down...", s)
		cancel()
		<-errCh
	case err := <-errCh:
		if err != nil {
			logger.Error().Err(err).Msg("Panel server error")
		}
		cancel()
	}

	logger.Info().Msg("Panel exited cleanly")
}

func newLogger(cfg *config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}

	var out io.Writer = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}
	if cfg.LogFile != "" {
		out = zerolog.MultiLevelWriter(out, &lumberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    10, // MB
			MaxBackups: 3,
			MaxAge:     30, // days
		})
	}

	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}
