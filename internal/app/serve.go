package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"horse.fit/partyplan/internal/cli"
	"horse.fit/partyplan/internal/db"
	"horse.fit/partyplan/internal/events"
	"horse.fit/partyplan/internal/httpapi"
	"horse.fit/partyplan/internal/logging"
)

func runServe(args []string) int {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	host := fs.String("host", "", "Host interface to bind (defaults to HTTP_HOST)")
	port := fs.Int("port", 0, "HTTP port (defaults to HTTP_PORT)")
	readTimeout := fs.Duration("read-timeout", 10*time.Second, "HTTP read timeout")
	writeTimeout := fs.Duration("write-timeout", 30*time.Second, "HTTP write timeout")
	shutdownTimeout := fs.Duration("shutdown-timeout", 10*time.Second, "Graceful shutdown timeout")
	skipResume := fs.Bool("skip-resume", false, "Do not re-queue events left pending by a previous run")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	if *port < 0 || *port > 65535 {
		fmt.Fprintln(os.Stderr, "--port must be between 1 and 65535")
		return 2
	}

	cfg, err := loadConfig(envLoader)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if strings.TrimSpace(*host) == "" {
		*host = cfg.HTTPHost
	}
	if *port == 0 {
		*port = cfg.HTTPPort
	}

	logger, err := logging.New(cfg.Environment, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbCtx, dbCancel := context.WithTimeout(ctx, 10*time.Second)
	defer dbCancel()

	pool, err := db.NewPool(dbCtx, cfg, logger)
	if err != nil {
		logger.Error().Err(err).Msg("serve failed to connect to database")
		fmt.Fprintf(os.Stderr, "Failed to connect to database: %v\n", err)
		return 1
	}
	defer pool.Close()

	orchestrator, closeCache, err := buildOrchestrator(ctx, cfg, logger, prometheus.DefaultRegisterer)
	if err != nil {
		logger.Error().Err(err).Msg("serve failed to build translation pipeline")
		fmt.Fprintf(os.Stderr, "Failed to build translation pipeline: %v\n", err)
		return 1
	}
	defer closeCache()

	dispatcher := events.NewDispatcher(orchestrator, pool, logger, events.DispatcherOptions{
		Workers:   cfg.TranslationWorkers,
		QueueSize: cfg.TranslationQueueSize,
	})
	dispatcher.Start(ctx)
	defer dispatcher.Close()

	if !*skipResume {
		resumeCtx, resumeCancel := context.WithTimeout(ctx, 10*time.Second)
		queued, err := dispatcher.ResumePending(resumeCtx)
		resumeCancel()
		if err != nil {
			logger.Warn().Err(err).Msg("resume pending translations failed")
		} else if queued > 0 {
			logger.Info().Int("queued", queued).Msg("resumed pending translations")
		}
	}

	service := events.NewService(pool, dispatcher, orchestrator, logger)
	srv := httpapi.NewServer(service, pool, orchestrator.Registry(), logger, httpapi.Options{
		Host:               *host,
		Port:               *port,
		ReadTimeout:        *readTimeout,
		WriteTimeout:       *writeTimeout,
		ShutdownTimeout:    *shutdownTimeout,
		CORSAllowedOrigins: cfg.CORSAllowedOriginsList(),
	})

	if err := srv.Start(ctx); err != nil {
		logger.Error().Err(err).Str("host", *host).Int("port", *port).Msg("server failed")
		fmt.Fprintf(os.Stderr, "Server failed: %v\n", err)
		return 1
	}

	return 0
}
