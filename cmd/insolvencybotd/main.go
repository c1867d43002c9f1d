package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/fastdatascience/insolvencybot/bot"
	"github.com/fastdatascience/insolvencybot/config"
	"github.com/fastdatascience/insolvencybot/llm"
	llmanthropic "github.com/fastdatascience/insolvencybot/llm/anthropic"
	llmopenai "github.com/fastdatascience/insolvencybot/llm/openai"
	"github.com/fastdatascience/insolvencybot/logger"
	"github.com/fastdatascience/insolvencybot/metrics"
	"github.com/fastdatascience/insolvencybot/ratelimit"
	"github.com/fastdatascience/insolvencybot/server"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config file")
	addr := flag.String("addr", "", "Listen address override (host:port)")
	logFile := flag.String("logfile", "insolvencybot.log", "Log file path (use empty string for stdout logging)")
	pretty := flag.Bool("pretty", false, "Pretty console logging (only valid with -logfile \"\")")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Options{
		File:   *logFile,
		Pretty: *pretty,
		Level:  cfg.LogLevel,
		Debug:  cfg.Debug,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	registry := llm.NewRegistry()
	if cfg.OpenAI.APIKey != "" {
		client, err := llmopenai.NewClient(cfg.OpenAI.APIKey, cfg.OpenAI.BaseURL, cfg.OpenAI.Organization)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create OpenAI client")
		}
		registry.RegisterClient(llm.ProviderOpenAI, client)
		log.Info().Msg("OpenAI provider configured")
	}
	if cfg.Anthropic.APIKey != "" {
		client, err := llmanthropic.NewClient(cfg.Anthropic.APIKey)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create Anthropic client")
		}
		registry.RegisterClient(llm.ProviderAnthropic, client)
		log.Info().Msg("Anthropic provider configured")
	}
	if !cfg.HasProviderCredential() {
		log.Warn().Msg("No provider credentials configured; all questions will fail until one is set")
	}

	collector := metrics.NewCollector(cfg.Metrics.SampleCapacity, cfg.Metrics.Retention)
	limiter := ratelimit.NewLimiter(ratelimit.Limits{
		PerMinute: cfg.RateLimit.PerMinute,
		PerHour:   cfg.RateLimit.PerHour,
		PerDay:    cfg.RateLimit.PerDay,
		Retention: cfg.RateLimit.Retention,
	}, log)
	b := bot.New(registry, bot.RetryPolicy{
		MaxRetries:      cfg.Retry.MaxRetries,
		InitialInterval: cfg.Retry.InitialInterval,
		MaxInterval:     cfg.Retry.MaxInterval,
		MaxElapsedTime:  cfg.Retry.MaxElapsedTime,
	}, collector, log)
	srv := server.New(cfg, b, limiter, collector, log)

	// Periodic housekeeping: evict idle rate-limit clients and expire
	// out-of-window metrics minutes.
	scheduler := cron.New()
	if _, err := scheduler.AddFunc("@every 1m", limiter.Sweep); err != nil {
		log.Fatal().Err(err).Msg("Failed to schedule rate limiter sweep")
	}
	if _, err := scheduler.AddFunc("@every 1m", collector.Sweep); err != nil {
		log.Fatal().Err(err).Msg("Failed to schedule metrics sweep")
	}
	scheduler.Start()
	defer scheduler.Stop()

	listenAddr := cfg.Addr()
	if *addr != "" {
		listenAddr = *addr
	}
	httpSrv := &http.Server{
		Addr:              listenAddr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", listenAddr).Msg("insolvencybot daemon listening")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	log.Info().Msg("Shutdown signal received, draining connections")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Shutdown did not complete cleanly")
	}
	log.Info().Msg("Goodbye")
}
