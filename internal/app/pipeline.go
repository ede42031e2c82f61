package app

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"horse.fit/partyplan/internal/cache"
	"horse.fit/partyplan/internal/cli"
	"horse.fit/partyplan/internal/config"
	"horse.fit/partyplan/internal/funtranslate"
	"horse.fit/partyplan/internal/langdetect"
)

func loadConfig(envLoader *cli.EnvLoader) (*config.Config, error) {
	if envLoader != nil {
		if _, err := envLoader.Load(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// buildOrchestrator wires the vendor clients, the optional style cache and language detection.
// The returned func releases the cache connection.
func buildOrchestrator(
	ctx context.Context,
	cfg *config.Config,
	logger zerolog.Logger,
	reg prometheus.Registerer,
) (*funtranslate.Orchestrator, func(), error) {
	if cfg == nil {
		return nil, nil, fmt.Errorf("config is required")
	}

	gateway := funtranslate.NewHTTPGateway(cfg.TranslationTimeout)
	languageClient := funtranslate.NewGoogleClient(gateway, cfg.LanguageTranslateEndpoint, cfg.GoogleAPIKey, logger)

	var styleClient funtranslate.StyleClient = funtranslate.NewFunTranslationsClient(gateway, cfg.StyleTranslateBaseURL, logger)
	closeCache := func() {}
	if cfg.CacheEnabled() {
		redisCache, err := cache.NewRedisCache(ctx, cache.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		}, logger)
		if err != nil {
			logger.Warn().Err(err).Msg("style cache unavailable; calling the style vendor directly")
		} else {
			styleClient = funtranslate.NewCachingStyleClient(styleClient, redisCache, cfg.StyleCacheTTL, logger)
			closeCache = func() {
				if err := redisCache.Close(); err != nil {
					logger.Warn().Err(err).Msg("close redis cache")
				}
			}
		}
	}

	opts := funtranslate.Options{
		AuthoringLanguage:    cfg.AuthoringLanguage,
		IntermediateLanguage: cfg.IntermediateLanguage,
		Metrics:              funtranslate.NewMetrics(reg),
	}
	if cfg.DetectAuthoringLanguage {
		opts.Detector = langdetect.NewDetector()
	}

	orchestrator := funtranslate.NewOrchestrator(
		languageClient,
		styleClient,
		funtranslate.DefaultRegistry(),
		logger,
		opts,
	)
	return orchestrator, closeCache, nil
}

func printJSON(value any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(value)
}
