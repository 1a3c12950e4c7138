package main

import (
	"fmt"

	"github.com/gartstein/companyrisk/internal/company/controller"
	"github.com/gartstein/companyrisk/internal/company/db"
	"github.com/gartstein/companyrisk/internal/company/events"
	"github.com/gartstein/companyrisk/internal/company/metrics"
	"github.com/gartstein/companyrisk/internal/company/news"
	"github.com/gartstein/companyrisk/internal/company/refdata"
	"github.com/gartstein/companyrisk/internal/company/registry"
	"github.com/gartstein/companyrisk/internal/company/scoring"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type producer interface {
	Produce(event events.Event)
	Close()
}

// components is the wired analysis pipeline shared by analyze and serve.
type components struct {
	service  *controller.AnalysisService
	registry *prometheus.Registry
	closers  []func()
}

// Close releases resources in reverse order of acquisition.
func (c *components) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
}

// build wires reference data, registry, news search, scoring, storage and
// events. Reference data problems abort here, before any network call.
func (a *app) build() (*components, error) {
	cfg, logger := a.cfg, a.logger

	ref, err := refdata.Load(refdata.Paths{
		RedFlagCountries: cfg.RedFlagCountriesPath,
		FakeNames:        cfg.FakeNamesPath,
		ScoreWeights:     cfg.ScoreWeightsPath,
	})
	if err != nil {
		return nil, err
	}
	countries, names := ref.Counts()
	logger.Info("Reference data loaded",
		zap.Int("red_flag_countries", countries),
		zap.Int("fake_names", names),
	)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)
	comps := &components{registry: reg}

	// pacing sits below the cache so repeated queries are served at once
	var searcher news.Searcher = news.NewPacedSearcher(
		news.NewClient(news.Config{BaseURL: cfg.NewsBaseURL}, logger),
		cfg.NewsMaxPacing,
	)
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		comps.closers = append(comps.closers, func() {
			if err := rdb.Close(); err != nil {
				logger.Warn("Failed to close Redis client", zap.Error(err))
			}
		})
		searcher = news.NewCachedSearcher(searcher, rdb, cfg.NewsCacheTTL, logger)
	}

	evaluator := scoring.NewEvaluator(ref, searcher, logger, scoring.Options{
		NewsWindowYears: cfg.NewsWindowYears,
		NewsTimeout:     cfg.NewsTimeout,
		Metrics:         m,
	})
	aggregator := scoring.NewAggregator(evaluator, logger, m)

	if cfg.RegistryAPIKey == "" {
		logger.Warn("No registry API key configured; registry calls will be rejected")
	}
	client := registry.NewClient(registry.Config{
		BaseURL:     cfg.RegistryBaseURL,
		DocumentURL: cfg.RegistryDocumentURL,
		APIKey:      cfg.RegistryAPIKey,
	}, logger)
	builder := registry.NewBuilder(client, cfg.DocumentDelay, logger)

	repo, err := db.NewRepository(&db.Config{
		Driver:   cfg.DBDriver,
		DSN:      cfg.DBDSN,
		Host:     cfg.DBHost,
		Port:     cfg.DBPort,
		User:     cfg.DBUser,
		Password: cfg.DBPassword,
		DBName:   cfg.DBName,
		SSLMode:  cfg.DBSSLMode,
	})
	if err != nil {
		comps.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	comps.closers = append(comps.closers, func() {
		if err := repo.Close(); err != nil {
			logger.Warn("Failed to close database", zap.Error(err))
		}
	})

	var prod producer = events.NopProducer{}
	if len(cfg.KafkaBrokers) > 0 {
		p, err := events.NewProducer(cfg.KafkaBrokers, logger, cfg.Topic)
		if err != nil {
			comps.Close()
			return nil, fmt.Errorf("failed to initialize Kafka producer: %w", err)
		}
		prod = p
	}
	comps.closers = append(comps.closers, prod.Close)

	comps.service = controller.NewAnalysisService(repo, builder, aggregator, prod, m, logger)
	return comps, nil
}
