package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/drugqa/internal/blob"
	blobbadger "github.com/kailas-cloud/drugqa/internal/blob/badger"
	blobredis "github.com/kailas-cloud/drugqa/internal/blob/redis"
	"github.com/kailas-cloud/drugqa/internal/blob/s3store"
	"github.com/kailas-cloud/drugqa/internal/config"
	"github.com/kailas-cloud/drugqa/internal/domain"
	"github.com/kailas-cloud/drugqa/internal/metrics"
	"github.com/kailas-cloud/drugqa/internal/repository/embcache"
	openaitr "github.com/kailas-cloud/drugqa/internal/transport/openai"
	"github.com/kailas-cloud/drugqa/internal/usecase/adapter"
	"github.com/kailas-cloud/drugqa/internal/usecase/adapter/prediction"
	"github.com/kailas-cloud/drugqa/internal/usecase/adapter/retrieval"
	"github.com/kailas-cloud/drugqa/internal/usecase/answer"
	"github.com/kailas-cloud/drugqa/internal/usecase/ask"
	embeddinguc "github.com/kailas-cloud/drugqa/internal/usecase/embedding"
	"github.com/kailas-cloud/drugqa/internal/usecase/evidence"
	healthuc "github.com/kailas-cloud/drugqa/internal/usecase/health"
	"github.com/kailas-cloud/drugqa/internal/usecase/ingest"
	"github.com/kailas-cloud/drugqa/internal/usecase/intent"
	"github.com/kailas-cloud/drugqa/internal/usecase/orchestrator"
	"github.com/kailas-cloud/drugqa/internal/vectorindex"
)

// app is the composition root shared by every command.
type app struct {
	ask    *ask.Service
	ingest *ingest.Service
	health *healthuc.Service
	index  *vectorindex.Store

	closers []func()
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

func buildApp(ctx context.Context, cfg config.Config, logger *zap.Logger) (*app, error) {
	metrics.Register()
	a := &app{}

	store, err := openStorage(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	if c, ok := store.(interface{ Close() error }); ok {
		a.closers = append(a.closers, func() {
			if err := c.Close(); err != nil {
				logger.Warn("Failed to close storage", zap.Error(err))
			}
		})
	} else if c, ok := store.(interface{ Close() }); ok {
		a.closers = append(a.closers, c.Close)
	}

	vec := cfg.Vector()
	a.index, err = vectorindex.New(store, vectorindex.Config{
		Dimensions:  vec.Dimensions,
		CacheSize:   cfg.Index.CacheSize,
		KeyPrefix:   cfg.Storage.KeyPrefix,
		LoadTimeout: config.Seconds(cfg.Index.LoadTimeoutSec),
		SaveTimeout: config.Seconds(cfg.Index.SaveTimeoutSec),
	}, logger)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("create vector index: %w", err)
	}

	base := openaitr.NewEmbedder(&openaitr.Config{
		APIKey:     cfg.Embedding.Providers[vec.Provider].APIKey,
		BaseURL:    cfg.Embedding.Providers[vec.Provider].BaseURL,
		Model:      vec.Model,
		Dimensions: vec.Dimensions,
		Provider:   vec.Provider,
	})
	docEmbedder := buildEmbedder(cfg, base, store, vec.DocumentInstruction, logger)
	queryEmbedder := buildEmbedder(cfg, base, store, vec.QueryInstruction, logger)
	logger.Info("Embedders created",
		zap.String("provider", vec.Provider),
		zap.String("model", vec.Model),
		zap.Int("dimensions", vec.Dimensions),
		zap.Bool("cache", cfg.Embedding.Cache),
	)

	prov := cfg.Embedding.Providers[cfg.Completion.Provider]
	completer := openaitr.NewCompleter(&openaitr.Config{
		APIKey:   prov.APIKey,
		BaseURL:  prov.BaseURL,
		Model:    cfg.Completion.SynthesisModel,
		Provider: cfg.Completion.Provider,
	},
		openaitr.WithTemperature(cfg.Completion.Temperature),
		openaitr.WithMaxTokens(cfg.Completion.MaxTokens),
	)

	examples, err := intent.LoadExamplesFile(cfg.Completion.IntentExamples)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("load intent examples: %w", err)
	}
	classifier := intent.New(completer, intent.Config{
		Model:    cfg.Completion.ClassifierModel,
		Timeout:  config.Seconds(cfg.Completion.ClassifierTimeoutSec),
		Examples: examples,
	}, logger)

	registry, err := buildRegistry(cfg, a.index, queryEmbedder, logger)
	if err != nil {
		a.Close()
		return nil, err
	}

	policy, err := evidence.ParsePolicy(cfg.Pipeline.PredictionPolicy)
	if err != nil {
		a.Close()
		return nil, err
	}

	orch := orchestrator.New(registry, orchestrator.Config{
		TopK:           cfg.Pipeline.TopK,
		MinScore:       cfg.Pipeline.MinScore,
		TaskTimeout:    config.Seconds(cfg.Pipeline.TaskTimeoutSec),
		MaxConcurrency: cfg.Pipeline.MaxConcurrency,
	})
	normalizer := evidence.New(evidence.Config{
		HomeCountry: cfg.Pipeline.HomeCountry,
		Policy:      policy,
	})
	synthesizer := answer.New(completer, answer.Config{
		Model:       cfg.Completion.SynthesisModel,
		MaxTokens:   cfg.Completion.MaxTokens,
		Timeout:     config.Seconds(cfg.Completion.SynthesisTimeoutSec),
		HomeCountry: cfg.Pipeline.HomeCountry,
		Ratios:      cfg.Pipeline.PriceRatios,
	})
	a.ask = ask.New(classifier, orch, normalizer, synthesizer)

	a.ingest, err = ingest.New(a.index, docEmbedder, ingest.Config{
		ChunkSize: cfg.Ingest.ChunkSize,
		Overlap:   cfg.Ingest.Overlap,
		BatchSize: cfg.Ingest.BatchSize,
		Workers:   cfg.Ingest.Workers,
	}, logger)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("create ingest service: %w", err)
	}
	a.closers = append(a.closers, a.ingest.Close)

	a.health = healthuc.New(store, base, completer)

	return a, nil
}

// storage is what every backend offers: objects plus a connectivity probe.
type storage interface {
	blob.Store
	blob.Pinger
}

// openStorage connects the configured object storage backend.
func openStorage(ctx context.Context, cfg config.Config, logger *zap.Logger) (storage, error) {
	sc := cfg.Storage
	logger.Info("Opening storage", zap.String("backend", sc.Backend))

	switch sc.Backend {
	case config.BackendMemory:
		return blob.NewMemory(), nil
	case config.BackendBadger:
		s, err := blobbadger.Open(blobbadger.Config{Dir: sc.Badger.Dir, InMemory: sc.Badger.InMemory}, logger)
		if err != nil {
			return nil, fmt.Errorf("open badger: %w", err)
		}
		return s, nil
	case config.BackendRedis:
		s, err := blobredis.NewStore(blobredis.Config{Addrs: sc.Redis.Addrs, Password: sc.Redis.Password})
		if err != nil {
			return nil, fmt.Errorf("create redis store: %w", err)
		}
		if err := s.WaitForReady(ctx, config.Seconds(sc.Redis.ReadinessTimeout)); err != nil {
			s.Close()
			return nil, fmt.Errorf("redis not ready: %w", err)
		}
		return s, nil
	case config.BackendS3:
		s, err := s3store.NewFromConfig(s3store.Config{
			Bucket:          sc.S3.Bucket,
			Region:          sc.S3.Region,
			Endpoint:        sc.S3.Endpoint,
			AccessKeyID:     sc.S3.AccessKeyID,
			SecretAccessKey: sc.S3.SecretAccessKey,
			UsePathStyle:    sc.S3.UsePathStyle,
		})
		if err != nil {
			return nil, fmt.Errorf("create s3 store: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", sc.Backend)
	}
}

// buildEmbedder assembles the decorator chain: OpenAI -> Cached -> Instrumented -> Instruction.
func buildEmbedder(
	cfg config.Config, base domain.Embedder, store blob.Store, instruction string, logger *zap.Logger,
) domain.Embedder {
	vec := cfg.Vector()

	embedder := base
	if cfg.Embedding.Cache {
		embedder = embcache.New(base, store, cfg.Storage.KeyPrefix, vec.Model, metrics.EmbeddingCacheTotal, logger)
	}

	embedder = embeddinguc.NewInstrumentedEmbedder(
		embedder, vec.Provider, vec.Model, cfg.Embedding.MaxBatchSize, logger,
	)

	// Outermost, so the cache key includes the instruction.
	if instruction != "" {
		return domain.NewInstructionEmbedder(embedder, instruction)
	}
	return embedder
}

// buildRegistry registers retrieval and every configured prediction service.
func buildRegistry(
	cfg config.Config, index *vectorindex.Store, queryEmbedder domain.Embedder, logger *zap.Logger,
) (*adapter.Registry, error) {
	reg := adapter.NewRegistry()
	if err := reg.Register(domain.CapabilityRetrieval, retrieval.New(index, queryEmbedder)); err != nil {
		return nil, fmt.Errorf("register retrieval: %w", err)
	}

	services := []struct {
		capability domain.Capability
		cfg        config.ServiceConfig
	}{
		{domain.CapabilityPricePrediction, cfg.Prediction.Price},
		{domain.CapabilityTimelinePrediction, cfg.Prediction.Timeline},
	}
	for _, s := range services {
		if s.cfg.URL == "" {
			logger.Info("Prediction service not configured", zap.String("capability", string(s.capability)))
			continue
		}
		a, err := prediction.NewHTTPAdapter(prediction.Config{
			URL:     s.cfg.URL,
			APIKey:  s.cfg.APIKey,
			Timeout: config.Seconds(s.cfg.TimeoutSec),
		})
		if err != nil {
			return nil, fmt.Errorf("create %s adapter: %w", s.capability, err)
		}
		var opts []adapter.Option
		if s.cfg.DependsOnRetrieval {
			opts = append(opts, adapter.DependsOnRetrieval())
		}
		if err := reg.Register(s.capability, a, opts...); err != nil {
			return nil, fmt.Errorf("register %s: %w", s.capability, err)
		}
	}
	return reg, nil
}
