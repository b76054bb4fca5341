// Package app assembles the service from its configuration.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/smallnest/teamgraph/config"
	"github.com/smallnest/teamgraph/gateway"
	"github.com/smallnest/teamgraph/graph"
	"github.com/smallnest/teamgraph/llm"
	"github.com/smallnest/teamgraph/log"
	"github.com/smallnest/teamgraph/metrics"
	"github.com/smallnest/teamgraph/store"
	"github.com/smallnest/teamgraph/store/memory"
	"github.com/smallnest/teamgraph/store/postgres"
	"github.com/smallnest/teamgraph/store/redis"
	"github.com/smallnest/teamgraph/store/sqlite"
	"github.com/smallnest/teamgraph/teams"
	"github.com/smallnest/teamgraph/tool"
	"github.com/tmc/langchaingo/llms"
)

// MetricsNamespace prefixes every exported metric.
const MetricsNamespace = "teamgraph"

// App holds the long-lived components of the service.
type App struct {
	Config       *config.Config
	Orchestrator *teams.Orchestrator
	Gateway      *gateway.Gateway
	Metrics      *metrics.Collector
	Registry     *prometheus.Registry
	Workspace    *tool.Workspace

	// Checkpoints is nil when checkpointing is disabled.
	Checkpoints store.CheckpointStore

	closers []func() error
}

// New builds the model from cfg and assembles the service around it.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	model, err := llm.New(cfg.LLM)
	if err != nil {
		return nil, err
	}
	return NewWithModel(ctx, cfg, model)
}

// NewWithModel assembles the service around model.
func NewWithModel(ctx context.Context, cfg *config.Config, model llms.Model) (*App, error) {
	toolset, err := teams.NewToolset(cfg.Tools)
	if err != nil {
		return nil, fmt.Errorf("failed to build tools: %w", err)
	}

	orchestrator, err := teams.NewOrchestrator(model, toolset,
		teams.WithRecursionLimit(cfg.Run.RecursionLimit))
	if err != nil {
		return nil, fmt.Errorf("failed to build orchestrator: %w", err)
	}

	checkpoints, closeStore, err := OpenStore(ctx, cfg.Checkpoint)
	if err != nil {
		return nil, err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector := metrics.NewCollector(MetricsNamespace, registry)

	gw := gateway.New(orchestrator,
		gateway.WithFilter(gateway.Filter{
			Enabled:  cfg.Run.StreamFilterEnabled,
			Prefixes: cfg.Run.StreamFilterPrefixes,
		}),
		gateway.WithBufferSize(cfg.Run.StreamBufferSize),
		gateway.WithObserver(collector.ObserveStream),
	)

	a := &App{
		Config:       cfg,
		Orchestrator: orchestrator,
		Gateway:      gw,
		Metrics:      collector,
		Registry:     registry,
		Workspace:    toolset.Workspace,
		Checkpoints:  checkpoints,
	}
	if closeStore != nil {
		a.closers = append(a.closers, closeStore)
	}

	log.Info("teamgraph ready: provider=%s search=%s checkpoints=%s recursion_limit=%d",
		cfg.LLM.Provider, cfg.Tools.SearchProvider, cfg.Checkpoint.Backend, orchestrator.RecursionLimit())
	return a, nil
}

// RunConfig returns the graph config for a new run. An empty runID gets a
// fresh one.
func (a *App) RunConfig(runID string) *graph.Config {
	if runID == "" {
		runID = uuid.NewString()
	}
	c := &graph.Config{
		RecursionLimit: a.Orchestrator.RecursionLimit(),
		RunID:          runID,
		Callbacks:      []graph.CallbackHandler{a.Metrics},
		Listeners:      []graph.NodeListener{a.Metrics},
	}
	if a.Checkpoints != nil {
		c.Callbacks = append(c.Callbacks, graph.NewCheckpointListener(a.Checkpoints, runID))
	}
	return c
}

// Close releases the checkpoint store.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// OpenStore opens the configured checkpoint backend. The store is nil for
// the "none" backend. The returned close func may be nil.
func OpenStore(ctx context.Context, cfg config.Checkpoint) (store.CheckpointStore, func() error, error) {
	switch cfg.Backend {
	case "", "none":
		return nil, nil, nil

	case "memory":
		return memory.NewMemoryCheckpointStore(), nil, nil

	case "redis":
		s := redis.NewRedisCheckpointStore(redis.RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		if err := s.Ping(ctx); err != nil {
			s.Close()
			return nil, nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.RedisAddr, err)
		}
		return s, s.Close, nil

	case "sqlite":
		s, err := sqlite.NewSqliteCheckpointStore(ctx, sqlite.SqliteOptions{Path: cfg.SQLitePath})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open sqlite store: %w", err)
		}
		return s, s.Close, nil

	case "postgres":
		s, err := postgres.NewPostgresCheckpointStore(ctx, postgres.PostgresOptions{ConnString: cfg.PostgresDSN})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open postgres store: %w", err)
		}
		if err := s.InitSchema(ctx); err != nil {
			s.Close()
			return nil, nil, fmt.Errorf("failed to init postgres schema: %w", err)
		}
		return s, func() error { s.Close(); return nil }, nil

	default:
		return nil, nil, fmt.Errorf("unsupported checkpoint backend %q", cfg.Backend)
	}
}
