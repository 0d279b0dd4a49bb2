package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/aretw0/concierge"
	"github.com/aretw0/concierge/internal/config"
	"github.com/aretw0/concierge/internal/demo"
	"github.com/aretw0/concierge/internal/logging"
	"github.com/aretw0/concierge/pkg/adapters/agentfile"
	"github.com/aretw0/concierge/pkg/adapters/file"
	"github.com/aretw0/concierge/pkg/adapters/gemini"
	"github.com/aretw0/concierge/pkg/adapters/memory"
	"github.com/aretw0/concierge/pkg/adapters/process"
	"github.com/aretw0/concierge/pkg/adapters/redis"
	"github.com/aretw0/concierge/pkg/adapters/sqlite"
	"github.com/aretw0/concierge/pkg/domain"
	"github.com/aretw0/concierge/pkg/observability"
	"github.com/aretw0/concierge/pkg/oracle"
	"github.com/aretw0/concierge/pkg/persistence/middleware"
	"github.com/aretw0/concierge/pkg/ports"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// App is an engine together with the resources it owns.
type App struct {
	Engine   *concierge.Engine
	Logger   *slog.Logger
	Registry *prometheus.Registry
	Metrics  *observability.Metrics

	closers []func() error
}

// Close releases the session store.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	return errors.Join(errs...)
}

// RunOptions are the command-line overrides of the environment configuration.
type RunOptions struct {
	// ToolsPath is an optional tools.yaml of command tools.
	ToolsPath string
	Debug     bool
}

// NewLogger creates the process logger from the configuration.
func NewLogger(cfg config.Config, debug bool) (*slog.Logger, error) {
	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	if debug {
		level = slog.LevelDebug
	}
	return logging.NewWithWriter(os.Stderr, level, cfg.LogJSON), nil
}

// NewApp wires the agent, the oracle, the session store and the observability hooks.
func NewApp(ctx context.Context, cfg config.Config, opts RunOptions) (*App, error) {
	logger, err := NewLogger(cfg, opts.Debug)
	if err != nil {
		return nil, err
	}
	app := &App{Logger: logger, Registry: prometheus.NewRegistry()}
	app.Registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	app.Metrics = observability.NewMetrics(app.Registry)

	agent, err := LoadAgent(ctx, cfg, opts.ToolsPath)
	if err != nil {
		return nil, err
	}

	o, composer, err := newOracle(ctx, cfg)
	if err != nil {
		return nil, err
	}

	store, locker, err := app.openStore(cfg)
	if err != nil {
		return nil, err
	}

	engineOpts := []concierge.Option{
		concierge.WithLogger(logger),
		concierge.WithLifecycleHooks(observability.Combine(observability.LogHooks(logger), app.Metrics.Hooks())),
		concierge.WithStore(store),
		concierge.WithOracleTimeout(cfg.OracleTimeout),
		concierge.WithToolTimeout(cfg.ToolTimeout),
		concierge.WithHistoryWindow(cfg.HistoryWindow),
	}
	if locker != nil {
		engineOpts = append(engineOpts, concierge.WithLocker(locker))
	}
	if composer != nil {
		engineOpts = append(engineOpts, concierge.WithComposer(composer))
	}

	eng, err := concierge.New(agent, o, engineOpts...)
	if err != nil {
		_ = app.Close()
		return nil, fmt.Errorf("error initializing engine: %w", err)
	}
	app.Engine = eng
	logger.Debug("engine ready", "agent", agent.Name, "store", cfg.Store, "oracle", cfg.Oracle)
	return app, nil
}

// LoadAgent builds the agent file named by the configuration, or the built-in
// healthcare agent when none is set. Command tools from toolsPath are supplied to both.
func LoadAgent(ctx context.Context, cfg config.Config, toolsPath string) (*domain.Agent, error) {
	var tools []domain.Tool
	if toolsPath != "" {
		var err error
		if tools, err = process.LoadTools(toolsPath); err != nil {
			return nil, err
		}
	}
	if cfg.Agent == "" {
		return demo.Healthcare(tools...).Build()
	}
	return agentfile.NewLoader(cfg.Agent, agentfile.WithTools(tools...)).LoadAgent(ctx)
}

func newOracle(ctx context.Context, cfg config.Config) (oracle.ConditionOracle, ports.Composer, error) {
	switch cfg.Oracle {
	case config.OracleGemini:
		client, err := gemini.NewClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			return nil, nil, err
		}
		return gemini.NewOracle(client), gemini.NewComposer(client), nil
	case config.OracleLexical, "":
		return oracle.Lexical{}, nil, nil
	}
	return nil, nil, fmt.Errorf("unknown oracle %q", cfg.Oracle)
}

func (a *App) openStore(cfg config.Config) (ports.SessionStore, ports.DistributedLocker, error) {
	var (
		store  ports.SessionStore
		locker ports.DistributedLocker
	)
	switch cfg.Store {
	case config.StoreMemory, "":
		store = memory.NewStore()
	case config.StoreFile:
		store = file.New(cfg.FileDir)
	case config.StoreSQLite:
		s, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		a.closers = append(a.closers, s.Close)
		store = s
	case config.StoreRedis:
		s, err := redis.New(cfg.RedisURL, redis.WithTTL(cfg.SessionTTL))
		if err != nil {
			return nil, nil, err
		}
		a.closers = append(a.closers, s.Close)
		store = s
		locker = redis.NewLocker(s.Client())
	default:
		return nil, nil, fmt.Errorf("unknown store %q", cfg.Store)
	}

	mws, err := storeMiddleware(cfg)
	if err != nil {
		_ = a.Close()
		return nil, nil, err
	}
	return middleware.Chain(store, mws...), locker, nil
}

// storeMiddleware masks PII before sessions are encrypted.
func storeMiddleware(cfg config.Config) ([]middleware.Middleware, error) {
	var mws []middleware.Middleware
	if len(cfg.PIIPatterns) > 0 {
		pii, err := middleware.NewPIIMiddleware(cfg.PIIPatterns)
		if err != nil {
			return nil, err
		}
		mws = append(mws, pii)
	}
	key, err := cfg.Key()
	if err != nil {
		return nil, err
	}
	if key != nil {
		enc, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: key})
		if err != nil {
			return nil, err
		}
		mws = append(mws, enc)
	}
	return mws, nil
}
