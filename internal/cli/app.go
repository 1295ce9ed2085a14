package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"

	"greetr/internal/config"
	"greetr/internal/eventbus"
	"greetr/internal/greeter"
	"greetr/internal/logging"
	"greetr/internal/query"
	"greetr/internal/telemetry"
)

// app is everything a command needs to resolve greetings
type app struct {
	cfg     *config.Config
	logger  zerolog.Logger
	bus     eventbus.EventBus
	engine  *query.Engine
	closers []io.Closer
	cancel  context.CancelFunc
}

func newApp(ctx context.Context, opts *rootOptions) (*app, error) {
	cfg, err := opts.loadConfig()
	if err != nil {
		return nil, err
	}

	logger, logCloser, err := logging.Open(cfg.LogFile, cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	bus := eventbus.New(logger)
	subscribeLifecycleLog(bus, logger)
	bus.Publish(eventbus.ConfigLoadedEvent{Path: opts.configPath(), Endpoint: cfg.Endpoint})

	ctx, cancel := context.WithCancel(ctx)
	a := &app{
		cfg:     cfg,
		logger:  logger,
		bus:     bus,
		closers: []io.Closer{logCloser},
		cancel:  cancel,
	}

	timeout, _ := cfg.Timeout()
	client, err := greeter.NewClient(greeter.Config{
		BaseURL: cfg.Endpoint,
		Timeout: timeout,
		Logger:  logger,
	})
	if err != nil {
		a.Close()
		return nil, err
	}

	engineOpts := []query.Option{query.WithBus(bus), query.WithLogger(logger)}
	if cfg.MetricsAddr != "" {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		engineOpts = append(engineOpts, query.WithMetrics(telemetry.NewMetrics(reg)))
		go serveMetrics(ctx, cfg.MetricsAddr, reg, logger, bus)
	}
	a.engine = query.New(client.Greet, engineOpts...)

	logger.Info().
		Str("endpoint", cfg.Endpoint).
		Str("timeout", cfg.RequestTimeout).
		Str("metrics_addr", cfg.MetricsAddr).
		Msg("greetr started")

	return a, nil
}

// serveMetrics runs the metrics server until ctx is done and reports a
// failure to start or serve on the bus
func serveMetrics(ctx context.Context, addr string, reg *prometheus.Registry, logger zerolog.Logger, bus eventbus.EventBus) {
	if err := telemetry.Serve(ctx, addr, reg, logger); err != nil {
		bus.Publish(eventbus.ErrorEvent{Message: "metrics server failed on " + addr, Err: err})
	}
}

// subscribeLifecycleLog records config, query and error events in the log file
func subscribeLifecycleLog(bus eventbus.EventBus, logger zerolog.Logger) {
	bus.Subscribe(eventbus.EventConfigLoaded, func(e eventbus.DomainEvent) {
		if event, ok := e.(eventbus.ConfigLoadedEvent); ok {
			logger.Debug().Str("path", event.Path).Str("endpoint", event.Endpoint).Msg("event: config loaded")
		}
	})
	bus.Subscribe(eventbus.EventError, func(e eventbus.DomainEvent) {
		if event, ok := e.(eventbus.ErrorEvent); ok {
			logger.Error().Err(event.Err).Msg(event.Message)
		}
	})
	bus.Subscribe(eventbus.EventQuerySubmitted, func(e eventbus.DomainEvent) {
		if event, ok := e.(eventbus.QuerySubmittedEvent); ok {
			logger.Debug().Str("key", event.Key).Bool("cache_hit", event.CacheHit).Msg("event: query submitted")
		}
	})
	bus.Subscribe(eventbus.EventQueryResolved, func(e eventbus.DomainEvent) {
		if event, ok := e.(eventbus.QueryResolvedEvent); ok {
			logger.Debug().
				Str("key", event.State.Key).
				Str("status", event.State.Status.String()).
				Bool("stale", event.Stale).
				Msg("event: query resolved")
		}
	})
}

// Close stops the engine, the bus and the metrics server, then the log file
func (a *app) Close() {
	if a.engine != nil {
		a.engine.Close()
	}
	a.cancel()
	a.bus.Close()
	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "failed to close: %v\n", err)
		}
	}
}
