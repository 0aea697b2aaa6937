package container

import (
	"fmt"
	"io"
	"net/http"

	"github.com/sirupsen/logrus"

	"go-fits-inspector/internal/batch"
	"go-fits-inspector/internal/config"
	"go-fits-inspector/internal/coords"
	"go-fits-inspector/internal/extractor"
	"go-fits-inspector/internal/factory"
	"go-fits-inspector/internal/footprint"
	"go-fits-inspector/internal/logger"
	"go-fits-inspector/internal/observer"
	"go-fits-inspector/internal/resolver"
	"go-fits-inspector/internal/transport"
)

// Container holds all application dependencies
type Container struct {
	config    *config.Config
	logger    *logrus.Logger
	resolver  resolver.Resolver
	extractor *extractor.Extractor
	metrics   *observer.MetricsObserver
	runner    *batch.Runner
	factory   *factory.ComponentFactory
	handler   http.Handler
}

// NewContainer creates a new dependency injection container. Logs go to logOut.
func NewContainer(cfg *config.Config, logOut io.Writer) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	log := logger.New(cfg.LogLevel, cfg.LogFormat, logOut)

	// Build dependency graph
	nameResolver := resolver.New(resolver.Options{
		Endpoint:  cfg.ResolverURL,
		Timeout:   cfg.ResolverTimeout,
		RateLimit: cfg.ResolverRateLimit,
	}, log)
	ex := extractor.New(
		nameResolver,
		coords.NewNormalizer(log),
		footprint.NewBuilder(cfg.MOCMaxDepth, log),
		log,
	)

	publisher := observer.NewEventPublisher(log)
	metrics := observer.NewMetricsObserver()
	publisher.Subscribe(observer.NewLoggingObserver(log))
	publisher.Subscribe(metrics)

	runner := batch.NewRunner(ex, publisher, cfg.BatchWorkers, log)
	handler := transport.NewHandler(transport.Dependencies{
		Extractor: ex,
		Resolver:  nameResolver,
		Publisher: publisher,
		Metrics:   metrics,
		Logger:    log,
	}, cfg)

	return &Container{
		config:    cfg,
		logger:    log,
		resolver:  nameResolver,
		extractor: ex,
		metrics:   metrics,
		runner:    runner,
		factory:   factory.NewComponentFactory(cfg),
		handler:   handler,
	}, nil
}

// Handler returns the HTTP handler
func (c *Container) Handler() http.Handler {
	return c.handler
}

// Config returns the configuration
func (c *Container) Config() *config.Config {
	return c.config
}

// Logger returns the application logger
func (c *Container) Logger() *logrus.Logger {
	return c.logger
}

// Resolver returns the object name resolver
func (c *Container) Resolver() resolver.Resolver {
	return c.resolver
}

// Extractor returns the metadata extractor
func (c *Container) Extractor() *extractor.Extractor {
	return c.extractor
}

// Runner returns the batch runner
func (c *Container) Runner() *batch.Runner {
	return c.runner
}

// Factory returns the source and exporter factories
func (c *Container) Factory() *factory.ComponentFactory {
	return c.factory
}

// Metrics returns the counters shared by batch runs and the HTTP API
func (c *Container) Metrics() *observer.MetricsObserver {
	return c.metrics
}
