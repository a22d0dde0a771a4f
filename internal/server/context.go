package server

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/ryanjamurphy/fastmail-claude-calendar-plugin/internal/caldav"
	"github.com/ryanjamurphy/fastmail-claude-calendar-plugin/internal/calendar"
	"github.com/ryanjamurphy/fastmail-claude-calendar-plugin/internal/config"
	"github.com/ryanjamurphy/fastmail-claude-calendar-plugin/internal/jmap"
	"github.com/ryanjamurphy/fastmail-claude-calendar-plugin/internal/ops"
)

// ServerContext holds the state shared by the MCP server: the one
// configured provider wrapped in the operation service, plus optional
// metrics. State is explicit and owned here, never global.
type ServerContext struct {
	ctx     context.Context
	cancel  context.CancelFunc
	service *ops.Service
	metrics *Metrics
	logger  *slog.Logger

	mu       sync.RWMutex
	shutdown bool
}

// NewServerContext builds the backend selected by the configuration and
// wraps it in the operation service.
func NewServerContext(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*ServerContext, error) {
	if logger == nil {
		logger = slog.Default()
	}

	provider, err := buildProvider(cfg, logger)
	if err != nil {
		return nil, err
	}

	shutdownCtx, cancel := context.WithCancel(ctx)
	return &ServerContext{
		ctx:     shutdownCtx,
		cancel:  cancel,
		service: ops.NewService(provider, logger),
		logger:  logger,
	}, nil
}

func buildProvider(cfg *config.Config, logger *slog.Logger) (calendar.Provider, error) {
	switch cfg.BackendProtocol {
	case config.ProtocolJMAP:
		return jmap.NewClient(jmap.Options{
			SessionURL: cfg.SessionURL,
			Token:      cfg.APIToken,
			Logger:     logger,
		})
	case config.ProtocolCalDAV:
		return caldav.NewClient(caldav.Options{
			Endpoint: cfg.CalDAVEndpoint,
			Username: cfg.CalDAVUsername,
			Password: cfg.CalDAVPassword,
			Logger:   logger,
		})
	default:
		return nil, fmt.Errorf("unknown protocol %q", cfg.BackendProtocol)
	}
}

// Context returns the server context.
func (sc *ServerContext) Context() context.Context {
	return sc.ctx
}

// Service returns the operation service.
func (sc *ServerContext) Service() *ops.Service {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.service
}

// Logger returns the server logger.
func (sc *ServerContext) Logger() *slog.Logger {
	return sc.logger
}

// Metrics returns the metrics recorder, nil when metrics are disabled.
func (sc *ServerContext) Metrics() *Metrics {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.metrics
}

// SetMetrics installs a metrics recorder.
func (sc *ServerContext) SetMetrics(m *Metrics) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.metrics = m
}

// Shutdown marks the context as shut down and cancels it.
func (sc *ServerContext) Shutdown() {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	if sc.shutdown {
		return
	}
	sc.shutdown = true
	sc.cancel()
}

// IsShutdown reports whether Shutdown has been called.
func (sc *ServerContext) IsShutdown() bool {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.shutdown
}
