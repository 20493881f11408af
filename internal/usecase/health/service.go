// Package health aggregates readiness information from the vector store and
// the embedding provider.
package health

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/shoptalk-ai/shoptalk/internal/domain"
	"github.com/shoptalk-ai/shoptalk/internal/vectorstore"
)

const checkTimeout = 5 * time.Second

// Status is the aggregated health report.
type Status struct {
	Healthy       bool
	StoreDriver   string
	StoreOK       bool
	DocumentCount int64
	EmbedderOK    bool
}

// Service probes the store and the embedding provider.
type Service struct {
	store    vectorstore.Store
	embedder domain.HealthChecker
	logger   *zap.Logger
}

// New creates a health service. embedder may be nil when the provider exposes
// no health probe; it is then reported healthy.
func New(store vectorstore.Store, embedder domain.HealthChecker, logger *zap.Logger) *Service {
	return &Service{store: store, embedder: embedder, logger: logger}
}

// Check probes all collaborators. It never returns an error: problems are
// reflected in the status flags.
func (s *Service) Check(ctx context.Context) Status {
	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	status := Status{
		StoreDriver: s.store.Driver(),
		StoreOK:     true,
		EmbedderOK:  true,
	}

	if err := s.store.Ping(ctx); err != nil {
		status.StoreOK = false
		s.logger.Warn("Store health probe failed", zap.Error(err))
	} else if count, err := s.store.Count(ctx); err != nil {
		status.StoreOK = false
		s.logger.Warn("Store count probe failed", zap.Error(err))
	} else {
		status.DocumentCount = count
	}

	if s.embedder != nil {
		if err := s.embedder.HealthCheck(ctx); err != nil {
			status.EmbedderOK = false
			s.logger.Warn("Embedder health probe failed", zap.Error(err))
		}
	}

	status.Healthy = status.StoreOK && status.EmbedderOK
	return status
}
