package services

import (
	"context"
	"log/slog"
	"time"

	"rfqpulse/internal/store"
)

// HealthStatus is the liveness and readiness report.
type HealthStatus struct {
	Status    string    `json:"status"`
	Database  string    `json:"database"`
	RFQCount  int       `json:"rfq_count"`
	CheckedAt time.Time `json:"checked_at"`
}

// HealthService answers liveness and readiness probes.
type HealthService struct {
	store  *store.Store
	logger *slog.Logger
}

// NewHealthService creates the health service.
func NewHealthService(st *store.Store, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthService{store: st, logger: logger}
}

// Check reports overall health. A store failure degrades the status rather
// than erroring: the probe endpoint always answers.
func (s *HealthService) Check(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:    "healthy",
		Database:  "ok",
		CheckedAt: time.Now().UTC(),
	}

	sols, err := s.store.List(ctx)
	if err != nil {
		s.logger.WarnContext(ctx, "health check store failure", slog.String("error", err.Error()))
		status.Status = "degraded"
		status.Database = err.Error()
		return status
	}
	status.RFQCount = len(sols)
	return status
}
