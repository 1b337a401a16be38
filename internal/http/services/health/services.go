// Package health contiene el service de readiness.
package health

import (
	"context"
	"fmt"
	"time"

	dto "github.com/dropDatabas3/userauth/internal/http/dto/health"
	"github.com/dropDatabas3/userauth/internal/observability/logger"
)

// HealthService define las operaciones de health check.
type HealthService interface {
	Check(ctx context.Context) dto.HealthResponse
}

// Deps contiene los checks inyectables.
type Deps struct {
	StoreName  string
	StoreCheck func(ctx context.Context) error // crítico
	CacheName  string
	CacheCheck func(ctx context.Context) error // no crítico: rate limit falla abierto
	Version    string
	Commit     string
	Timeout    time.Duration // por check; 0 = 2s
}

type healthService struct {
	deps Deps
}

// NewHealthService crea el service.
func NewHealthService(deps Deps) HealthService {
	if deps.Timeout <= 0 {
		deps.Timeout = 2 * time.Second
	}
	return &healthService{deps: deps}
}

func (s *healthService) Check(ctx context.Context) dto.HealthResponse {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("health"),
		logger.Op("Check"),
	)

	resp := dto.HealthResponse{
		Components: make(map[string]dto.HealthStatus),
		Version:    s.deps.Version,
		Commit:     s.deps.Commit,
		Timestamp:  time.Now().UTC(),
	}

	critical, degraded := false, false

	// 1) Store (crítico)
	st, err := s.run(ctx, s.deps.StoreCheck)
	if err != nil {
		critical = true
		log.Error("store unavailable", logger.Err(err))
	} else {
		st.Message = s.deps.StoreName
	}
	resp.Components["store"] = st

	// 2) Cache (no crítico)
	if s.deps.CacheCheck == nil {
		resp.Components["cache"] = dto.HealthStatus{Status: "disabled"}
	} else if st, err := s.run(ctx, s.deps.CacheCheck); err != nil {
		degraded = true
		log.Warn("cache unavailable", logger.Err(err))
		resp.Components["cache"] = st
	} else {
		st.Message = s.deps.CacheName
		resp.Components["cache"] = st
	}

	switch {
	case critical:
		resp.Status = "unavailable"
	case degraded:
		resp.Status = "degraded"
	default:
		resp.Status = "ready"
	}
	return resp
}

func (s *healthService) run(ctx context.Context, check func(context.Context) error) (dto.HealthStatus, error) {
	if check == nil {
		return dto.HealthStatus{Status: "error", Message: "not initialized"}, fmt.Errorf("check not initialized")
	}
	cctx, cancel := context.WithTimeout(ctx, s.deps.Timeout)
	defer cancel()
	if err := check(cctx); err != nil {
		return dto.HealthStatus{Status: "error", Message: fmt.Sprintf("unavailable: %v", err)}, err
	}
	return dto.HealthStatus{Status: "ok"}, nil
}
