package grpcServer

import (
	"context"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName is the name the cargo service reports under in grpc.health.v1.
const ServiceName = "cargo.CargoService"

// Pinger is anything that can tell whether the backing store answers.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthServer serves grpc.health.v1 and keeps the cargo status in line with the store.
type HealthServer struct {
	*health.Server
	pinger   Pinger
	interval time.Duration
	log      *zap.Logger
}

// NewHealthServer wraps the stock health server. The cargo status starts NOT_SERVING
// until the first probe succeeds.
func NewHealthServer(pinger Pinger, interval time.Duration, log *zap.Logger) *HealthServer {
	if log == nil {
		log = zap.NewNop()
	}
	h := &HealthServer{Server: health.NewServer(), pinger: pinger, interval: interval, log: log}
	h.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)
	return h
}

// Register attaches the health service to s.
func (h *HealthServer) Register(s *grpc.Server) {
	healthpb.RegisterHealthServer(s, h.Server)
}

// Run probes the store every interval until ctx is done, then reports NOT_SERVING everywhere.
func (h *HealthServer) Run(ctx context.Context) {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()
	h.Probe(ctx)
	for {
		select {
		case <-ctx.Done():
			h.Shutdown()
			return
		case <-ticker.C:
			h.Probe(ctx)
		}
	}
}

// Probe pings the store once and updates the serving status.
func (h *HealthServer) Probe(ctx context.Context) {
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	status := healthpb.HealthCheckResponse_SERVING
	if err := h.pinger.Ping(pingCtx); err != nil {
		h.log.Warn("store health probe failed", zap.Error(err))
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	h.SetServingStatus(ServiceName, status)
	h.SetServingStatus("", status)
}
