package grpcserver

import (
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	geyserv1 "github.com/rzbill/geyserstream/api/geyser/v1"
)

// newHealth returns a health server reporting SERVING for the whole server
// and the geyser service.
func newHealth() *health.Server {
	hs := health.NewServer()
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	hs.SetServingStatus(geyserv1.ServiceName, healthpb.HealthCheckResponse_SERVING)
	return hs
}
