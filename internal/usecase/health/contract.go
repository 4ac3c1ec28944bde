package health

import "context"

// DBPinger checks database availability.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// GatewayChecker checks remote search gateway availability.
type GatewayChecker interface {
	HealthCheck(ctx context.Context) error
}
