package letta

import "context"

// Health is the server's health report.
type Health struct {
	// Version is the server version, e.g. "0.8.8".
	Version string `json:"version"`
	// Status is the health status, e.g. "ok".
	Status string `json:"status"`
}

// HealthService reports server status. Access it through Client.Health.
type HealthService struct {
	client *Client
}

// Check returns the server version and health status. The endpoint requires
// no authentication. The trailing slash is required by the server.
func (s *HealthService) Check(ctx context.Context) (*Health, error) {
	var out Health
	if err := s.client.get(ctx, "v1/health/", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
