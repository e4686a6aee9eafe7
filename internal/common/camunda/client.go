// internal/common/camunda/client.go
package camunda

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"

	"travel-planner/internal/common/config"
	"travel-planner/internal/common/logger"
)

// RetryConfig controls how long Connect waits for the broker.
type RetryConfig struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
}

var DefaultRetryConfig = RetryConfig{
	MaxRetries: 10,
	BaseDelay:  2 * time.Second,
	MaxDelay:   30 * time.Second,
}

// Backoff is the wait before retry number attempt (zero based).
func (r RetryConfig) Backoff(attempt int) time.Duration {
	if attempt > 30 {
		return r.MaxDelay
	}
	delay := r.BaseDelay * time.Duration(1<<attempt)
	if delay > r.MaxDelay || delay <= 0 {
		delay = r.MaxDelay
	}
	return delay
}

// Connect builds a gateway client and waits until the broker answers a
// topology request. Only transient failures are retried.
func Connect(ctx context.Context, cfg config.CamundaConfig, retry RetryConfig, log logger.Logger) (zbc.Client, error) {
	client, err := zbc.NewClient(&zbc.ClientConfig{
		GatewayAddress:         cfg.BrokerAddress,
		UsePlaintextConnection: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Zeebe client: %w", err)
	}

	requestTimeout := config.GetDuration(cfg.RequestTimeout)
	if requestTimeout <= 0 {
		requestTimeout = 10 * time.Second
	}

	for attempt := 0; ; attempt++ {
		err = HealthCheck(ctx, client, requestTimeout)
		if err == nil {
			return client, nil
		}
		if !IsRetryable(err) || attempt >= retry.MaxRetries {
			_ = client.Close()
			return nil, fmt.Errorf("failed to connect to Zeebe broker at %s after %d attempts: %w", cfg.BrokerAddress, attempt+1, err)
		}

		delay := retry.Backoff(attempt)
		log.Warn("zeebe broker not reachable, retrying", map[string]interface{}{
			"attempt":     attempt + 1,
			"maxRetries":  retry.MaxRetries,
			"nextRetryIn": delay.String(),
			"error":       err.Error(),
		})
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			_ = client.Close()
			return nil, ctx.Err()
		}
	}
}

// HealthCheck sends a topology request to the broker.
func HealthCheck(ctx context.Context, client zbc.Client, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if _, err := client.NewTopologyCommand().Send(ctx); err != nil {
		return fmt.Errorf("zeebe health check failed: %w", err)
	}
	return nil
}

// IsRetryable reports whether err looks like a transient gateway failure.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, phrase := range []string{
		"connection refused",
		"connection reset",
		"timeout",
		"deadline exceeded",
		"unavailable",
		"unreachable",
		"broken pipe",
	} {
		if strings.Contains(msg, phrase) {
			return true
		}
	}
	return false
}
