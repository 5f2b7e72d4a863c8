package external

import (
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"github.com/osteocare-ai/osteocare/internal/domain"
)

// newBreaker wraps the prediction backend in a circuit breaker. It is only
// built when explicitly enabled; an open breaker fails fast without a request.
func newBreaker(config domain.CircuitBreakerConfig, logger *logrus.Logger) *gobreaker.CircuitBreaker {
	if config.MaxRequests == 0 {
		config.MaxRequests = 1
	}
	if config.Interval == 0 {
		config.Interval = 30 * time.Second
	}
	if config.Timeout == 0 {
		config.Timeout = 60 * time.Second
	}
	if config.FailureThreshold == 0 {
		config.FailureThreshold = 5
	}

	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "PredictionBackend",
		MaxRequests: config.MaxRequests,
		Interval:    config.Interval,
		Timeout:     config.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= config.FailureThreshold
		},
		IsSuccessful: backendHealthy,
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.WithFields(logrus.Fields{
				"circuit_breaker": name,
				"from_state":      from.String(),
				"to_state":        to.String(),
			}).Warn("Circuit breaker state changed")
		},
	})
}

// backendHealthy treats 4xx replies as a live backend; only 5xx and network
// failures count against the breaker.
func backendHealthy(err error) bool {
	if err == nil {
		return true
	}
	var te *domain.TransportError
	if errors.As(err, &te) {
		return te.StatusCode >= 400 && te.StatusCode < 500
	}
	return false
}

// BreakerState reports the breaker state, or "disabled" when none is configured.
func (c *PredictionClient) BreakerState() string {
	if c.breaker == nil {
		return "disabled"
	}
	return c.breaker.State().String()
}
