package gateway

import (
	"context"

	"github.com/piresc/otpgate/internal/pkg/circuitbreaker"
	"github.com/piresc/otpgate/services/auth"
)

// BreakerGW guards an SMS gateway with a circuit breaker
type BreakerGW struct {
	next    auth.SMSGateway
	breaker *circuitbreaker.CircuitBreaker
}

// NewBreakerGW wraps next
func NewBreakerGW(next auth.SMSGateway, breaker *circuitbreaker.CircuitBreaker) *BreakerGW {
	return &BreakerGW{
		next:    next,
		breaker: breaker,
	}
}

// SendText sends through the wrapped gateway when the circuit allows it
func (g *BreakerGW) SendText(ctx context.Context, msisdn, body string) error {
	return g.breaker.Execute(ctx, func(ctx context.Context) error {
		return g.next.SendText(ctx, msisdn, body)
	})
}

// Stats exposes the breaker state for health reporting
func (g *BreakerGW) Stats() circuitbreaker.Stats {
	return g.breaker.Stats()
}
