package gateway

import (
	"fmt"

	"github.com/piresc/otpgate/internal/pkg/circuitbreaker"
	"github.com/piresc/otpgate/internal/pkg/models"
	natspkg "github.com/piresc/otpgate/internal/pkg/nats"
	"github.com/piresc/otpgate/services/auth"
)

// NewSMSGateway builds the configured provider wrapped in a circuit breaker.
// natsClient is only required for the "nats" provider.
func NewSMSGateway(cfg models.SMSConfig, natsClient *natspkg.Client) (*BreakerGW, error) {
	var provider auth.SMSGateway

	switch cfg.Provider {
	case "", "log":
		provider = NewLogGW()
	case "twilio":
		if cfg.TwilioAccountSID == "" || cfg.TwilioAuthToken == "" || cfg.TwilioFromNumber == "" {
			return nil, fmt.Errorf("twilio provider is missing credentials")
		}
		provider = NewTwilioGW(cfg)
	case "nats":
		if natsClient == nil {
			return nil, fmt.Errorf("nats provider requires a NATS connection")
		}
		provider = NewNATSGW(natsClient, cfg.NATSSubject)
	default:
		return nil, fmt.Errorf("unknown SMS provider %q", cfg.Provider)
	}

	breaker := circuitbreaker.New(circuitbreaker.DefaultConfig("sms-" + providerName(cfg.Provider)))
	return NewBreakerGW(provider, breaker), nil
}

func providerName(p string) string {
	if p == "" {
		return "log"
	}
	return p
}

var (
	_ auth.SMSGateway = (*TwilioGW)(nil)
	_ auth.SMSGateway = (*NATSGW)(nil)
	_ auth.SMSGateway = (*LogGW)(nil)
	_ auth.SMSGateway = (*BreakerGW)(nil)
)
