package gateway

import (
	"context"

	"github.com/piresc/otpgate/internal/pkg/logger"
)

// LogGW writes messages to the log instead of sending them. Meant for local development.
type LogGW struct{}

// NewLogGW creates a log-only SMS gateway
func NewLogGW() *LogGW {
	return &LogGW{}
}

// SendText logs the message
func (g *LogGW) SendText(ctx context.Context, msisdn, body string) error {
	logger.InfoCtx(ctx, "SMS (log provider)",
		logger.String("msisdn", msisdn),
		logger.String("body", body))
	return nil
}
