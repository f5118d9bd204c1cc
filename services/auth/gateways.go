package auth

import (
	"context"
)

//go:generate mockgen -destination=mocks/mock_gateway.go -package=mocks github.com/piresc/otpgate/services/auth SMSGateway

// SMSGateway delivers text messages to a phone number
type SMSGateway interface {
	SendText(ctx context.Context, msisdn, body string) error
}
