package gateway

import (
	"context"
	"errors"
	"fmt"

	"github.com/piresc/otpgate/internal/pkg/models"
	natspkg "github.com/piresc/otpgate/internal/pkg/nats"
	nrpkg "github.com/piresc/otpgate/internal/pkg/newrelic"
)

// NATSGW hands text messages to an SMS relay over NATS request/reply
type NATSGW struct {
	client  *natspkg.Client
	subject string
}

// NewNATSGW creates a NATS-backed SMS gateway
func NewNATSGW(client *natspkg.Client, subject string) *NATSGW {
	return &NATSGW{
		client:  client,
		subject: subject,
	}
}

// SendText asks the relay to deliver body and waits for its acknowledgement
func (g *NATSGW) SendText(ctx context.Context, msisdn, body string) error {
	req := models.SMSRequest{MSISDN: msisdn, Body: body}

	return nrpkg.WithExternalSegment(ctx, "nats", "request", g.subject, func() error {
		var reply models.SMSReply
		if err := g.client.Request(ctx, g.subject, req, &reply); err != nil {
			return err
		}
		if !reply.Success {
			if reply.Error == "" {
				return errors.New("sms relay rejected the message")
			}
			return fmt.Errorf("sms relay: %s", reply.Error)
		}
		return nil
	})
}
