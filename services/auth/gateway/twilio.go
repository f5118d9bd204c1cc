package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/piresc/otpgate/internal/pkg/http"
	"github.com/piresc/otpgate/internal/pkg/logger"
	"github.com/piresc/otpgate/internal/pkg/models"
)

// TwilioGW sends text messages through the Twilio Messages REST API
type TwilioGW struct {
	client     *http.Client
	accountSID string
	authToken  string
	fromNumber string
}

// NewTwilioGW creates a Twilio-backed SMS gateway
func NewTwilioGW(cfg models.SMSConfig) *TwilioGW {
	return &TwilioGW{
		client:     http.NewClient(cfg.TwilioBaseURL, cfg.Timeout+time.Second),
		accountSID: cfg.TwilioAccountSID,
		authToken:  cfg.TwilioAuthToken,
		fromNumber: cfg.TwilioFromNumber,
	}
}

type twilioMessage struct {
	SID    string `json:"sid"`
	Status string `json:"status"`
}

// SendText sends body to msisdn
func (g *TwilioGW) SendText(ctx context.Context, msisdn, body string) error {
	form := url.Values{}
	form.Set("To", msisdn)
	form.Set("From", g.fromNumber)
	form.Set("Body", body)

	path := fmt.Sprintf("/2010-04-01/Accounts/%s/Messages.json", g.accountSID)
	resp, err := g.client.PostForm(ctx, path, form, g.accountSID, g.authToken)
	if err != nil {
		return fmt.Errorf("twilio: %w", err)
	}

	var msg twilioMessage
	if err := json.Unmarshal(resp, &msg); err == nil {
		logger.DebugCtx(ctx, "SMS accepted by Twilio",
			logger.String("sid", msg.SID),
			logger.String("status", msg.Status))
	}
	return nil
}
