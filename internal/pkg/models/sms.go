package models

// SMSRequest is published to the SMS relay over NATS
type SMSRequest struct {
	MSISDN string `json:"msisdn"`
	Body   string `json:"body"`
}

// SMSReply is the relay's answer to an SMSRequest
type SMSReply struct {
	Success   bool   `json:"success"`
	MessageID string `json:"message_id,omitempty"`
	Error     string `json:"error,omitempty"`
}
