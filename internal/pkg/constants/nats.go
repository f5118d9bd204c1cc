package constants

// NATS subjects
const (
	SubjectSMSSend = "notification.sms.send"
)
