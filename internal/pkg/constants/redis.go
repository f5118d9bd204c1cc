package constants

// Redis key formats
const (
	KeyUserByMSISDN = "user:msisdn:%s" // Format: user:msisdn:{msisdn}
)
