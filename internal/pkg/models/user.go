package models

import (
	"time"

	"github.com/google/uuid"
)

// User represents an account identified by its phone number
type User struct {
	ID           uuid.UUID `json:"id" db:"id"`
	MSISDN       string    `json:"msisdn" db:"msisdn"`
	FullName     string    `json:"fullname" db:"fullname"`
	Role         string    `json:"role" db:"role"`
	PasswordHash string    `json:"-" db:"password_hash"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
	IsActive     bool      `json:"is_active" db:"is_active"`
}

// RoleUser is the default role assigned to accounts created through OTP login
const RoleUser = "user"
