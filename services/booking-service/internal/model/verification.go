package model

import "time"

type VerificationStatus string

const (
	VerificationPending  VerificationStatus = "PENDING"
	VerificationVerified VerificationStatus = "VERIFIED"
	VerificationExpired  VerificationStatus = "EXPIRED"
)

// Verification is one issued code. CodeHash is a bcrypt hash; the plain code
// only ever exists in the SMS and, in dev echo mode, the API response.
type Verification struct {
	ID         string
	Phone      string
	CodeHash   string
	Status     VerificationStatus
	CreatedAt  time.Time
	VerifiedAt *time.Time
}

type VerificationStats struct {
	Today       int
	ThisMonth   int
	Total       int
	Verified    int
	SuccessRate float64
}
