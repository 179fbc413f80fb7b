package identity

import "time"

// KYC review states.
const (
	KYCNotSubmitted = "NOT_SUBMITTED"
	KYCPending      = "PENDING"
	KYCApproved     = "APPROVED"
	KYCRejected     = "REJECTED"
)

// User is the wallet owner as seen by this service. Registration and KYC
// review happen elsewhere; the record is read-only here.
type User struct {
	ID           string
	FullName     string
	PhoneNumber  string
	Email        string
	Country      string
	DeviceID     string
	IsVerified   bool
	KYCStatus    string
	TokenVersion int
	CreatedAt    time.Time
}
