package recipients

import "time"

// Recipient is a saved payee profile. Profiles are informational; transfers
// resolve recipients by wallet account number.
type Recipient struct {
	ID            string
	UserID        string
	FirstName     string
	LastName      string
	Country       string
	BankName      string
	AccountNumber string
	CreatedAt     time.Time
}
