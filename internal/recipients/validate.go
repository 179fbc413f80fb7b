package recipients

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/remnika/wallet/internal/apperr"
)

// ErrInvalidRecipient is returned when recipient details fail validation.
var ErrInvalidRecipient = apperr.New(apperr.KindInvalidOperation, "invalid recipient")

var (
	nonDigits  = regexp.MustCompile(`\D`)
	ibanFormat = regexp.MustCompile(`^[A-Z]{2}\d{2}[A-Z0-9]{11,30}$`)
	usFormat   = regexp.MustCompile(`^\d{7,12}$`)
	ukFormat   = regexp.MustCompile(`^\d{8}$`)
	cnFormat   = regexp.MustCompile(`^\d{16,19}$`)
)

type scheme int

const (
	schemeUnsupported scheme = iota
	schemeDigits
	schemeIBAN
	schemeLocal
)

// accountScheme maps a country onto the account number rules that apply.
func accountScheme(country string) scheme {
	switch country {
	case "USA", "United States", "India", "UK", "United Kingdom", "China", "Canada":
		return schemeDigits
	case "Ireland", "Sweden", "Denmark", "Norway", "Poland", "Greece", "European Union", "EU":
		return schemeIBAN
	case "Bangladesh", "Nepal", "Philippines", "Benin", "Rwanda", "Zambia", "Argentina", "Mexico", "Kenya":
		return schemeLocal
	}
	return schemeUnsupported
}

// Sanitize normalizes an account number for the given country: digit-only
// schemes drop every non-digit, IBAN countries drop spaces and dashes and
// upper-case the rest.
func Sanitize(country, accountNumber string) string {
	accountNumber = strings.TrimSpace(accountNumber)
	switch accountScheme(country) {
	case schemeDigits:
		return nonDigits.ReplaceAllString(accountNumber, "")
	case schemeIBAN:
		r := strings.NewReplacer(" ", "", "-", "")
		return strings.ToUpper(r.Replace(accountNumber))
	}
	return accountNumber
}

// ValidateAccountNumber checks an already sanitized account number against
// the country's format.
func ValidateAccountNumber(country, accountNumber string) error {
	if country == "" {
		return fmt.Errorf("%w: country is required", ErrInvalidRecipient)
	}
	if accountNumber == "" {
		return fmt.Errorf("%w: account number is required", ErrInvalidRecipient)
	}

	valid := false
	switch country {
	case "USA", "United States":
		valid = usFormat.MatchString(accountNumber)
	case "UK", "United Kingdom":
		valid = ukFormat.MatchString(accountNumber)
	case "India":
		valid = len(accountNumber) >= 9 && len(accountNumber) <= 18
	case "Canada":
		valid = len(accountNumber) >= 7
	case "China":
		valid = cnFormat.MatchString(accountNumber)
	default:
		switch accountScheme(country) {
		case schemeIBAN:
			valid = ibanFormat.MatchString(accountNumber)
		case schemeLocal:
			valid = len(accountNumber) >= 5
		default:
			return fmt.Errorf("%w: country %q is not currently supported", ErrInvalidRecipient, country)
		}
	}
	if !valid {
		return fmt.Errorf("%w: invalid account number format for %s", ErrInvalidRecipient, country)
	}
	return nil
}
