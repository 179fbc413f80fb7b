package wallet

import (
	"crypto/rand"
	"math/big"
	"strconv"
)

const (
	accountNumberMin  = 1_000_000_000
	accountNumberSpan = 9_000_000_000
)

// newAccountNumber returns a random 10-digit account number.
func newAccountNumber() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(accountNumberSpan))
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(accountNumberMin+n.Int64(), 10), nil
}
