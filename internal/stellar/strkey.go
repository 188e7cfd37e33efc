// Package stellar validates Stellar account identifiers (strkeys).
package stellar

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/stellar/go/strkey"
)

var (
	// ErrInvalidFormat is returned when the key does not look like an account id.
	ErrInvalidFormat = errors.New("stellar: invalid public key format")
	// ErrInvalidKey is returned when the key is well formed but fails decoding.
	ErrInvalidKey = errors.New("stellar: invalid public key")

	accountIDPattern = regexp.MustCompile(`^G[A-Z2-7]{55}$`)
)

// MatchesAccountIDFormat reports whether s has the textual shape of an
// account id.
func MatchesAccountIDFormat(s string) bool {
	return accountIDPattern.MatchString(s)
}

// ValidateAccountID checks both the textual shape and the decoded structure
// (version byte, checksum, canonical base32) of s.
func ValidateAccountID(s string) error {
	if !MatchesAccountIDFormat(s) {
		return ErrInvalidFormat
	}
	if _, err := strkey.Decode(strkey.VersionByteAccountID, s); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	return nil
}
