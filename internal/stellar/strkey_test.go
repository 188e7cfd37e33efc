package stellar

import (
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"strings"
	"testing"

	"github.com/stellar/go/strkey"
)

// Published strkey vectors from the Stellar SDKs.
const (
	knownAccountID    = "GA3D5KRYM6CB7OWQ6TWYRR3Z4T7GNZLKERYNZGGA5SOAOPIFY6YQHES5"
	knownBadChecksum  = "GA3D5KRYM6CB7OWQ6TWYRR3Z4T7GNZLKERYNZGGA5SOAOPIFY6YQHE55"
	knownBadPayload   = "GA3D5KRYM6CB7OWOOOORR3Z4T7GNZLKERYNZGGA5SOAOPIFY6YQHES5"
	knownSecretSeed   = "SBU2RRGLXH3E5CQHTD3ODLDF2BWDCYUSSBLLZ5GNW7JXHDIYKXZWHOKR"
	knownMuxedAccount = "MA7QYNF7SOWQ3GLR2BGMZEHXAVIRZA4KVWLTJJFC7MGXUA74P7UJVAAAAAAAAAAAAAJLK"
)

func TestValidateAccountIDKnownVector(t *testing.T) {
	if err := ValidateAccountID(knownAccountID); err != nil {
		t.Fatalf("ValidateAccountID(%s) = %v", knownAccountID, err)
	}
}

func TestValidateAccountIDGeneratedKey(t *testing.T) {
	pub, _, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	s, err := strkey.Encode(strkey.VersionByteAccountID, pub)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if err := ValidateAccountID(s); err != nil {
		t.Fatalf("ValidateAccountID(%s) = %v", s, err)
	}
}

func TestValidateAccountIDRejectsCorruption(t *testing.T) {
	for _, s := range []string{knownBadChecksum, knownBadPayload} {
		if !MatchesAccountIDFormat(s) {
			t.Fatalf("%s should still match the format", s)
		}
		if err := ValidateAccountID(s); !errors.Is(err, ErrInvalidKey) {
			t.Errorf("ValidateAccountID(%s) = %v, want ErrInvalidKey", s, err)
		}
	}
}

func TestValidateAccountIDFormat(t *testing.T) {
	cases := []string{
		"",
		"not-a-key",
		knownSecretSeed,
		knownMuxedAccount,
		strings.ToLower(knownAccountID),
		"G" + strings.Repeat("A", 54),
		"G" + strings.Repeat("A", 56),
		"G" + strings.Repeat("1", 55),
	}
	for _, c := range cases {
		if err := ValidateAccountID(c); !errors.Is(err, ErrInvalidFormat) {
			t.Errorf("ValidateAccountID(%q) = %v, want ErrInvalidFormat", c, err)
		}
	}
}
