package bookings

import (
	"crypto/rand"
	"encoding/base64"
	"math/big"
)

const inviteAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// newTableHash returns an unguessable URL-safe token.
func newTableHash() (string, error) {
	b := make([]byte, 24)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func newInviteCode() (string, error) {
	code := make([]byte, 8)
	n := big.NewInt(int64(len(inviteAlphabet)))
	for i := range code {
		idx, err := rand.Int(rand.Reader, n)
		if err != nil {
			return "", err
		}
		code[i] = inviteAlphabet[idx.Int64()]
	}
	return string(code), nil
}
