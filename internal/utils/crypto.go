package utils

import (
	"crypto/rand"
	"math/big"
)

// GenerateNumericCode returns a cryptographically random numeric code of
// the given length, preserving leading zeros.
func GenerateNumericCode(length int) (string, error) {
	digits := make([]byte, length)
	for i := range digits {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		digits[i] = byte('0' + n.Int64())
	}
	return string(digits), nil
}
