package service

import (
	"crypto/rand"
	"math/big"
	"time"
	"unicode"
)

const (
	secureCodeLength = 6
	secureCodeTTL    = 15 * time.Minute
)

// GenerateSecureCode produce un código numérico uniforme en
// [10^(length-1), 10^length - 1], sin ceros a la izquierda.
func GenerateSecureCode(length int) (string, error) {
	if length <= 0 {
		length = secureCodeLength
	}
	min := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(length-1)), nil)
	max := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(length)), nil)
	span := new(big.Int).Sub(max, min)

	n, err := rand.Int(rand.Reader, span)
	if err != nil {
		return "", err
	}
	return new(big.Int).Add(min, n).String(), nil
}

// NewTimeLimitedCode genera un código con su timestamp de expiración.
// La expiración se valida en el flujo de set-first-password.
func NewTimeLimitedCode(length int, ttl time.Duration) (string, time.Time, error) {
	if ttl <= 0 {
		ttl = secureCodeTTL
	}
	code, err := GenerateSecureCode(length)
	if err != nil {
		return "", time.Time{}, err
	}
	return code, time.Now().UTC().Add(ttl), nil
}

func isValidSecureCode(code string) bool {
	if len(code) != secureCodeLength {
		return false
	}
	for _, r := range code {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
