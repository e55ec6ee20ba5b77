package verification

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const (
	DefaultCodeLength = 6
	minCodeLength     = 4
	maxCodeLength     = 10
)

// GenerateCode returns a uniformly random n-digit code with no leading zero.
func GenerateCode(n int) (string, error) {
	if n < minCodeLength || n > maxCodeLength {
		return "", fmt.Errorf("code length %d outside %d-%d", n, minCodeLength, maxCodeLength)
	}
	low := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(n-1)), nil)
	span := new(big.Int).Mul(low, big.NewInt(9))
	v, err := rand.Int(rand.Reader, span)
	if err != nil {
		return "", err
	}
	return v.Add(v, low).String(), nil
}
