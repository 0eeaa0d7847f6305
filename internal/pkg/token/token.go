package token

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// NewNumericCode generates a zero-padded decimal code of the given length,
// drawn uniformly from [0, 10^digits).
func NewNumericCode(digits int) (string, error) {
	if digits < 1 || digits > 18 {
		return "", fmt.Errorf("code length %d out of range", digits)
	}
	limit := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(digits)), nil)
	n, err := rand.Int(rand.Reader, limit)
	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}
	return fmt.Sprintf("%0*d", digits, n.Int64()), nil
}
