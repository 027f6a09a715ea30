package security

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// NewAccessCode returns prefix + "-" + four random digits in 1000-9999.
func NewAccessCode(prefix string) (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(9000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s-%d", prefix, 1000+n.Int64()), nil
}
