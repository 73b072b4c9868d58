// Package authcode generates the short codes mailed to users to confirm
// ownership of an email address.
package authcode

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
)

// Alphabet is the set of symbols a code is drawn from.
const Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// DefaultLength is the length of a verification code.
const DefaultLength = 6

var ErrInvalidLength = errors.New("authcode: length must be positive")

type Generator struct {
	length int
}

func NewGenerator(length int) (*Generator, error) {
	if length <= 0 {
		return nil, ErrInvalidLength
	}
	return &Generator{length: length}, nil
}

// Generate returns a fresh code with each symbol chosen uniformly from
// Alphabet using the system CSPRNG.
func (g *Generator) Generate() (string, error) {
	max := big.NewInt(int64(len(Alphabet)))
	buf := make([]byte, g.length)
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("generating code: %w", err)
		}
		buf[i] = Alphabet[n.Int64()]
	}
	return string(buf), nil
}
