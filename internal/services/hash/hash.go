// Package hash turns passwords into salted one-way digests.
//
// New digests are produced with the configured algorithm. Verification
// recognises both bcrypt and argon2id digests so that switching the
// algorithm does not lock out existing accounts.
package hash

import (
	"errors"
	"fmt"
	"strings"

	"github.com/matthewhartstonge/argon2"
	"golang.org/x/crypto/bcrypt"

	"github.com/nourabuild/account-service/internal/sdk/config"
)

var (
	ErrFailedToHashPassword = errors.New("failed to hash password")
	ErrUnknownAlgorithm     = errors.New("unknown hash algorithm")
)

const argon2Prefix = "$argon2id$"

type HashService struct {
	algorithm string
	cost      int
	argon     argon2.Config
}

// NewHashService builds a hasher from configuration. A zero bcrypt cost
// falls back to bcrypt.DefaultCost.
func NewHashService(cfg config.Hash) (*HashService, error) {
	cost := cfg.BcryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("bcrypt cost %d out of range [%d, %d]", cost, bcrypt.MinCost, bcrypt.MaxCost)
	}

	switch cfg.Algorithm {
	case "", config.HashBcrypt:
		cfg.Algorithm = config.HashBcrypt
	case config.HashArgon2id:
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, cfg.Algorithm)
	}

	return &HashService{
		algorithm: cfg.Algorithm,
		cost:      cost,
		argon:     argon2.DefaultConfig(),
	}, nil
}

// HashPassword returns a digest of password. Two calls with the same input
// return different digests.
func (hs *HashService) HashPassword(password string) ([]byte, error) {
	if hs.algorithm == config.HashArgon2id {
		encoded, err := hs.argon.HashEncoded([]byte(password))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrFailedToHashPassword, err)
		}
		return encoded, nil
	}

	digest, err := bcrypt.GenerateFromPassword([]byte(password), hs.cost)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFailedToHashPassword, err)
	}
	return digest, nil
}

// CheckPasswordHash reports whether password produced digest. Malformed or
// unrecognised digests never match.
func (hs *HashService) CheckPasswordHash(password string, digest []byte) bool {
	if len(digest) == 0 {
		return false
	}

	if strings.HasPrefix(string(digest), argon2Prefix) {
		ok, err := argon2.VerifyEncoded([]byte(password), digest)
		return err == nil && ok
	}

	return bcrypt.CompareHashAndPassword(digest, []byte(password)) == nil
}
