package security

import (
	"github.com/cwrk-planet/collab-service/internal/errs"
	"golang.org/x/crypto/bcrypt"
)

const defaultMinPasswordLen = 6

// BcryptConfig приходит из config.yaml (секция auth); нулевые значения
// означают дефолты.
type BcryptConfig struct {
	Cost      int
	MinLength int
}

func (c *BcryptConfig) cost() int {
	if c != nil && c.Cost > 0 {
		return c.Cost
	}
	return bcrypt.DefaultCost
}

func (c *BcryptConfig) minLength() int {
	if c != nil && c.MinLength > 0 {
		return c.MinLength
	}
	return defaultMinPasswordLen
}

func HashPassword(plain string, cfg *BcryptConfig) (string, error) {
	if len(plain) < cfg.minLength() {
		return "", errs.ErrPasswordTooShort
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(plain), cfg.cost())
	if err != nil {
		return "", err
	}

	return string(hash), nil
}

func ComparePassword(hash, plain string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain))
}
