// A profile may be protected by a short numeric PIN. It is hashed with bcrypt
// exactly like a password would be: a short PIN has little entropy, so the
// slow hash is what keeps an offline guess of a stolen roster expensive.
//
// Hash format (the full output of bcrypt.GenerateFromPassword):
//
//	$2a$12$<22-char salt><31-char hash>
//	 ^   ^
//	 |   cost (12 rounds → 2^12 = 4096 iterations)
//	 version

package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/sakif/fresh-start/internal/apperror"
)

// DefaultCost is the bcrypt work factor used in production.
const DefaultCost = 12

const (
	MinPINLength = 4
	MaxPINLength = 12
)

// PINService provides bcrypt hashing and verification of profile PINs.
//
// It's a struct (not free functions) so that the cost can be injected
// in tests. Cost 4 (the bcrypt minimum) keeps tests fast.
type PINService struct {
	cost int
}

// NewPINService creates a PINService. A cost outside bcrypt's range falls
// back to DefaultCost.
func NewPINService(cost int) *PINService {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultCost
	}
	return &PINService{cost: cost}
}

// ValidatePIN checks the PIN shape: MinPINLength to MaxPINLength digits.
func ValidatePIN(pin string) error {
	if len(pin) < MinPINLength || len(pin) > MaxPINLength {
		return apperror.ValidationFailed("pin", fmt.Sprintf("PIN must be %d to %d digits", MinPINLength, MaxPINLength))
	}
	for _, r := range pin {
		if r < '0' || r > '9' {
			return apperror.ValidationFailed("pin", "PIN may only contain digits")
		}
	}
	return nil
}

// Hash validates and hashes a PIN.
func (p *PINService) Hash(pin string) (string, error) {
	if err := ValidatePIN(pin); err != nil {
		return "", err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(pin), p.cost)
	if err != nil {
		return "", fmt.Errorf("auth: hashing PIN: %w", err)
	}

	return string(hashed), nil
}

// Verify checks a PIN against a stored hash. A mismatch is
// apperror.ErrUnauthorized; a broken hash is a plain error.
//
// bcrypt.CompareHashAndPassword compares in constant time.
func (p *PINService) Verify(hash, pin string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(pin))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return apperror.Unauthorized("incorrect PIN")
		}
		return fmt.Errorf("auth: comparing PIN hash: %w", err)
	}
	return nil
}
