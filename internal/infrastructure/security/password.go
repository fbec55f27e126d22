package security

import (
	"context"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// BcryptHasher hashes passwords with bcrypt. The cost and salt are embedded in
// every digest, so changing the cost only affects new hashes.
type BcryptHasher struct {
	cost int
	// decoy is compared against when the stored digest is unusable so that a
	// malformed digest costs as much as a real mismatch.
	decoy []byte
}

// NewBcryptHasher returns a hasher using cost, or bcrypt.DefaultCost when cost
// is zero.
func NewBcryptHasher(cost int) (*BcryptHasher, error) {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("bcrypt cost %d out of range [%d, %d]", cost, bcrypt.MinCost, bcrypt.MaxCost)
	}
	decoy, err := bcrypt.GenerateFromPassword([]byte("decoy-password"), cost)
	if err != nil {
		return nil, fmt.Errorf("generate decoy hash: %w", err)
	}
	return &BcryptHasher{cost: cost, decoy: decoy}, nil
}

// Cost reports the work factor used for new hashes.
func (h *BcryptHasher) Cost() int { return h.cost }

func (h *BcryptHasher) Hash(_ context.Context, plaintext string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", err
	}
	return string(digest), nil
}

func (h *BcryptHasher) Verify(_ context.Context, plaintext, digest string) bool {
	stored := []byte(digest)
	malformed := false
	if _, err := bcrypt.Cost(stored); err != nil {
		stored = h.decoy
		malformed = true
	}
	err := bcrypt.CompareHashAndPassword(stored, []byte(plaintext))
	return err == nil && !malformed
}
