package auth

import "golang.org/x/crypto/bcrypt"

const DefaultBcryptCost = 12

// PasswordHasher wraps bcrypt with an explicit cost so tests can run with
// a cheap cost while production keeps the configured one.
type PasswordHasher struct {
	cost int
}

func NewPasswordHasher(cost int) PasswordHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultBcryptCost
	}
	return PasswordHasher{cost: cost}
}

// Hash produces a salted bcrypt hash. The salt is random per call, so two
// hashes of the same password never compare equal.
func (h PasswordHasher) Hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Verify reports whether password matches the stored hash. A malformed
// hash fails closed: it verifies as false rather than erroring out.
func (h PasswordHasher) Verify(password string, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
