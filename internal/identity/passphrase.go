package identity

import "golang.org/x/crypto/bcrypt"

// HashPassphrase derives a bcrypt hash for the ops passphrase that
// gates destructive admin actions.
func HashPassphrase(passphrase string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(passphrase), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassphrase reports whether the passphrase matches the hash.
func CheckPassphrase(hash, passphrase string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(passphrase)) == nil
}
