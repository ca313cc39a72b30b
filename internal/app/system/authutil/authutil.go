// internal/app/system/authutil/authutil.go
package authutil

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"

	"golang.org/x/crypto/bcrypt"
)

const (
	// BcryptCost is the work factor for stored password hashes.
	BcryptCost = 10
	// TempPasswordLength is the length of generated credentials.
	TempPasswordLength = 12
)

// tempPasswordAlphabet is the printable ASCII range '!'..'}' minus characters
// that are easy to misread in an email client.
const tempPasswordAlphabet = "!#$%&*+-=?@ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz23456789"

// ErrEmptyPassword is returned when hashing an empty password.
var ErrEmptyPassword = errors.New("password must not be empty")

// HashPassword hashes a plaintext password with bcrypt at BcryptCost.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword reports whether password matches the bcrypt hash.
// An empty or malformed hash never matches.
func CheckPassword(password, hash string) bool {
	if password == "" || hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// GenerateTempPassword returns a random password of TempPasswordLength
// characters drawn with crypto/rand.
// Panics if the system's cryptographic random number generator fails.
func GenerateTempPassword() string {
	return randomString(TempPasswordLength, tempPasswordAlphabet)
}

func randomString(n int, alphabet string) string {
	max := big.NewInt(int64(len(alphabet)))
	out := make([]byte, n)
	for i := range out {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			panic("crypto/rand.Int failed: " + err.Error())
		}
		out[i] = alphabet[idx.Int64()]
	}
	return string(out)
}
