package security

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const (
	passwordUppercase = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	passwordLowercase = "abcdefghijklmnopqrstuvwxyz"
	passwordDigits    = "0123456789"
	passwordSymbols   = "!@#$%^&*()-_=+[]{}<>?"

	// MinGeneratedPasswordLength is the floor for generated credentials.
	MinGeneratedPasswordLength = 12
)

var passwordAlphabet = passwordUppercase + passwordLowercase + passwordDigits + passwordSymbols

// GenerateNumericCode returns a random numeric string of the given length,
// drawn uniformly from a cryptographically strong source.
func GenerateNumericCode(length int) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("length must be positive")
	}

	digits := make([]byte, length)
	for i := range digits {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", fmt.Errorf("generate code: %w", err)
		}
		digits[i] = '0' + byte(n.Int64())
	}

	return string(digits), nil
}

// GeneratePassword produces a random password containing at least one
// uppercase letter, one lowercase letter, one digit, and one symbol. The
// remaining characters are drawn uniformly from the full alphabet and the
// result is shuffled so character-class positions are not predictable.
func GeneratePassword(length int) (string, error) {
	if length < MinGeneratedPasswordLength {
		length = MinGeneratedPasswordLength
	}

	chars := make([]byte, 0, length)

	for _, class := range []string{passwordUppercase, passwordLowercase, passwordDigits, passwordSymbols} {
		c, err := randomChar(class)
		if err != nil {
			return "", err
		}
		chars = append(chars, c)
	}

	for len(chars) < length {
		c, err := randomChar(passwordAlphabet)
		if err != nil {
			return "", err
		}
		chars = append(chars, c)
	}

	if err := shuffleBytes(chars); err != nil {
		return "", err
	}

	return string(chars), nil
}

func randomChar(alphabet string) (byte, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(alphabet))))
	if err != nil {
		return 0, fmt.Errorf("generate password: %w", err)
	}
	return alphabet[n.Int64()], nil
}

// shuffleBytes applies a Fisher-Yates shuffle backed by crypto/rand.
func shuffleBytes(b []byte) error {
	for i := len(b) - 1; i > 0; i-- {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(i+1)))
		if err != nil {
			return fmt.Errorf("shuffle password: %w", err)
		}
		j := n.Int64()
		b[i], b[j] = b[j], b[i]
	}
	return nil
}
