// internal/pkg/auth/password.go
package auth

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"regexp"
	"strings"
	"unicode"

	"github.com/your-org/retail-backend/internal/config"
	"golang.org/x/crypto/bcrypt"
)

var (
	sequentialLetters = regexp.MustCompile(`(abc|bcd|cde|def|efg|fgh|ghi|hij|ijk|jkl|klm|lmn|mno|nop|opq|pqr|qrs|rst|stu|tuv|uvw|vwx|wxy|xyz)`)
	sequentialDigits  = regexp.MustCompile(`(012|123|234|345|456|567|678|789)`)
	repeatedRunes     = regexp.MustCompile(`(.)\1{2,}`)

	commonPasswords = []string{
		"password", "123456", "admin", "qwerty", "letmein",
		"welcome", "monkey", "dragon", "football",
	}
)

// PasswordManager handles password hashing and strength checks
type PasswordManager struct {
	config *config.Config
}

// NewPasswordManager creates a new password manager
func NewPasswordManager(cfg *config.Config) *PasswordManager {
	return &PasswordManager{config: cfg}
}

// HashPassword validates and hashes a password using bcrypt
func (p *PasswordManager) HashPassword(password string) (string, error) {
	if err := p.ValidatePassword(password); err != nil {
		return "", fmt.Errorf("password validation failed: %w", err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), p.config.Security.BcryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}

// VerifyPassword verifies a password against its hash
func (p *PasswordManager) VerifyPassword(password, hash string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}

// ValidatePassword enforces the account password policy
func (p *PasswordManager) ValidatePassword(password string) error {
	if len(password) < 8 {
		return fmt.Errorf("password must be at least 8 characters long")
	}
	if len(password) > 128 {
		return fmt.Errorf("password must be no more than 128 characters long")
	}

	var hasUpper, hasLower, hasNumber, hasSpecial bool
	for _, char := range password {
		switch {
		case unicode.IsUpper(char):
			hasUpper = true
		case unicode.IsLower(char):
			hasLower = true
		case unicode.IsNumber(char):
			hasNumber = true
		case unicode.IsPunct(char) || unicode.IsSymbol(char):
			hasSpecial = true
		}
	}
	switch {
	case !hasUpper:
		return fmt.Errorf("password must contain at least one uppercase letter")
	case !hasLower:
		return fmt.Errorf("password must contain at least one lowercase letter")
	case !hasNumber:
		return fmt.Errorf("password must contain at least one number")
	case !hasSpecial:
		return fmt.Errorf("password must contain at least one special character")
	}

	lower := strings.ToLower(password)
	if sequentialLetters.MatchString(lower) {
		return fmt.Errorf("password cannot contain sequential letters")
	}
	if sequentialDigits.MatchString(password) {
		return fmt.Errorf("password cannot contain sequential numbers")
	}
	if repeatedRunes.MatchString(password) {
		return fmt.Errorf("password cannot contain more than 2 repeating characters")
	}
	for _, common := range commonPasswords {
		if strings.Contains(lower, common) {
			return fmt.Errorf("password is too common and easily guessable")
		}
	}
	return nil
}

// GenerateTemporaryPassword produces a random password that satisfies the
// policy, used when an admin resets an account.
func (p *PasswordManager) GenerateTemporaryPassword() (string, error) {
	const (
		upper   = "ABCDEFGHJKMNPQRSTVWXYZ"
		lower   = "acefhkmnprtvwxz"
		digits  = "24679"
		special = "!@#$%^&*"
	)

	pick := func(set string, n int) (string, error) {
		var b strings.Builder
		for i := 0; i < n; i++ {
			idx, err := rand.Int(rand.Reader, big.NewInt(int64(len(set))))
			if err != nil {
				return "", err
			}
			b.WriteByte(set[idx.Int64()])
		}
		return b.String(), nil
	}

	parts := make([]string, 0, 4)
	for _, seg := range []struct {
		set string
		n   int
	}{{upper, 3}, {lower, 4}, {digits, 3}, {special, 2}} {
		s, err := pick(seg.set, seg.n)
		if err != nil {
			return "", fmt.Errorf("failed to generate password: %w", err)
		}
		parts = append(parts, s)
	}
	return strings.Join(parts, ""), nil
}
