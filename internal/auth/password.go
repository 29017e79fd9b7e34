package auth

import (
	"unicode"

	"golang.org/x/crypto/bcrypt"

	"notification_service/internal/models"
)

func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

func CheckPasswordHash(password, hash string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}

// ValidatePassword enforces the registration policy: at least 8 characters
// with a lowercase letter, an uppercase letter, a digit and a symbol.
func ValidatePassword(password string) error {
	var hasLower, hasUpper, hasDigit, hasSymbol bool

	runes := []rune(password)
	for _, r := range runes {
		switch {
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsDigit(r):
			hasDigit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			hasSymbol = true
		}
	}

	if len(runes) < 8 || !hasLower || !hasUpper || !hasDigit || !hasSymbol {
		return models.ErrWeakPassword
	}

	return nil
}
