package models

import (
	"crypto/subtle"

	"golang.org/x/crypto/bcrypt"
)

// AdminCredentials is the single operator account. A bcrypt hash takes
// precedence over the plain password when both are configured.
type AdminCredentials struct {
	Password     string
	PasswordHash string
	TOTPSecret   string
}

// HashPassword generates bcrypt hash of the password
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

// CheckPassword compares password with the configured hash or plain value.
func (a AdminCredentials) CheckPassword(password string) bool {
	if password == "" {
		return false
	}
	if a.PasswordHash != "" {
		return bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(password)) == nil
	}
	return a.Password != "" && subtle.ConstantTimeCompare([]byte(password), []byte(a.Password)) == 1
}

func (a AdminCredentials) TOTPEnabled() bool {
	return a.TOTPSecret != ""
}

// CheckTOTP passes when 2FA is disabled.
func (a AdminCredentials) CheckTOTP(code string) bool {
	if !a.TOTPEnabled() {
		return true
	}
	return VerifyTOTPCode(a.TOTPSecret, code)
}
