package models

import (
	"bytes"
	"image/png"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

// GenerateTOTPSecret creates a key for the admin account. The secret is
// printed once by the setup command and then goes into ADMIN_TOTP_SECRET.
func GenerateTOTPSecret(account, issuer string) (*otp.Key, error) {
	return totp.Generate(totp.GenerateOpts{
		Issuer:      issuer,
		AccountName: account,
	})
}

// QRCodePNG renders the key URL as a PNG for authenticator apps.
func QRCodePNG(key *otp.Key, size int) ([]byte, error) {
	var buf bytes.Buffer
	img, err := key.Image(size, size)
	if err != nil {
		return nil, err
	}

	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func VerifyTOTPCode(secret, code string) bool {
	return totp.Validate(code, secret)
}
