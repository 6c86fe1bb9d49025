package handlers

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
)

const cronSignatureHeader = "X-Cron-Signature"

// validCronSignature checks X-Cron-Signature against HMAC-SHA256(body, secret).
// If secret is empty, validation is skipped (returns true). Bodies over
// maxBodyBytes never validate.
func validCronSignature(w http.ResponseWriter, r *http.Request, secret string) bool {
	if secret == "" {
		return true
	}
	sig := r.Header.Get(cronSignatureHeader)
	if sig == "" {
		return false
	}
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return false
	}
	r.Body = io.NopCloser(bytes.NewReader(body)) // restore for downstream handlers

	return hmac.Equal([]byte(sig), []byte(signBody(body, secret)))
}

func signBody(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}
