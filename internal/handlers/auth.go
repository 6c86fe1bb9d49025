package handlers

import (
	"crypto/rand"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/sessions"

	"airdrop-hunter-go/internal/logging"
)

const (
	sessionName   = "airdrop-admin"
	sessionMaxAge = 8 * time.Hour
)

// newSessionStore signs cookies with secret. Without one, a random key is
// used and sessions end on restart.
func newSessionStore(secret string, secure bool) (*sessions.CookieStore, error) {
	key := []byte(secret)
	if len(key) == 0 {
		key = make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			return nil, fmt.Errorf("generate session key: %w", err)
		}
	}

	cs := sessions.NewCookieStore(key)
	cs.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int(sessionMaxAge.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return cs, nil
}

// LoginHandler handles admin login
func (h *Handler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Password string `json:"password"`
		Code     string `json:"code"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request")
		return
	}

	if !h.admin.CheckPassword(req.Password) {
		logging.Ctx(r.Context()).Warn().Msg("admin login rejected")
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	if h.admin.TOTPEnabled() && !h.admin.CheckTOTP(req.Code) {
		writeJSON(w, http.StatusUnauthorized, map[string]any{
			"error":         "Invalid 2FA code",
			"totp_required": true,
		})
		return
	}

	session, _ := h.sessions.Get(r, sessionName)
	session.Values["admin"] = true
	session.Values["login_at"] = time.Now().Unix()
	if err := session.Save(r, w); err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("failed to save session")
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// LogoutHandler handles logout
func (h *Handler) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	session, _ := h.sessions.Get(r, sessionName)
	session.Values["admin"] = nil
	session.Options.MaxAge = -1
	_ = session.Save(r, w)

	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (h *Handler) CheckAuthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"authenticated": h.isAdmin(r),
		"totpEnabled":   h.admin.TOTPEnabled(),
	})
}

func (h *Handler) isAdmin(r *http.Request) bool {
	session, err := h.sessions.Get(r, sessionName)
	if err != nil {
		return false
	}
	ok, _ := session.Values["admin"].(bool)
	return ok
}

// AdminOnly rejects requests without an admin session.
func (h *Handler) AdminOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !h.isAdmin(r) {
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}
