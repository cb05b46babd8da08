package middleware

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"net/http"
	"strings"
)

const flashCookie = "cropscan_flash"

// FlashMessage is a one-shot notice rendered on the next page view.
// Kind is "success" or "error" and only drives styling.
type FlashMessage struct {
	Kind string
	Text string
}

// Flash signs one-shot notice cookies with the app secret so a client
// cannot forge or alter them.
type Flash struct {
	secret []byte
}

func NewFlash(secret []byte) *Flash {
	return &Flash{secret: secret}
}

// Set queues a flash message for the next request.
func (f *Flash) Set(w http.ResponseWriter, kind, text string) {
	payload := base64.RawURLEncoding.EncodeToString([]byte(kind + "\x00" + text))
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookie,
		Value:    payload + "." + f.sign(payload),
		Path:     "/",
		MaxAge:   300,
		HttpOnly: true,
	})
}

// Pop reads and clears the pending flash message. Tampered or malformed
// cookies are dropped silently.
func (f *Flash) Pop(w http.ResponseWriter, r *http.Request) []FlashMessage {
	c, err := r.Cookie(flashCookie)
	if err != nil {
		return nil
	}

	http.SetCookie(w, &http.Cookie{
		Name:     flashCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})

	parts := strings.SplitN(c.Value, ".", 2)
	if len(parts) != 2 {
		return nil
	}

	// Constant-time comparison to prevent signature probing
	if subtle.ConstantTimeCompare([]byte(f.sign(parts[0])), []byte(parts[1])) != 1 {
		return nil
	}

	raw, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		return nil
	}
	kv := strings.SplitN(string(raw), "\x00", 2)
	if len(kv) != 2 {
		return nil
	}

	return []FlashMessage{{Kind: kv[0], Text: kv[1]}}
}

func (f *Flash) sign(payload string) string {
	mac := hmac.New(sha256.New, f.secret)
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}
