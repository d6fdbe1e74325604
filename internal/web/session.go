package web

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"time"

	"github.com/hurricanerix/icecarve/internal/conversation"
)

const (
	// SessionCookieName is the name of the session cookie.
	SessionCookieName = "icecarve_session"

	// SessionIDLength is the length of the session ID in bytes.
	// 16 bytes = 128 bits of entropy.
	SessionIDLength = 16

	// SessionExpiry is how long a session cookie lasts.
	SessionExpiry = 24 * time.Hour
)

// SessionScope selects how requests are mapped to sessions.
type SessionScope string

const (
	// ScopeGlobal maps every request to conversation.DefaultSessionID.
	ScopeGlobal SessionScope = "global"

	// ScopeCookie keys sessions by the SessionCookieName cookie.
	ScopeCookie SessionScope = "cookie"
)

// contextKey is an unexported type for context keys to avoid collisions.
type contextKey int

const (
	sessionIDKey contextKey = iota
)

// GenerateSessionID creates a new cryptographically secure session ID.
// Returns a hex-encoded string of random bytes.
func GenerateSessionID() (string, error) {
	bytes := make([]byte, SessionIDLength)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to generate session ID: %w", err)
	}
	return hex.EncodeToString(bytes), nil
}

// GetSessionID retrieves the session ID from the request context.
// Returns an empty string if no session ID exists in the context.
func GetSessionID(ctx context.Context) string {
	if sessionID, ok := ctx.Value(sessionIDKey).(string); ok {
		return sessionID
	}
	return ""
}

func setSessionID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, sessionIDKey, sessionID)
}

// ValidateSessionID reports whether sessionID is a hex string of
// SessionIDLength bytes.
func ValidateSessionID(sessionID string) bool {
	if len(sessionID) != SessionIDLength*2 {
		return false
	}
	_, err := hex.DecodeString(sessionID)
	return err == nil
}

// SessionMiddleware stores a session ID in every request context.
// With ScopeGlobal all requests share conversation.DefaultSessionID and no
// cookie is set. With ScopeCookie a valid cookie is reused, otherwise a new
// ID is generated and set as a cookie.
func SessionMiddleware(scope SessionScope, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if scope != ScopeCookie {
			next.ServeHTTP(w, r.WithContext(setSessionID(r.Context(), conversation.DefaultSessionID)))
			return
		}

		var sessionID string
		if cookie, err := r.Cookie(SessionCookieName); err == nil && ValidateSessionID(cookie.Value) {
			sessionID = cookie.Value
		}

		if sessionID == "" {
			var err error
			sessionID, err = GenerateSessionID()
			if err != nil {
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				return
			}

			// SECURITY: Secure flag requires HTTPS in production
			http.SetCookie(w, &http.Cookie{
				Name:     SessionCookieName,
				Value:    sessionID,
				Path:     "/",
				MaxAge:   int(SessionExpiry.Seconds()),
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
				Secure:   r.TLS != nil,
			})
		}

		next.ServeHTTP(w, r.WithContext(setSessionID(r.Context(), sessionID)))
	})
}
