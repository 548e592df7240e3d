// Package session stores the logged in admin in the fiber session storage.
package session

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"

	"github.com/zach-adams/wp-browsersync-reload/internal/db/models"
)

// CookieName is the name of the cookie carrying the session id.
const CookieName = "session"

// ErrSessionNotFound is returned by Read for unknown or expired session ids.
var ErrSessionNotFound = errors.New("session not found")

// Store is the global session store instance.
var Store *session.Store //nolint:gochecknoglobals

// Data represents the session data structure.
type Data struct {
	User models.User
}

// Write writes the session data for the given session ID with an expiration duration.
func (s *Data) Write(sessionID string, exp time.Duration) error {
	out, err := json.Marshal(s)
	if err != nil {
		return err
	}

	return Store.Storage.Set(sessionID, out, exp)
}

// Read reads the session data for the given session ID.
func (s *Data) Read(sessionID string) error {
	if sessionID == "" {
		return ErrSessionNotFound
	}

	byteData, err := Store.Storage.Get(sessionID)
	if err != nil {
		return err
	}

	if len(byteData) == 0 {
		return ErrSessionNotFound
	}

	return json.Unmarshal(byteData, s)
}

// Delete removes the session with the given id.
func Delete(sessionID string) error {
	return Store.Storage.Delete(sessionID)
}

// Init initializes the session store. A nil storage keeps sessions in memory.
func Init(storage fiber.Storage) {
	Store = session.New(session.Config{
		Storage: storage,
	})
}

// GenerateSessionID generates a new secure random session ID.
func GenerateSessionID() (string, error) {
	return randomHex(32) //nolint:mnd
}

// GeneratePassword returns a random password of 2*n hex characters.
func GeneratePassword(n int) (string, error) {
	return randomHex(n)
}

func randomHex(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}

	return hex.EncodeToString(b), nil
}
