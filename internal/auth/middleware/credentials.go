package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// Credentials is the single evaluator account.
type Credentials struct {
	user string
	hash []byte
}

// NewCredentials validates a bcrypt hash. With an empty hash a random
// password is generated and returned so the caller can show it once.
func NewCredentials(user, passHash string) (*Credentials, string, error) {
	if passHash != "" {
		if _, err := bcrypt.Cost([]byte(passHash)); err != nil {
			return nil, "", fmt.Errorf("EVALUATOR_PASS_HASH is not a bcrypt hash: %w", err)
		}
		return &Credentials{user: user, hash: []byte(passHash)}, "", nil
	}
	raw := make([]byte, 12)
	if _, err := rand.Read(raw); err != nil {
		return nil, "", err
	}
	password := base64.RawURLEncoding.EncodeToString(raw)
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", err
	}
	return &Credentials{user: user, hash: hash}, password, nil
}

func (c *Credentials) User() string { return c.user }

func (c *Credentials) Check(user, password string) bool {
	userOK := subtle.ConstantTimeCompare([]byte(user), []byte(c.user)) == 1
	passOK := bcrypt.CompareHashAndPassword(c.hash, []byte(password)) == nil
	return userOK && passOK
}
