package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestIssueAndParse(t *testing.T) {
	a := NewAuthService("secret", time.Hour)
	tok, exp, err := a.IssueJWT("evaluador", "sess-1")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, time.Minute)

	c, err := a.Parse(tok)
	require.NoError(t, err)
	assert.Equal(t, "evaluador", c.Subject)
	assert.Equal(t, "sess-1", c.SessionID)

	_, err = NewAuthService("other", time.Hour).Parse(tok)
	assert.Error(t, err)
}

func TestParse_Expired(t *testing.T) {
	a := NewAuthService("secret", time.Hour)
	tok, _, err := a.IssueJWT("evaluador", "sess-1")
	require.NoError(t, err)

	a.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = a.Parse(tok)
	assert.Error(t, err)
}

func TestJWTMiddleware(t *testing.T) {
	a := NewAuthService("secret", time.Hour)
	tok, _, err := a.IssueJWT("evaluador", "sess-9")
	require.NoError(t, err)

	var seen string
	h := JWTMiddleware(a)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = SessionFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: tok})
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "sess-9", seen)
}

func TestOptionalJWT(t *testing.T) {
	a := NewAuthService("secret", time.Hour)
	called := false
	h := OptionalJWT(a)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		_, ok := ClaimsFromContext(r.Context())
		assert.False(t, ok)
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.True(t, called)
}

func TestCredentials(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("clave"), bcrypt.MinCost)
	require.NoError(t, err)

	c, generated, err := NewCredentials("evaluador", string(hash))
	require.NoError(t, err)
	assert.Empty(t, generated)
	assert.True(t, c.Check("evaluador", "clave"))
	assert.False(t, c.Check("evaluador", "otra"))
	assert.False(t, c.Check("admin", "clave"))

	c, generated, err = NewCredentials("evaluador", "")
	require.NoError(t, err)
	assert.NotEmpty(t, generated)
	assert.True(t, c.Check("evaluador", generated))

	_, _, err = NewCredentials("evaluador", "plaintext")
	assert.Error(t, err)
}
