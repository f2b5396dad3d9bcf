package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/pushp314/chatbridge-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestValidatePasswordStrength(t *testing.T) {
	tests := []struct {
		password string
		ok       bool
	}{
		{"Secret1", true},
		{"secret1", false},
		{"SECRET1", false},
		{"Secret", false},
		{"Se1", false},
	}
	for _, tt := range tests {
		err := validatePasswordStrength(tt.password)
		if tt.ok {
			assert.NoError(t, err, tt.password)
		} else {
			assert.Error(t, err, tt.password)
		}
	}
}

func TestRegisterLoginAndMe(t *testing.T) {
	env := newTestEnv(t)

	w := performRequest(env.router, "POST", "/api/auth/register", map[string]string{
		"name":     "Alice",
		"email":    "Alice@Example.com",
		"password": "Secret123",
	}, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var registered AuthResponse
	decode(t, w, &registered)
	assert.NotEmpty(t, registered.Token)
	assert.Equal(t, "alice@example.com", registered.User.Contact)
	assert.Equal(t, models.RoleAgent, registered.User.Role)

	w = performRequest(env.router, "POST", "/api/auth/login", map[string]string{
		"email":    "alice@example.com",
		"password": "Secret123",
	}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var loggedIn AuthResponse
	decode(t, w, &loggedIn)
	assert.Equal(t, registered.User.ID, loggedIn.User.ID)

	w = performRequest(env.router, "GET", "/api/auth/me", nil, loggedIn.Token)
	require.Equal(t, http.StatusOK, w.Code)
	var me struct {
		User models.UserProfile `json:"user"`
	}
	decode(t, w, &me)
	assert.Equal(t, "Alice", me.User.Name)

	w = performRequest(env.router, "POST", "/api/auth/login", map[string]string{
		"email":    "alice@example.com",
		"password": "Wrong123",
	}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	env := newTestEnv(t)
	body := map[string]string{"name": "Alice", "email": "alice@example.com", "password": "Secret123"}

	w := performRequest(env.router, "POST", "/api/auth/register", body, "")
	require.Equal(t, http.StatusCreated, w.Code)

	body["email"] = "ALICE@example.com"
	w = performRequest(env.router, "POST", "/api/auth/register", body, "")
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestRegisterValidation(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name string
		body map[string]string
	}{
		{"weak password", map[string]string{"name": "Bob", "email": "bob@example.com", "password": "password"}},
		{"bad email", map[string]string{"name": "Bob", "email": "bob", "password": "Secret123"}},
		{"markup only name", map[string]string{"name": "<b></b>", "email": "bob@example.com", "password": "Secret123"}},
		{"missing name", map[string]string{"email": "bob@example.com", "password": "Secret123"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := performRequest(env.router, "POST", "/api/auth/register", tt.body, "")
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestLoginRejectsExternalContacts(t *testing.T) {
	env := newTestEnv(t)

	hash, err := bcrypt.GenerateFromPassword([]byte("Secret123"), bcrypt.MinCost)
	require.NoError(t, err)
	require.NoError(t, env.users.Create(context.Background(), &models.User{
		Name:     "Ana",
		Contact:  "51900000001",
		Password: string(hash),
		Role:     models.RoleContact,
		Source:   models.SourceWhatsApp,
	}))

	// a phone-style contact id never passes the email binding
	w := performRequest(env.router, "POST", "/api/auth/login", map[string]string{
		"email":    "51900000001",
		"password": "Secret123",
	}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	require.NoError(t, env.users.Create(context.Background(), &models.User{
		Name:     "Imported",
		Contact:  "imported@example.com",
		Password: string(hash),
		Role:     models.RoleContact,
		Source:   models.SourceWhatsApp,
	}))
	w = performRequest(env.router, "POST", "/api/auth/login", map[string]string{
		"email":    "imported@example.com",
		"password": "Secret123",
	}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLogoutWithoutBlacklist(t *testing.T) {
	env := newTestEnv(t)

	w := performRequest(env.router, "POST", "/api/auth/register", map[string]string{
		"name": "Alice", "email": "alice@example.com", "password": "Secret123",
	}, "")
	require.Equal(t, http.StatusCreated, w.Code)
	var resp AuthResponse
	decode(t, w, &resp)

	w = performRequest(env.router, "POST", "/api/auth/logout", nil, resp.Token)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Successfully logged out")

	w = performRequest(env.router, "POST", "/api/auth/logout", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
