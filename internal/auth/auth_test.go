package auth

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/mmynk/fistein/internal/models"
)

type memoryUsers struct {
	mu    sync.Mutex
	users map[string]*models.User
}

func newMemoryUsers() *memoryUsers {
	return &memoryUsers{users: make(map[string]*models.User)}
}

func (m *memoryUsers) CreateUser(_ context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[user.ID] = user
	return nil
}

func (m *memoryUsers) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}

func (m *memoryUsers) GetUserByID(_ context.Context, id string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.users[id], nil
}

func newTestAuthenticator() *PasswordAuthenticator {
	return NewPasswordAuthenticator(newMemoryUsers()).WithCost(bcrypt.MinCost)
}

func TestRegisterAndAuthenticate(t *testing.T) {
	ctx := context.Background()
	a := newTestAuthenticator()

	user, err := a.Register(ctx, "  Alice@Example.com ", "Alice", "correct horse")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if user.Email != "alice@example.com" {
		t.Errorf("email: expected normalized address, got %q", user.Email)
	}
	if user.PasswordHash == "correct horse" {
		t.Error("password stored in clear text")
	}

	got, err := a.Authenticate(ctx, "alice@example.com", "correct horse")
	if err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}
	if got.ID != user.ID {
		t.Errorf("expected user %s, got %s", user.ID, got.ID)
	}

	looked, err := a.Lookup(ctx, user.ID)
	if err != nil || looked.DisplayName != "Alice" {
		t.Errorf("Lookup: got %+v, %v", looked, err)
	}
}

func TestRegisterErrors(t *testing.T) {
	ctx := context.Background()
	a := newTestAuthenticator()
	if _, err := a.Register(ctx, "bob@example.com", "Bob", "password1"); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	tests := []struct {
		name     string
		email    string
		password string
		want     error
	}{
		{"duplicate email", "BOB@example.com", "password2", ErrEmailExists},
		{"short password", "carol@example.com", "short", ErrWeakPassword},
		{"malformed email", "not-an-email", "password1", ErrInvalidEmail},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := a.Register(ctx, tt.email, "", tt.password)
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestRegisterDefaultsDisplayName(t *testing.T) {
	user, err := newTestAuthenticator().Register(context.Background(), "dana@example.com", " ", "password1")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if user.DisplayName != "dana" {
		t.Errorf("expected display name 'dana', got %q", user.DisplayName)
	}
}

func TestAuthenticateRejects(t *testing.T) {
	ctx := context.Background()
	a := newTestAuthenticator()
	if _, err := a.Register(ctx, "erin@example.com", "Erin", "password1"); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	if _, err := a.Authenticate(ctx, "erin@example.com", "wrong-password"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("wrong password: expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := a.Authenticate(ctx, "nobody@example.com", "password1"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("unknown email: expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := a.Lookup(ctx, "missing"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("Lookup: expected ErrUserNotFound, got %v", err)
	}
}

func TestJWTRoundTrip(t *testing.T) {
	m := NewJWTManager("test-secret", time.Hour)
	user := &models.User{ID: "user-1", Email: "alice@example.com"}

	token, err := m.Generate(user)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	claims, err := m.Validate(token)
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if claims.UserID() != "user-1" || claims.Email != "alice@example.com" {
		t.Errorf("unexpected claims: %+v", claims)
	}
}

func TestJWTRejects(t *testing.T) {
	user := &models.User{ID: "user-1", Email: "alice@example.com"}
	m := NewJWTManager("test-secret", time.Hour)

	expired := NewJWTManager("test-secret", time.Hour)
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expiredToken, err := expired.Generate(user)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	otherKey, err := NewJWTManager("other-secret", time.Hour).Generate(user)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	for name, token := range map[string]string{
		"expired":     expiredToken,
		"wrong key":   otherKey,
		"garbage":     "not.a.token",
		"empty token": "",
	} {
		t.Run(name, func(t *testing.T) {
			if _, err := m.Validate(token); !errors.Is(err, ErrInvalidToken) {
				t.Errorf("expected ErrInvalidToken, got %v", err)
			}
		})
	}
}
