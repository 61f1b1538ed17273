package service

import (
	"ai-lawyer-go/internal/apperr"
	"ai-lawyer-go/internal/repository"
	"ai-lawyer-go/pkg/token"
	"testing"
)

func newUserService(t *testing.T) UserService {
	t.Helper()
	db := openTestDB(t)
	jwtManager := token.NewJWTManager("test-secret", 1, 7)
	return NewUserService(repository.NewProfileRepository(db), jwtManager)
}

func TestRegisterAndLogin(t *testing.T) {
	svc := newUserService(t)

	profile, err := svc.Register("lawyer@example.com", "str0ngpass", "Ada", "Lovelace")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if profile.ID == "" {
		t.Fatalf("expected generated profile id")
	}
	if profile.Role != "user" {
		t.Fatalf("expected default role user, got %q", profile.Role)
	}
	if profile.PasswordHash == "str0ngpass" {
		t.Fatalf("password must not be stored in plain text")
	}

	access, refresh, err := svc.Login("lawyer@example.com", "str0ngpass")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if access == "" || refresh == "" {
		t.Fatalf("expected both tokens to be issued")
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	svc := newUserService(t)

	if _, err := svc.Register("dup@example.com", "password1", "", ""); err != nil {
		t.Fatalf("first register: %v", err)
	}
	_, err := svc.Register("dup@example.com", "password2", "", "")
	if !apperr.Is(err, apperr.KindInvalid) {
		t.Fatalf("expected invalid error on duplicate email, got %v", err)
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	svc := newUserService(t)

	if _, err := svc.Register("user@example.com", "rightpass", "", ""); err != nil {
		t.Fatalf("register: %v", err)
	}
	_, _, err := svc.Login("user@example.com", "wrongpass")
	if !apperr.Is(err, apperr.KindNotAuthenticated) {
		t.Fatalf("expected not authenticated error, got %v", err)
	}
}

func TestLogin_UnknownEmail(t *testing.T) {
	svc := newUserService(t)

	_, _, err := svc.Login("ghost@example.com", "whatever")
	if !apperr.Is(err, apperr.KindNotAuthenticated) {
		t.Fatalf("expected not authenticated error, got %v", err)
	}
}

func TestRefreshToken_IssuesNewPair(t *testing.T) {
	svc := newUserService(t)

	if _, err := svc.Register("user@example.com", "rightpass", "", ""); err != nil {
		t.Fatalf("register: %v", err)
	}
	_, refresh, err := svc.Login("user@example.com", "rightpass")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	newAccess, newRefresh, err := svc.RefreshToken(refresh)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if newAccess == "" || newRefresh == "" {
		t.Fatalf("expected refreshed token pair")
	}
}

func TestRefreshToken_RejectsGarbage(t *testing.T) {
	svc := newUserService(t)

	_, _, err := svc.RefreshToken("not-a-token")
	if !apperr.Is(err, apperr.KindNotAuthenticated) {
		t.Fatalf("expected not authenticated error, got %v", err)
	}
}
