package services

import (
	"context"
	"errors"
	"testing"

	"livepoll/config"
	"livepoll/internal/domain/user"
	poll_errors "livepoll/pkg/errors"

	"github.com/google/uuid"
)

func newAuthFixture() (*AuthService, *fakeUserRepo) {
	repo := newFakeUserRepo()
	cfg := &config.Config{
		JWTSecret:     "test-secret",
		JWTExpiryMin:  15,
		RefreshExpiry: 14,
	}
	return NewAuthService(repo, cfg), repo
}

func validRegisterInput() RegisterInput {
	return RegisterInput{
		Email:       "alice@example.com",
		Username:    "alice",
		Password:    "correct-horse",
		DisplayName: "Alice",
	}
}

func TestRegisterValidation(t *testing.T) {
	auth, _ := newAuthFixture()

	tests := []struct {
		name   string
		mutate func(in *RegisterInput)
	}{
		{"missing email", func(in *RegisterInput) { in.Email = "" }},
		{"missing username", func(in *RegisterInput) { in.Username = "" }},
		{"missing display name", func(in *RegisterInput) { in.DisplayName = "" }},
		{"short password", func(in *RegisterInput) { in.Password = "short" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validRegisterInput()
			tt.mutate(&in)
			if _, err := auth.Register(context.Background(), in); !errors.Is(err, poll_errors.ErrInvalidInput) {
				t.Errorf("Register() error = %v, want ErrInvalidInput", err)
			}
		})
	}
}

func TestRegisterIssuesUserRole(t *testing.T) {
	auth, _ := newAuthFixture()

	res, err := auth.Register(context.Background(), validRegisterInput())
	if err != nil {
		t.Fatalf("Register() unexpected error: %v", err)
	}
	if res.User.Role != user.RoleUser {
		t.Errorf("role = %q, registration must never grant %q", res.User.Role, user.RoleAdmin)
	}
	if res.AccessToken == "" || res.RefreshToken == "" || res.SessionID == "" {
		t.Error("incomplete auth response")
	}

	claims, err := auth.ParseAccessToken(res.AccessToken)
	if err != nil {
		t.Fatalf("ParseAccessToken() unexpected error: %v", err)
	}
	if claims.UserID != res.User.ID {
		t.Errorf("token sub = %q, want %q", claims.UserID, res.User.ID)
	}
	if claims.Role != user.RoleUser {
		t.Errorf("token role = %q, want %q", claims.Role, user.RoleUser)
	}
}

func TestRegisterDuplicateIdentity(t *testing.T) {
	auth, _ := newAuthFixture()

	if _, err := auth.Register(context.Background(), validRegisterInput()); err != nil {
		t.Fatalf("Register() unexpected error: %v", err)
	}

	dupEmail := validRegisterInput()
	dupEmail.Username = "alice2"
	if _, err := auth.Register(context.Background(), dupEmail); !errors.Is(err, poll_errors.ErrAlreadyExists) {
		t.Errorf("duplicate email = %v, want ErrAlreadyExists", err)
	}

	dupUsername := validRegisterInput()
	dupUsername.Email = "alice2@example.com"
	if _, err := auth.Register(context.Background(), dupUsername); !errors.Is(err, poll_errors.ErrAlreadyExists) {
		t.Errorf("duplicate username = %v, want ErrAlreadyExists", err)
	}
}

func TestLogin(t *testing.T) {
	auth, _ := newAuthFixture()

	if _, err := auth.Register(context.Background(), validRegisterInput()); err != nil {
		t.Fatalf("Register() unexpected error: %v", err)
	}

	tests := []struct {
		name     string
		identity string
		password string
		wantErr  error
	}{
		{"by email", "alice@example.com", "correct-horse", nil},
		{"by username", "alice", "correct-horse", nil},
		{"wrong password", "alice", "battery-staple", poll_errors.ErrUnauthorized},
		{"unknown identity", "nobody", "correct-horse", poll_errors.ErrUnauthorized},
		{"missing password", "alice", "", poll_errors.ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := auth.Login(context.Background(), LoginInput{Identity: tt.identity, Password: tt.password})
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Login() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestRefreshRotatesToken(t *testing.T) {
	auth, _ := newAuthFixture()

	res, err := auth.Register(context.Background(), validRegisterInput())
	if err != nil {
		t.Fatalf("Register() unexpected error: %v", err)
	}

	refreshed, err := auth.Refresh(context.Background(), RefreshInput{
		SessionID:    res.SessionID,
		RefreshToken: res.RefreshToken,
	})
	if err != nil {
		t.Fatalf("Refresh() unexpected error: %v", err)
	}
	if refreshed.RefreshToken == res.RefreshToken {
		t.Error("refresh token was not rotated")
	}

	// The old token is dead after rotation, and presenting it revokes the
	// session.
	if _, err := auth.Refresh(context.Background(), RefreshInput{
		SessionID:    res.SessionID,
		RefreshToken: res.RefreshToken,
	}); !errors.Is(err, poll_errors.ErrUnauthorized) {
		t.Errorf("replayed refresh token = %v, want ErrUnauthorized", err)
	}
	if _, err := auth.Refresh(context.Background(), RefreshInput{
		SessionID:    res.SessionID,
		RefreshToken: refreshed.RefreshToken,
	}); !errors.Is(err, poll_errors.ErrUnauthorized) {
		t.Errorf("refresh on revoked session = %v, want ErrUnauthorized", err)
	}
}

func TestLogoutRevokesSession(t *testing.T) {
	auth, _ := newAuthFixture()

	res, err := auth.Register(context.Background(), validRegisterInput())
	if err != nil {
		t.Fatalf("Register() unexpected error: %v", err)
	}

	sessionID, err := uuid.Parse(res.SessionID)
	if err != nil {
		t.Fatalf("bad session id: %v", err)
	}
	userID, err := uuid.Parse(res.User.ID)
	if err != nil {
		t.Fatalf("bad user id: %v", err)
	}

	if _, err := auth.ValidateSession(context.Background(), sessionID, userID); err != nil {
		t.Fatalf("ValidateSession() before logout: %v", err)
	}

	if err := auth.Logout(context.Background(), res.SessionID); err != nil {
		t.Fatalf("Logout() unexpected error: %v", err)
	}

	if _, err := auth.ValidateSession(context.Background(), sessionID, userID); !errors.Is(err, poll_errors.ErrUnauthorized) {
		t.Errorf("ValidateSession() after logout = %v, want ErrUnauthorized", err)
	}
}

func TestValidateSessionUserMismatch(t *testing.T) {
	auth, _ := newAuthFixture()

	res, err := auth.Register(context.Background(), validRegisterInput())
	if err != nil {
		t.Fatalf("Register() unexpected error: %v", err)
	}
	sessionID, _ := uuid.Parse(res.SessionID)

	if _, err := auth.ValidateSession(context.Background(), sessionID, uuid.New()); !errors.Is(err, poll_errors.ErrUnauthorized) {
		t.Errorf("session for another user = %v, want ErrUnauthorized", err)
	}
}

func TestParseAccessTokenRejectsGarbage(t *testing.T) {
	auth, _ := newAuthFixture()

	other := NewAuthService(newFakeUserRepo(), &config.Config{
		JWTSecret:     "different-secret",
		JWTExpiryMin:  15,
		RefreshExpiry: 14,
	})
	res, err := other.Register(context.Background(), validRegisterInput())
	if err != nil {
		t.Fatalf("Register() unexpected error: %v", err)
	}

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"not a jwt", "definitely-not-a-token"},
		{"wrong signing key", res.AccessToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := auth.ParseAccessToken(tt.token); !errors.Is(err, poll_errors.ErrUnauthorized) {
				t.Errorf("ParseAccessToken() error = %v, want ErrUnauthorized", err)
			}
		})
	}
}

func TestHTTPStatusMapping(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{poll_errors.ErrInvalidInput, 400, "INVALID_INPUT"},
		{poll_errors.ErrUnauthorized, 401, "UNAUTHORIZED"},
		{poll_errors.ErrForbidden, 403, "FORBIDDEN"},
		{poll_errors.ErrNotFound, 404, "NOT_FOUND"},
		{poll_errors.ErrAlreadyVoted, 409, "ALREADY_VOTED"},
		{poll_errors.ErrPollCompleted, 409, "POLL_COMPLETED"},
		{poll_errors.ErrAlreadyExists, 409, "ALREADY_EXISTS"},
		{poll_errors.ErrRateLimited, 429, "RATE_LIMITED"},
	}

	for _, tt := range tests {
		if got := HTTPStatus(tt.err); got != tt.status {
			t.Errorf("HTTPStatus(%v) = %d, want %d", tt.err, got, tt.status)
		}
		if got := ErrorCode(tt.err); got != tt.code {
			t.Errorf("ErrorCode(%v) = %q, want %q", tt.err, got, tt.code)
		}
	}
}
