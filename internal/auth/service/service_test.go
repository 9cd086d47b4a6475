package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"autoparts_quotes_backend/internal/auth/password"
	"autoparts_quotes_backend/internal/auth/repository"
	"autoparts_quotes_backend/internal/auth/transport"
	"autoparts_quotes_backend/internal/events"
	"autoparts_quotes_backend/platform/apperr"
	"autoparts_quotes_backend/platform/logger"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type testConfig struct{}

func (testConfig) GetJWTAccessSecret() string       { return "test-secret" }
func (testConfig) GetAccessTokenTTL() time.Duration { return time.Hour }

type fakeRepo struct {
	users map[string]repository.User
}

func (f *fakeRepo) CreateUser(_ context.Context, email, hash string) (repository.User, error) {
	if _, ok := f.users[email]; ok {
		return repository.User{}, apperr.Conflict("email already registered")
	}
	u := repository.User{ID: uuid.New(), Email: email, PasswordHash: hash}
	f.users[email] = u
	return u, nil
}

func (f *fakeRepo) GetUserByEmail(_ context.Context, email string) (repository.User, error) {
	u, ok := f.users[email]
	if !ok {
		return repository.User{}, apperr.NotFound("user not found")
	}
	return u, nil
}

func (f *fakeRepo) GetUserByID(_ context.Context, id uuid.UUID) (repository.User, error) {
	for _, u := range f.users {
		if u.ID == id {
			return u, nil
		}
	}
	return repository.User{}, apperr.NotFound("user not found")
}

func (f *fakeRepo) UpdatePassword(_ context.Context, id uuid.UUID, hash string) error {
	for k, u := range f.users {
		if u.ID == id {
			u.PasswordHash = hash
			f.users[k] = u
			return nil
		}
	}
	return apperr.NotFound("user not found")
}

type recordingBus struct {
	mu     sync.Mutex
	events []events.Event
}

func (b *recordingBus) Publish(_ context.Context, e events.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, e)
}

func (b *recordingBus) PublishSync(ctx context.Context, e events.Event) error {
	b.Publish(ctx, e)
	return nil
}

func (b *recordingBus) Subscribe(string, events.Handler) {}

func newTestService() (*Service, *fakeRepo, *recordingBus) {
	repo := &fakeRepo{users: map[string]repository.User{}}
	bus := &recordingBus{}
	return New(repo, testConfig{}, bus, logger.Nop()), repo, bus
}

func TestSignUpIssuesAccessTokenAndPublishes(t *testing.T) {
	svc, _, bus := newTestService()

	resp, err := svc.SignUp(context.Background(), transport.SignUpRequest{Email: " Oficina@Example.com ", Password: "supersecret"})
	if err != nil {
		t.Fatalf("sign up: %v", err)
	}

	claims := jwt.MapClaims{}
	if _, err := jwt.ParseWithClaims(resp.AccessToken, claims, func(*jwt.Token) (any, error) {
		return []byte("test-secret"), nil
	}); err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if claims["type"] != accessTokenType {
		t.Fatalf("expected access token, got %v", claims["type"])
	}

	if len(bus.events) != 1 {
		t.Fatalf("expected one event, got %d", len(bus.events))
	}
	e, ok := bus.events[0].(events.UserSignedUp)
	if !ok || e.Email != "oficina@example.com" {
		t.Fatalf("unexpected event %#v", bus.events[0])
	}
	if claims["sub"] != e.UserID.String() {
		t.Fatalf("token subject %v does not match user %s", claims["sub"], e.UserID)
	}
}

func TestSignInRejectsWrongPassword(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	if _, err := svc.SignUp(ctx, transport.SignUpRequest{Email: "a@b.com", Password: "supersecret"}); err != nil {
		t.Fatalf("sign up: %v", err)
	}

	if _, err := svc.SignIn(ctx, transport.SignInRequest{Email: "a@b.com", Password: "wrong"}); !apperr.Is(err, apperr.KindUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	if _, err := svc.SignIn(ctx, transport.SignInRequest{Email: "nobody@b.com", Password: "x"}); !apperr.Is(err, apperr.KindUnauthorized) {
		t.Fatalf("expected unauthorized for unknown email, got %v", err)
	}
	if _, err := svc.SignIn(ctx, transport.SignInRequest{Email: "A@B.com", Password: "supersecret"}); err != nil {
		t.Fatalf("expected sign in, got %v", err)
	}
}

func TestChangePassword(t *testing.T) {
	svc, repo, _ := newTestService()
	ctx := context.Background()
	if _, err := svc.SignUp(ctx, transport.SignUpRequest{Email: "a@b.com", Password: "supersecret"}); err != nil {
		t.Fatalf("sign up: %v", err)
	}
	user := repo.users["a@b.com"]

	err := svc.ChangePassword(ctx, user.ID, transport.ChangePasswordRequest{CurrentPassword: "bad", NewPassword: "newsecret1"})
	if !apperr.Is(err, apperr.KindUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}

	if err := svc.ChangePassword(ctx, user.ID, transport.ChangePasswordRequest{CurrentPassword: "supersecret", NewPassword: "newsecret1"}); err != nil {
		t.Fatalf("change password: %v", err)
	}
	if err := password.Compare(repo.users["a@b.com"].PasswordHash, "newsecret1"); err != nil {
		t.Fatalf("expected new password stored: %v", err)
	}
}
