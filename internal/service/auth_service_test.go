package service

import (
	"context"
	"testing"

	"connectrpc.com/connect"

	"github.com/mmynk/fintrack/pkg/api"
)

func TestRegisterAndLogin(t *testing.T) {
	env := setupTestServer(t)
	ctx := context.Background()

	alice := env.register(t, "Alice@Example.com", "Alice")
	if alice.id == "" || alice.token == "" {
		t.Fatalf("expected user id and token, got %+v", alice)
	}

	t.Run("login", func(t *testing.T) {
		resp, err := env.auth.Login(ctx, connect.NewRequest(&api.LoginRequest{
			Email:    "alice@example.com",
			Password: "correct-horse",
		}))
		if err != nil {
			t.Fatalf("Login failed: %v", err)
		}
		if resp.Msg.User.Id != alice.id {
			t.Errorf("expected user %s, got %s", alice.id, resp.Msg.User.Id)
		}
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := env.auth.Login(ctx, connect.NewRequest(&api.LoginRequest{
			Email:    "alice@example.com",
			Password: "wrong-password",
		}))
		assertCode(t, err, connect.CodeUnauthenticated)
	})

	t.Run("duplicate email", func(t *testing.T) {
		_, err := env.auth.Register(ctx, connect.NewRequest(&api.RegisterRequest{
			Email:       "alice@example.com",
			DisplayName: "Alice Again",
			Password:    "correct-horse",
		}))
		assertCode(t, err, connect.CodeAlreadyExists)
	})

	t.Run("current user", func(t *testing.T) {
		resp, err := env.auth.GetCurrentUser(ctx, as(alice, &api.GetCurrentUserRequest{}))
		if err != nil {
			t.Fatalf("GetCurrentUser failed: %v", err)
		}
		if resp.Msg.User.Email != "alice@example.com" || resp.Msg.User.DisplayName != "Alice" {
			t.Errorf("unexpected user: %+v", resp.Msg.User)
		}
	})

	t.Run("missing token", func(t *testing.T) {
		_, err := env.auth.GetCurrentUser(ctx, connect.NewRequest(&api.GetCurrentUserRequest{}))
		assertCode(t, err, connect.CodeUnauthenticated)
	})

	t.Run("bad token", func(t *testing.T) {
		_, err := env.auth.GetCurrentUser(ctx, as(testUser{token: "not-a-jwt"}, &api.GetCurrentUserRequest{}))
		assertCode(t, err, connect.CodeUnauthenticated)
	})
}
