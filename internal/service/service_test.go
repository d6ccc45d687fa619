package service

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"connectrpc.com/connect"
	"golang.org/x/crypto/bcrypt"

	"github.com/mmynk/fintrack/internal/auth"
	"github.com/mmynk/fintrack/internal/middleware"
	"github.com/mmynk/fintrack/internal/storage/sqlite"
	"github.com/mmynk/fintrack/pkg/api"
	"github.com/mmynk/fintrack/pkg/api/apiconnect"
	"github.com/mmynk/fintrack/pkg/logging"
)

type testEnv struct {
	auth   apiconnect.AuthServiceClient
	groups apiconnect.GroupServiceClient
	ledger apiconnect.LedgerServiceClient
}

// setupTestServer wires all three services over a temp SQLite database,
// behind the same auth interceptor the server uses.
func setupTestServer(t *testing.T) *testEnv {
	t.Helper()

	store, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}

	logger := logging.New(io.Discard, "error", "text")
	tokens := auth.NewJWTManager("test-secret-0123456789", time.Hour)
	authenticator := auth.NewPasswordAuthenticator(store, bcrypt.MinCost)

	interceptors := connect.WithInterceptors(
		middleware.RequireAuth(tokens,
			apiconnect.AuthServiceRegisterProcedure,
			apiconnect.AuthServiceLoginProcedure,
			apiconnect.LedgerServicePreviewSplitProcedure,
		),
		middleware.OptionalAuth(tokens),
	)

	mux := http.NewServeMux()
	mux.Handle(apiconnect.NewAuthServiceHandler(NewAuthService(authenticator, tokens, store, logger), interceptors))
	mux.Handle(apiconnect.NewGroupServiceHandler(NewGroupService(store, logger), interceptors))
	mux.Handle(apiconnect.NewLedgerServiceHandler(NewLedgerService(store, logger, nil), interceptors))

	server := httptest.NewServer(mux)
	t.Cleanup(func() {
		server.Close()
		store.Close()
	})

	return &testEnv{
		auth:   apiconnect.NewAuthServiceClient(http.DefaultClient, server.URL),
		groups: apiconnect.NewGroupServiceClient(http.DefaultClient, server.URL),
		ledger: apiconnect.NewLedgerServiceClient(http.DefaultClient, server.URL),
	}
}

type testUser struct {
	id    string
	token string
}

func (e *testEnv) register(t *testing.T, email, name string) testUser {
	t.Helper()
	resp, err := e.auth.Register(context.Background(), connect.NewRequest(&api.RegisterRequest{
		Email:       email,
		DisplayName: name,
		Password:    "correct-horse",
	}))
	if err != nil {
		t.Fatalf("Register(%s) failed: %v", email, err)
	}
	return testUser{id: resp.Msg.User.Id, token: resp.Msg.Token}
}

// as builds a request carrying u's bearer token.
func as[T any](u testUser, msg *T) *connect.Request[T] {
	req := connect.NewRequest(msg)
	req.Header().Set("Authorization", "Bearer "+u.token)
	return req
}

func assertCode(t *testing.T, err error, want connect.Code) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %v error, got nil", want)
	}
	if got := connect.CodeOf(err); got != want {
		t.Fatalf("expected code %v, got %v (%v)", want, got, err)
	}
}

// trio registers alice, bob and carol and puts them in one group with alice as admin.
func (e *testEnv) trio(t *testing.T) (group *api.Group, alice, bob, carol testUser) {
	t.Helper()
	alice = e.register(t, "alice@example.com", "Alice")
	bob = e.register(t, "bob@example.com", "Bob")
	carol = e.register(t, "carol@example.com", "Carol")

	resp, err := e.groups.CreateGroup(context.Background(), as(alice, &api.CreateGroupRequest{
		Name:         "Trip",
		MemberEmails: []string{"bob@example.com", "carol@example.com"},
	}))
	if err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}
	return resp.Msg.Group, alice, bob, carol
}
