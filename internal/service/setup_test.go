package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/crypto/bcrypt"

	"github.com/mmynk/fistein/internal/auth"
	"github.com/mmynk/fistein/internal/ledger"
	"github.com/mmynk/fistein/internal/metrics"
	"github.com/mmynk/fistein/internal/middleware"
	"github.com/mmynk/fistein/internal/money"
	"github.com/mmynk/fistein/internal/storage/sqlite"
	"github.com/mmynk/fistein/pkg/api"
	"github.com/mmynk/fistein/pkg/api/apiconnect"
)

const testPassword = "password123"

type testServer struct {
	url   string
	store *sqlite.SQLiteStore
}

// setupTestServer starts every service behind the real auth interceptors,
// backed by a fresh SQLite database.
func setupTestServer(t *testing.T) *testServer {
	t.Helper()

	store, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	jwtManager := auth.NewJWTManager("test-secret-test-secret-test-secret", time.Hour)
	authenticator := auth.NewPasswordAuthenticator(store).WithCost(bcrypt.MinCost)
	m := metrics.New(prometheus.NewRegistry())
	core := NewLedger(store, ledger.NewService(), WithLogger(logger), WithMetrics(m))

	requireAuth := connect.WithInterceptors(m.Interceptor(), middleware.RequireAuth(jwtManager), middleware.LoggingInterceptor(logger))
	optionalAuth := connect.WithInterceptors(m.Interceptor(), middleware.OptionalAuth(jwtManager), middleware.LoggingInterceptor(logger))

	mux := http.NewServeMux()
	mux.Handle(apiconnect.NewAuthServiceHandler(NewAuthService(authenticator, jwtManager, logger), optionalAuth))
	mux.Handle(apiconnect.NewGroupServiceHandler(NewGroupService(core), requireAuth))
	mux.Handle(apiconnect.NewExpenseServiceHandler(NewExpenseService(core), requireAuth))

	server := httptest.NewServer(mux)
	t.Cleanup(func() {
		server.Close()
		store.Close()
	})

	return &testServer{url: server.URL, store: store}
}

// session is a signed-in user with clients that send their token.
type session struct {
	user     *api.User
	auth     apiconnect.AuthServiceClient
	groups   apiconnect.GroupServiceClient
	expenses apiconnect.ExpenseServiceClient
}

func (s *testServer) anonymous() apiconnect.AuthServiceClient {
	return apiconnect.NewAuthServiceClient(http.DefaultClient, s.url)
}

// register creates an account for name and signs it in.
func (s *testServer) register(t *testing.T, name string) *session {
	t.Helper()

	resp, err := s.anonymous().Register(context.Background(), connect.NewRequest(&api.RegisterRequest{
		Email:       name + "@example.com",
		DisplayName: name,
		Password:    testPassword,
	}))
	if err != nil {
		t.Fatalf("Register(%s) failed: %v", name, err)
	}
	return s.session(resp.Msg.User, resp.Msg.Token)
}

func (s *testServer) session(user *api.User, token string) *session {
	opt := connect.WithInterceptors(bearer(token))
	return &session{
		user:     user,
		auth:     apiconnect.NewAuthServiceClient(http.DefaultClient, s.url, opt),
		groups:   apiconnect.NewGroupServiceClient(http.DefaultClient, s.url, opt),
		expenses: apiconnect.NewExpenseServiceClient(http.DefaultClient, s.url, opt),
	}
}

func bearer(token string) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			req.Header().Set("Authorization", "Bearer "+token)
			return next(ctx, req)
		}
	}
}

func (s *session) id() string { return s.user.ID }

// createGroup creates a group owned by s with the given members.
func (s *session) createGroup(t *testing.T, name string, members ...*session) *api.Group {
	t.Helper()

	ids := make([]string, len(members))
	for i, m := range members {
		ids[i] = m.id()
	}
	resp, err := s.groups.CreateGroup(context.Background(), connect.NewRequest(&api.CreateGroupRequest{
		Name:      name,
		MemberIDs: ids,
	}))
	if err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}
	return resp.Msg.Group
}

// equalExpense records an EQUAL expense paid by s among participants.
func (s *session) equalExpense(t *testing.T, groupID, amount string, participants ...*session) *api.Expense {
	t.Helper()

	ids := make([]string, len(participants))
	for i, p := range participants {
		ids[i] = p.id()
	}
	resp, err := s.expenses.CreateExpense(context.Background(), connect.NewRequest(&api.CreateExpenseRequest{
		GroupID:        groupID,
		Description:    fmt.Sprintf("expense of %s", amount),
		Amount:         money.MustParse(amount),
		SplitType:      "EQUAL",
		ParticipantIDs: ids,
	}))
	if err != nil {
		t.Fatalf("CreateExpense failed: %v", err)
	}
	return resp.Msg.Expense
}

func (s *session) balances(t *testing.T, groupID string) *api.GetGroupBalancesResponse {
	t.Helper()

	resp, err := s.groups.GetGroupBalances(context.Background(), connect.NewRequest(&api.GetGroupBalancesRequest{GroupID: groupID}))
	if err != nil {
		t.Fatalf("GetGroupBalances failed: %v", err)
	}
	return resp.Msg
}

// nets maps user ID to net balance string.
func nets(resp *api.GetGroupBalancesResponse) map[string]string {
	out := make(map[string]string, len(resp.Balances))
	for _, b := range resp.Balances {
		out[b.UserID] = b.Net.String()
	}
	return out
}

func shareOf(e *api.Expense, userID string) *api.Share {
	for _, s := range e.Shares {
		if s.UserID == userID {
			return s
		}
	}
	return nil
}

// sortedIDs returns the sessions' user IDs in ascending order.
func sortedIDs(sessions ...*session) []string {
	ids := make([]string, len(sessions))
	for i, s := range sessions {
		ids[i] = s.id()
	}
	slices.Sort(ids)
	return ids
}

func assertCode(t *testing.T, err error, want connect.Code) {
	t.Helper()

	if err == nil {
		t.Fatalf("expected %v error, got nil", want)
	}
	var connectErr *connect.Error
	if !errors.As(err, &connectErr) {
		t.Fatalf("expected connect error, got %T: %v", err, err)
	}
	if connectErr.Code() != want {
		t.Fatalf("expected code %v, got %v: %v", want, connectErr.Code(), connectErr.Message())
	}
}
