package middleware

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"connectrpc.com/connect"

	"github.com/mmynk/fistein/internal/auth"
	"github.com/mmynk/fistein/internal/models"
)

type ping struct{}

func newRequest(authHeader string) *connect.Request[ping] {
	req := connect.NewRequest(&ping{})
	if authHeader != "" {
		req.Header().Set("Authorization", authHeader)
	}
	return req
}

// capture records the identity seen by the wrapped handler.
func capture(seen *string) connect.UnaryFunc {
	return func(ctx context.Context, _ connect.AnyRequest) (connect.AnyResponse, error) {
		*seen = GetUserID(ctx)
		return connect.NewResponse(&ping{}), nil
	}
}

func TestRequireAuth(t *testing.T) {
	jwtManager := auth.NewJWTManager("secret", time.Hour)
	token, err := jwtManager.Generate(&models.User{ID: "user-1", Email: "a@example.com"})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	tests := []struct {
		name     string
		header   string
		wantUser string
		wantCode connect.Code
	}{
		{name: "valid token", header: "Bearer " + token, wantUser: "user-1"},
		{name: "lowercase scheme", header: "bearer " + token, wantUser: "user-1"},
		{name: "missing header", wantCode: connect.CodeUnauthenticated},
		{name: "wrong scheme", header: "Basic " + token, wantCode: connect.CodeUnauthenticated},
		{name: "bad token", header: "Bearer nope", wantCode: connect.CodeUnauthenticated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen string
			handler := RequireAuth(jwtManager)(capture(&seen))

			_, err := handler(context.Background(), newRequest(tt.header))
			if tt.wantCode != 0 {
				if connect.CodeOf(err) != tt.wantCode {
					t.Fatalf("expected %v, got %v", tt.wantCode, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if seen != tt.wantUser {
				t.Errorf("expected user %q, got %q", tt.wantUser, seen)
			}
		})
	}
}

func TestOptionalAuthLetsAnonymousThrough(t *testing.T) {
	jwtManager := auth.NewJWTManager("secret", time.Hour)

	for _, header := range []string{"", "Bearer garbage"} {
		seen := "unset"
		_, err := OptionalAuth(jwtManager)(capture(&seen))(context.Background(), newRequest(header))
		if err != nil {
			t.Fatalf("header %q: unexpected error: %v", header, err)
		}
		if seen != "" {
			t.Errorf("header %q: expected anonymous caller, got %q", header, seen)
		}
	}
}

func TestLoggingInterceptor(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	failing := func(context.Context, connect.AnyRequest) (connect.AnyResponse, error) {
		return nil, connect.NewError(connect.CodeNotFound, errors.New("group not found"))
	}
	ctx := WithUser(context.Background(), "user-1", "a@example.com")

	_, err := LoggingInterceptor(logger)(failing)(ctx, newRequest(""))
	if connect.CodeOf(err) != connect.CodeNotFound {
		t.Fatalf("expected error to pass through, got %v", err)
	}

	out := buf.String()
	for _, want := range []string{"level=WARN", "user_id=user-1", "code=not_found"} {
		if !strings.Contains(out, want) {
			t.Errorf("log line missing %q: %s", want, out)
		}
	}
}
