package metrics

import (
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"connectrpc.com/connect"
	"github.com/prometheus/client_golang/prometheus"
)

type ping struct{}

func TestInterceptorCountsByCode(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	ok := func(context.Context, connect.AnyRequest) (connect.AnyResponse, error) {
		return connect.NewResponse(&ping{}), nil
	}
	denied := func(context.Context, connect.AnyRequest) (connect.AnyResponse, error) {
		return nil, connect.NewError(connect.CodePermissionDenied, errors.New("no"))
	}

	ctx := context.Background()
	for range 2 {
		if _, err := m.Interceptor()(ok)(ctx, connect.NewRequest(&ping{})); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if _, err := m.Interceptor()(denied)(ctx, connect.NewRequest(&ping{})); err == nil {
		t.Fatal("expected error to pass through")
	}
	m.SharesSettled(3)
	m.SharesSettled(0)
	m.ExpenseRecorded("EQUAL")

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	out := string(body)

	for _, want := range []string{
		`fistein_rpc_requests_total{code="ok",procedure=""} 2`,
		`fistein_rpc_requests_total{code="permission_denied",procedure=""} 1`,
		`fistein_shares_settled_total 3`,
		`fistein_expenses_recorded_total{policy="EQUAL"} 1`,
		`fistein_rpc_duration_seconds_count{procedure=""} 3`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.SharesSettled(1)
	m.ExpenseRecorded("EXACT")

	handler := m.Interceptor()(func(context.Context, connect.AnyRequest) (connect.AnyResponse, error) {
		return connect.NewResponse(&ping{}), nil
	})
	if _, err := handler(context.Background(), connect.NewRequest(&ping{})); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
