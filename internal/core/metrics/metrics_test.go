package metrics

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestRecordEvaluation(t *testing.T) {
	before := testutil.ToFloat64(evaluations.WithLabelValues("matched"))
	RecordEvaluation(true, 3)
	RecordEvaluation(false, 1)
	after := testutil.ToFloat64(evaluations.WithLabelValues("matched"))

	if after-before != 1 {
		t.Errorf("matched evaluations increased by %v, want 1", after-before)
	}
}

func TestSetCachedPatterns(t *testing.T) {
	SetCachedPatterns(7)
	if got := testutil.ToFloat64(cachedPatterns); got != 7 {
		t.Errorf("cached_patterns = %v, want 7", got)
	}
}

func TestUnaryInterceptor(t *testing.T) {
	interceptor := UnaryInterceptor()
	info := &grpc.UnaryServerInfo{FullMethod: "/eventtrail.v1.MatchAPI/Evaluate"}

	_, err := interceptor(context.Background(), nil, info, func(ctx context.Context, req any) (any, error) {
		return nil, status.Error(codes.InvalidArgument, "bad")
	})
	if status.Code(err) != codes.InvalidArgument {
		t.Fatalf("interceptor changed error: %v", err)
	}

	if n := testutil.CollectAndCount(rpcDuration, "eventtrail_grpc_request_duration_seconds"); n == 0 {
		t.Errorf("no request duration series recorded")
	}
}

func TestHandler(t *testing.T) {
	RecordCompileError()

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "eventtrail_matcher_compile_errors_total") {
		t.Errorf("metrics output missing compile_errors_total")
	}
}

func TestServer_ShutdownBeforeStart(t *testing.T) {
	s := NewServer("127.0.0.1:0")
	if err := s.Shutdown(context.Background()); err != nil && !errors.Is(err, http.ErrServerClosed) {
		t.Errorf("Shutdown() error = %v", err)
	}
}
