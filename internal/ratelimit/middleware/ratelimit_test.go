package middleware_test

//go:generate mockgen -source=ratelimit.go -destination=mocks/mocks.go -package=mocks BucketStore

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"trustgate/internal/ratelimit/metrics"
	"trustgate/internal/ratelimit/middleware"
	"trustgate/internal/ratelimit/middleware/mocks"
	"trustgate/internal/ratelimit/models"
	"trustgate/internal/ratelimit/store/bucket"
	"trustgate/pkg/platform/middleware/metadata"
	"trustgate/pkg/testutil"
)

type RateLimitSuite struct {
	suite.Suite
	limit   models.Limit
	metrics *metrics.Metrics
	hits    int
}

func TestRateLimitSuite(t *testing.T) {
	suite.Run(t, new(RateLimitSuite))
}

func (s *RateLimitSuite) SetupTest() {
	s.limit = models.Limit{Requests: 2, Window: time.Minute}
	s.metrics = metrics.NewWithRegistry(prometheus.NewRegistry())
	s.hits = 0
}

func (s *RateLimitSuite) handler(store middleware.BucketStore, opts ...middleware.Option) http.Handler {
	opts = append(opts, middleware.WithMetrics(s.metrics))
	m := middleware.New(store, s.limit, opts...)
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		s.hits++
		w.WriteHeader(http.StatusNoContent)
	})
	return metadata.ClientMetadata(m.RateLimit(next))
}

func (s *RateLimitSuite) fromIP(h http.Handler, ip string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/verification/submissions", nil)
	req.Header.Set("X-Forwarded-For", ip)
	return testutil.DoRequest(h, req)
}

func (s *RateLimitSuite) TestRejectsOverLimit() {
	h := s.handler(bucket.NewInMemoryBucketStore())

	first := s.fromIP(h, "203.0.113.7")
	s.Equal(http.StatusNoContent, first.Code)
	s.Equal("2", first.Header().Get("X-RateLimit-Limit"))
	s.Equal("1", first.Header().Get("X-RateLimit-Remaining"))

	s.fromIP(h, "203.0.113.7")
	rr := s.fromIP(h, "203.0.113.7")

	s.Equal(http.StatusTooManyRequests, rr.Code)
	s.NotEmpty(rr.Header().Get("Retry-After"))
	body := testutil.UnmarshalResponse[models.ExceededResponse](s.T(), rr)
	s.Equal("rate_limit_exceeded", body.Error)
	s.Positive(body.RetryAfter)
	s.Equal(2, s.hits)

	s.InDelta(2, promtest.ToFloat64(s.metrics.Checks.WithLabelValues("allowed")), 0)
	s.InDelta(1, promtest.ToFloat64(s.metrics.Checks.WithLabelValues("rejected")), 0)
}

func (s *RateLimitSuite) TestLimitsEachIPSeparately() {
	h := s.handler(bucket.NewInMemoryBucketStore())
	for range 3 {
		s.fromIP(h, "203.0.113.7")
	}
	rr := s.fromIP(h, "198.51.100.1")
	s.Equal(http.StatusNoContent, rr.Code)
}

func (s *RateLimitSuite) TestStoreFailureLetsRequestThrough() {
	ctrl := gomock.NewController(s.T())
	store := mocks.NewMockBucketStore(ctrl)
	store.EXPECT().
		Allow(gomock.Any(), models.IPKey("203.0.113.7"), s.limit).
		Return(nil, errors.New("redis down"))

	rr := s.fromIP(s.handler(store), "203.0.113.7")

	s.Equal(http.StatusNoContent, rr.Code)
	s.Empty(rr.Header().Get("X-RateLimit-Limit"))
	s.InDelta(1, promtest.ToFloat64(s.metrics.StoreFailures), 0)
}

func (s *RateLimitSuite) TestDisabledSkipsStore() {
	ctrl := gomock.NewController(s.T())
	store := mocks.NewMockBucketStore(ctrl)

	h := s.handler(store, middleware.WithDisabled(true))
	for range 5 {
		s.Equal(http.StatusNoContent, s.fromIP(h, "203.0.113.7").Code)
	}
}

func (s *RateLimitSuite) TestNilMiddlewarePassesThrough() {
	var m *middleware.Middleware
	called := false
	h := m.RateLimit(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { called = true }))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	s.True(called)
}
