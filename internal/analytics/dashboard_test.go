package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/primavera-events/primavera/internal/platform/httpx"
)

type stubRepo struct {
	revenue      []MonthAmount
	events       []TypeCount
	clients      []TypeCount
	active       int
	leads        int
	err          error
	revenueCalls atomic.Int32
	lastFrom     time.Time
	lastTZ       string
}

func (s *stubRepo) MonthlyRevenue(_ context.Context, from, _ time.Time, tz string) ([]MonthAmount, error) {
	s.revenueCalls.Add(1)
	s.lastFrom = from
	s.lastTZ = tz
	return s.revenue, s.err
}

func (s *stubRepo) EventsByType(context.Context) ([]TypeCount, error)  { return s.events, nil }
func (s *stubRepo) ClientsByType(context.Context) ([]TypeCount, error) { return s.clients, nil }
func (s *stubRepo) ActiveProjects(context.Context) (int, error)        { return s.active, nil }
func (s *stubRepo) PendingLeads(context.Context) (int, error)          { return s.leads, nil }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newCachedService(t *testing.T, repo Repository) (*Service, *Cache) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	cache := NewCache(client, time.Minute, discardLogger())
	return NewService(repo, cache, time.UTC, discardLogger()), cache
}

func sampleRepo() *stubRepo {
	return &stubRepo{
		revenue: []MonthAmount{{Month: 1, Amount: 1500.5}, {Month: 12, Amount: 3000}},
		events:  []TypeCount{{Name: "Boda", Count: 4}, {Name: "", Count: 1}, {Name: "XV Años", Count: 2}},
		clients: []TypeCount{{Name: "ACTIVE", Count: 3}, {Name: "LEAD", Count: 5}},
		active:  6,
		leads:   5,
	}
}

func TestDashboardAggregates(t *testing.T) {
	svc := NewService(sampleRepo(), nil, time.UTC, discardLogger())

	d, err := svc.Dashboard(context.Background(), 2025)
	require.NoError(t, err)
	assert.Equal(t, MonthLabels, d.Revenue.Labels)
	require.Len(t, d.Revenue.Data, 12)
	assert.Equal(t, 1500.5, d.Revenue.Data[0])
	assert.Equal(t, 3000.0, d.Revenue.Data[11])
	assert.Equal(t, 0.0, d.Revenue.Data[5])
	assert.Equal(t, 4500.5, d.Metrics.TotalRevenue)
	assert.Equal(t, 6, d.Metrics.ActiveProjects)
	assert.Equal(t, 5, d.Metrics.PendingLeads)

	assert.Equal(t, []string{"Boda", "XV Años", OtherType}, d.EventStats.Labels)
	assert.Equal(t, []float64{4, 2, 1}, d.EventStats.Data)
	assert.Equal(t, []PipelineStage{{Name: "ACTIVE", Value: 3}, {Name: "LEAD", Value: 5}}, d.Pipeline)
}

func TestDashboardUsesBusinessLocation(t *testing.T) {
	loc := time.FixedZone("CST", -6*3600)
	repo := sampleRepo()
	svc := NewService(repo, nil, loc, discardLogger())

	_, err := svc.Dashboard(context.Background(), 2025)
	require.NoError(t, err)
	assert.True(t, repo.lastFrom.Equal(time.Date(2025, 1, 1, 6, 0, 0, 0, time.UTC)))
	assert.Equal(t, "CST", repo.lastTZ)
}

func TestDashboardMergesOtherType(t *testing.T) {
	series := eventSeries([]TypeCount{{Name: "", Count: 2}, {Name: OtherType, Count: 1}})
	assert.Equal(t, []string{OtherType}, series.Labels)
	assert.Equal(t, []float64{3}, series.Data)
}

func TestDashboardCachesUntilBump(t *testing.T) {
	repo := sampleRepo()
	svc, cache := newCachedService(t, repo)
	ctx := context.Background()

	_, err := svc.Dashboard(ctx, 2025)
	require.NoError(t, err)
	_, err = svc.Dashboard(ctx, 2025)
	require.NoError(t, err)
	assert.EqualValues(t, 1, repo.revenueCalls.Load())

	require.NoError(t, cache.Bump(ctx))
	repo.revenue = []MonthAmount{{Month: 3, Amount: 10}}
	d, err := svc.Dashboard(ctx, 2025)
	require.NoError(t, err)
	assert.EqualValues(t, 2, repo.revenueCalls.Load())
	assert.Equal(t, 10.0, d.Metrics.TotalRevenue)
}

func TestDashboardDoesNotCacheFailures(t *testing.T) {
	repo := sampleRepo()
	repo.err = errors.New("db down")
	svc, _ := newCachedService(t, repo)

	_, err := svc.Dashboard(context.Background(), 2025)
	require.Error(t, err)

	repo.err = nil
	_, err = svc.Dashboard(context.Background(), 2025)
	require.NoError(t, err)
	assert.EqualValues(t, 2, repo.revenueCalls.Load())
}

func TestDashboardRejectsYear(t *testing.T) {
	svc := NewService(sampleRepo(), nil, time.UTC, discardLogger())
	_, err := svc.Dashboard(context.Background(), 1999)
	assert.ErrorIs(t, err, httpx.ErrValidation)
}

func TestCacheVersionStartsAtOne(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	cache := NewCache(client, time.Minute, discardLogger())
	ctx := context.Background()

	key, err := cache.BuildKey(ctx, keyDashboard(2025))
	require.NoError(t, err)
	assert.Equal(t, "primavera:analytics:dashboard:2025:v1", key)

	require.NoError(t, cache.Bump(ctx))
	key, err = cache.BuildKey(ctx, keyDashboard(2025))
	require.NoError(t, err)
	assert.Equal(t, "primavera:analytics:dashboard:2025:v2", key)
}

func TestCacheSubscribeReceivesBumps(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	cache := NewCache(client, time.Minute, discardLogger())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan int64, 1)
	require.NoError(t, cache.Subscribe(ctx, func(v int64) { got <- v }))
	require.NoError(t, cache.Bump(ctx))

	select {
	case v := <-got:
		assert.EqualValues(t, 1, v)
	case <-time.After(2 * time.Second):
		t.Fatal("bump not delivered")
	}
}

func TestDashboardEndpoint(t *testing.T) {
	svc := NewService(sampleRepo(), nil, time.UTC, discardLogger())
	svc.now = func() time.Time { return time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC) }
	r := chi.NewRouter()
	r.Route("/api/analytics", NewHandler(discardLogger(), svc).MountRoutes)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/analytics/dashboard", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	var d Dashboard
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &d))
	assert.Equal(t, 2024, d.Year)

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/analytics/dashboard?year=2023", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"year":2023`)

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/analytics/dashboard?year=abc", nil))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
