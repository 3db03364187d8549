package session

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/printdesk/backend-print/internal/pricing"
)

func testStore(ttl time.Duration) *Store {
	return NewStore(ttl, pricing.DefaultPolicy(), nil, nil)
}

func TestCreateWiresComposition(t *testing.T) {
	store := testStore(time.Minute)
	sess := store.Create()
	require.NotNil(t, sess.Registry)
	require.NotNil(t, sess.Aggregator)
	require.NotNil(t, sess.Bridge)

	// The aggregator is already observing the registry.
	_, err := sess.Registry.Register("a.pdf", 10, 3)
	require.NoError(t, err)
	require.Equal(t, pricing.Money(9), sess.Aggregator.CurrentOrder().TotalAmount())
}

func TestSessionsAreIsolated(t *testing.T) {
	store := testStore(time.Minute)
	a := store.Create()
	b := store.Create()

	_, err := a.Registry.Register("a.pdf", 10, 5)
	require.NoError(t, err)
	require.Equal(t, 1, a.Registry.Len())
	require.Zero(t, b.Registry.Len())
	require.Zero(t, b.Aggregator.CurrentOrder().TotalAmount())
}

func TestGetExtendsTTL(t *testing.T) {
	now := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	store := testStore(10 * time.Minute)
	store.Now = func() time.Time { return now }

	sess := store.Create()
	now = now.Add(8 * time.Minute)
	_, err := store.Get(sess.ID)
	require.NoError(t, err)

	expires, ok := store.ExpiresAt(sess.ID)
	require.True(t, ok)
	require.Equal(t, now.Add(10*time.Minute), expires)
}

func TestGetExpiredSession(t *testing.T) {
	now := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	store := testStore(10 * time.Minute)
	store.Now = func() time.Time { return now }

	sess := store.Create()
	now = now.Add(11 * time.Minute)
	_, err := store.Get(sess.ID)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestEnsureRebuildsExpiredSession(t *testing.T) {
	now := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	store := testStore(10 * time.Minute)
	store.Now = func() time.Time { return now }

	sess := store.Create()
	_, err := sess.Registry.Register("a.pdf", 10, 1)
	require.NoError(t, err)

	now = now.Add(11 * time.Minute)
	fresh, created := store.Ensure(sess.ID)
	require.True(t, created)
	require.Equal(t, sess.ID, fresh.ID)
	// Expired state is gone; the rebuilt session starts empty.
	require.Zero(t, fresh.Registry.Len())
}

func TestSweepEvictsOnlyExpired(t *testing.T) {
	now := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	store := testStore(10 * time.Minute)
	store.Now = func() time.Time { return now }

	old := store.Create()
	now = now.Add(9 * time.Minute)
	fresh := store.Create()
	now = now.Add(2 * time.Minute)

	removed := store.Sweep()
	require.Equal(t, 1, removed)
	require.Equal(t, 1, store.Len())

	_, err := store.Get(old.ID)
	require.ErrorIs(t, err, ErrNotFound)
	_, err = store.Get(fresh.ID)
	require.NoError(t, err)
}

func TestMiddlewareCreatesSessionWhenHeaderMissing(t *testing.T) {
	store := testStore(time.Minute)
	var resolved *Session
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resolved, _ = FromContext(r.Context())
	})

	rec := httptest.NewRecorder()
	store.Middleware(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/order", nil))

	require.NotNil(t, resolved)
	require.Equal(t, resolved.ID.String(), rec.Header().Get(HeaderSessionID))
	require.Equal(t, 1, store.Len())
}

func TestMiddlewareReusesExistingSession(t *testing.T) {
	store := testStore(time.Minute)
	sess := store.Create()
	_, err := sess.Registry.Register("a.pdf", 10, 1)
	require.NoError(t, err)

	var resolved *Session
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resolved, _ = FromContext(r.Context())
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/order", nil)
	req.Header.Set(HeaderSessionID, sess.ID.String())
	store.Middleware(next).ServeHTTP(httptest.NewRecorder(), req)

	require.NotNil(t, resolved)
	require.Equal(t, sess.ID, resolved.ID)
	require.Equal(t, 1, resolved.Registry.Len())
}

func TestMiddlewareRejectsGarbledHeaderWithFreshSession(t *testing.T) {
	store := testStore(time.Minute)
	var resolved *Session
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resolved, _ = FromContext(r.Context())
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/order", nil)
	req.Header.Set(HeaderSessionID, "not-a-uuid")
	rec := httptest.NewRecorder()
	store.Middleware(next).ServeHTTP(rec, req)

	require.NotNil(t, resolved)
	parsed, err := uuid.Parse(rec.Header().Get(HeaderSessionID))
	require.NoError(t, err)
	require.Equal(t, resolved.ID, parsed)
}

func TestResolversRequireMiddleware(t *testing.T) {
	store := testStore(time.Minute)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/order", nil)
	_, err := store.Registry(req)
	require.Error(t, err)
	_, err = store.Aggregator(req)
	require.Error(t, err)
	_, err = store.Bridge(req)
	require.Error(t, err)
}
