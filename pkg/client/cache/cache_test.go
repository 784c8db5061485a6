package cache

import (
	"context"
	"os"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/clinic-directory/internal/model"
)

func TestKeyIsCanonical(t *testing.T) {
	a := Key(model.SearchFilters{
		City:       "  Los Angeles ",
		ServiceIDs: []string{"SRV003", "SRV001", "SRV003"},
	})
	b := Key(model.SearchFilters{
		ServiceIDs: []string{"SRV001", " SRV003"},
		City:       "los angeles",
		State:      "   ",
	})
	assert.Equal(t, a, b)
	assert.Equal(t, "city=los+angeles&services=SRV001%2CSRV003", a)

	assert.Equal(t, "", Key(model.SearchFilters{}))
	assert.NotEqual(t, Key(model.SearchFilters{City: "chicago"}), Key(model.SearchFilters{State: "chicago"}))
	assert.NotEqual(t, Key(model.SearchFilters{ServiceIDs: []string{"SRV001"}}), Key(model.SearchFilters{ServiceIDs: []string{"SRV001", "SRV002"}}))
}

func TestKeySplitsJoinedServiceIDs(t *testing.T) {
	want := Key(model.SearchFilters{ServiceIDs: []string{"SRV001", "SRV002"}})

	for _, ids := range [][]string{
		{"SRV002,SRV001"},
		{"SRV001, SRV002,"},
		{"SRV002", "SRV001,SRV002"},
	} {
		assert.Equal(t, want, Key(model.SearchFilters{ServiceIDs: ids}), "%q", ids)
	}
	assert.Equal(t, "services=SRV001%2CSRV002", want)
}

func sample() []*model.Clinic {
	lat := 41.8781
	return []*model.Clinic{{
		ID:         "CL202200003",
		ClinicName: "Community Care Clinic",
		City:       "Chicago",
		Latitude:   &lat,
		Services: []*model.ClinicService{
			{ServiceID: "SRV004", ServiceName: "COVID-19 Test", Price: 75, IsActive: true},
		},
	}}
}

func exerciseStore(t *testing.T, store Store) {
	ctx := context.Background()
	c := New(store)
	key := Key(model.SearchFilters{City: "Chicago"})

	_, ok := c.Get(ctx, key)
	assert.False(t, ok)

	require.NoError(t, c.Put(ctx, key, sample()))
	got, ok := c.Get(ctx, key)
	require.True(t, ok)
	assert.Equal(t, sample()[0].ID, got[0].ID)
	assert.Equal(t, 41.8781, *got[0].Latitude)
	assert.Equal(t, sample()[0].Services, got[0].Services)

	require.NoError(t, c.Put(ctx, Key(model.SearchFilters{City: "Nowhere"}), nil))
	empty, ok := c.Get(ctx, Key(model.SearchFilters{City: "nowhere"}))
	require.True(t, ok)
	assert.Empty(t, empty)
	assert.NotNil(t, empty)

	stats, err := c.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Size)
	assert.Equal(t, []string{"city=chicago", "city=nowhere"}, stats.Keys)
	assert.Equal(t, int64(2), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)

	require.NoError(t, c.Clear(ctx))
	_, ok = c.Get(ctx, key)
	assert.False(t, ok)

	stats, err = c.Stats(ctx)
	require.NoError(t, err)
	assert.Zero(t, stats.Size)
	assert.Empty(t, stats.Keys)
	assert.Equal(t, int64(2), stats.Misses)
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

func TestNilStoreDefaultsToMemory(t *testing.T) {
	exerciseStore(t, nil)
}

func TestRedisStore(t *testing.T) {
	srv := miniredis.RunT(t)
	exerciseRedisStores(t, "redis://"+srv.Addr())
}

// TestRedisStoreLive runs the same checks against a real server when
// REDIS_URL is set.
func TestRedisStoreLive(t *testing.T) {
	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("REDIS_URL not set")
	}
	exerciseRedisStores(t, url)
}

func TestRedisStoreWithClient(t *testing.T) {
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	store := NewRedisStoreWithClient(client, "s1")
	t.Cleanup(func() { store.Close() })

	exerciseStore(t, store)
	require.NoError(t, store.Set(context.Background(), "city=chicago", []byte(`[]`)))
	assert.True(t, srv.Exists("clinic-directory:cache:s1:city=chicago"))
}

func exerciseRedisStores(t *testing.T, url string) {
	t.Helper()
	ctx := context.Background()

	store, err := NewRedisStore(ctx, url, uuid.NewString())
	require.NoError(t, err)
	t.Cleanup(func() {
		store.Flush(ctx)
		store.Close()
	})

	other, err := NewRedisStore(ctx, url, uuid.NewString())
	require.NoError(t, err)
	t.Cleanup(func() {
		other.Flush(ctx)
		other.Close()
	})
	require.NoError(t, other.Set(ctx, "city=chicago", []byte(`[]`)))

	exerciseStore(t, store)

	keys, err := other.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"city=chicago"}, keys, "flushing one session must not touch another")
}

func TestRedisStoreNeedsSession(t *testing.T) {
	_, err := NewRedisStore(context.Background(), "redis://localhost:6379/0", "")
	assert.Error(t, err)
}
