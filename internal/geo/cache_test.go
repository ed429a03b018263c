package geo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"LinkTelemetry-Dashboard/internal/domain"
)

const testDataset = `city,city_ascii,lat,lng,country
Paris,Paris,48.8566,2.3522,France
Berlin,Berlin,52.5200,13.4050,Germany
Nowhere,Nowhere,not-a-number,13.4,Germany
Halfrow,Halfrow,1.0
Tokyo,Tokyo,35.6762,139.6503,Japan
,Blank,10.0,10.0,France
`

func newTestCache(t *testing.T, handler http.HandlerFunc) (*ReferenceCache, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewReferenceCache(srv.URL, 5*time.Second, zap.NewNop()), srv
}

func TestReferenceCache_Load(t *testing.T) {
	t.Run("parses rows and skips malformed ones", func(t *testing.T) {
		cache, _ := newTestCache(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(testDataset))
		})

		records, err := cache.Load(context.Background())
		require.NoError(t, err)

		// Non-numeric lat, short row and blank city are skipped.
		require.Len(t, records, 3)
		assert.Equal(t, domain.CityRecord{Name: "Paris", Country: "France", Lat: 48.8566, Lng: 2.3522}, records[0])
		assert.True(t, cache.Loaded())
	})

	t.Run("fetches at most once", func(t *testing.T) {
		var fetches int32
		cache, _ := newTestCache(t, func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&fetches, 1)
			_, _ = w.Write([]byte(testDataset))
		})

		var wg sync.WaitGroup
		for i := 0; i < 16; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := cache.Load(context.Background())
				assert.NoError(t, err)
			}()
		}
		wg.Wait()

		// A later call is served from memory.
		_, err := cache.Load(context.Background())
		require.NoError(t, err)

		assert.Equal(t, int32(1), atomic.LoadInt32(&fetches))
	})

	t.Run("network failure reports dataset unavailable", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		srv.Close() // connection refused from here on
		cache := NewReferenceCache(srv.URL, time.Second, zap.NewNop())

		_, err := cache.Load(context.Background())
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrDatasetUnavailable)
		assert.False(t, cache.Loaded())
	})

	t.Run("non-200 status reports dataset unavailable", func(t *testing.T) {
		cache, _ := newTestCache(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		})

		_, err := cache.Load(context.Background())
		assert.ErrorIs(t, err, ErrDatasetUnavailable)
	})

	t.Run("missing required header column fails the load", func(t *testing.T) {
		cache, _ := newTestCache(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("city,lat,country\nParis,48.8,France\n"))
		})

		_, err := cache.Load(context.Background())
		assert.ErrorIs(t, err, ErrDatasetUnavailable)
	})

	t.Run("failed load can be retried", func(t *testing.T) {
		var fail int32 = 1
		cache, _ := newTestCache(t, func(w http.ResponseWriter, r *http.Request) {
			if atomic.LoadInt32(&fail) == 1 {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			_, _ = w.Write([]byte(testDataset))
		})

		_, err := cache.Load(context.Background())
		require.ErrorIs(t, err, ErrDatasetUnavailable)

		atomic.StoreInt32(&fail, 0)
		records, err := cache.Load(context.Background())
		require.NoError(t, err)
		assert.Len(t, records, 3)
	})
}

func TestReferenceCache_Lookup(t *testing.T) {
	cache, _ := newTestCache(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("city,lat,lng,country\n" +
			"Berlin,52.52,13.405,Germany\n" +
			"Berlin,0,0,Germany\n"))
	})

	t.Run("miss before load", func(t *testing.T) {
		_, ok := cache.Lookup("Germany", "Berlin")
		assert.False(t, ok)
	})

	_, err := cache.Load(context.Background())
	require.NoError(t, err)

	t.Run("hit after load keeps first duplicate", func(t *testing.T) {
		coord, ok := cache.Lookup("Germany", "Berlin")
		require.True(t, ok)
		assert.Equal(t, domain.Coordinate{Lat: 52.52, Lng: 13.405}, coord)
	})

	t.Run("case sensitive", func(t *testing.T) {
		_, ok := cache.Lookup("germany", "Berlin")
		assert.False(t, ok)
	})
}
