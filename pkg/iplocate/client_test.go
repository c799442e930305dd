package iplocate

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIPAPIProvider_Locate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/json", r.URL.Path)
		w.Write([]byte(`{"latitude": 35.2271, "longitude": -80.8431}`))
	}))
	defer srv.Close()

	loc, err := NewIPAPIProvider(srv.URL).Locate(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 35.2271, loc.Lat, 0.0001)
	assert.InDelta(t, -80.8431, loc.Lng, 0.0001)
}

func TestIPAPIProvider_EmptyCoordinates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	_, err := NewIPAPIProvider(srv.URL).Locate(context.Background())
	require.Error(t, err)
}

func TestIPInfoProvider_Locate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"loc": "35.2271,-80.8431"}`))
	}))
	defer srv.Close()

	loc, err := NewIPInfoProvider(srv.URL).Locate(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 35.2271, loc.Lat, 0.0001)
	assert.InDelta(t, -80.8431, loc.Lng, 0.0001)
}

func TestIPInfoProvider_MalformedLoc(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"loc": "not-a-coordinate"}`))
	}))
	defer srv.Close()

	_, err := NewIPInfoProvider(srv.URL).Locate(context.Background())
	require.Error(t, err)
}

func TestCascade_FallsBackToSecondProvider(t *testing.T) {
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer bad.Close()
	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"loc": "40.7128,-74.0060"}`))
	}))
	defer good.Close()

	c := NewCascade(NewIPAPIProvider(bad.URL), NewIPInfoProvider(good.URL))
	loc, err := c.Locate(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 40.7128, loc.Lat, 0.0001)
}

func TestCascade_AllProvidersFail(t *testing.T) {
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer bad.Close()

	c := NewCascade(NewIPAPIProvider(bad.URL), NewIPInfoProvider(bad.URL))
	_, err := c.Locate(context.Background())
	assert.ErrorIs(t, err, ErrUnavailable)
}
