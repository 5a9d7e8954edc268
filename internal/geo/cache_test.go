package geo

import (
	"os"
	"path/filepath"
	"testing"

	"p2000-receiver/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestFileCache_CreatesAndReloads(t *testing.T) {
	path := filepath.Join(t.TempDir(), CacheFile)

	cache, err := OpenFileCache(path, zap.NewNop())
	require.NoError(t, err)
	assert.Zero(t, cache.Len())

	entry := models.GeoCacheEntry{Address: "Dam 1 Amsterdam", Latitude: 52.3731, Longitude: 4.8926, MapURL: "https://www.openstreetmap.org/?mlat=52.3731&mlon=4.8926"}
	require.NoError(t, cache.Append(entry))

	got, ok := cache.Lookup("Dam 1 Amsterdam")
	require.True(t, ok)
	assert.Equal(t, entry, got)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "address,latitude,longitude,url\n")
	assert.Contains(t, string(data), "Dam 1 Amsterdam,52.3731,4.8926,")

	reopened, err := OpenFileCache(path, zap.NewNop())
	require.NoError(t, err)
	got, ok = reopened.Lookup("Dam 1 Amsterdam")
	require.True(t, ok)
	assert.Equal(t, entry, got)
}

func TestFileCache_SkipsMalformedRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), CacheFile)
	require.NoError(t, os.WriteFile(path, []byte(
		"address,latitude,lontitude,url\n"+
			"Kerkstraat 1234AB Amsterdam,52.1,4.9,https://osm.example/1\n"+
			"broken,row\n"+
			"Dam Amsterdam,notanumber,4.9,\n"), 0o644))

	cache, err := OpenFileCache(path, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, 1, cache.Len())

	_, ok := cache.Lookup("Kerkstraat 1234AB Amsterdam")
	assert.True(t, ok)
}
