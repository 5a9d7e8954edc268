package geo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenCageClient_Geocode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/geocode/v1/json", r.URL.Path)
		assert.Equal(t, "Dam 1 Amsterdam", r.URL.Query().Get("q"))
		assert.Equal(t, "secret", r.URL.Query().Get("key"))
		assert.Equal(t, "nl", r.URL.Query().Get("countrycode"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"status": {"code": 200, "message": "OK"},
			"results": [{
				"geometry": {"lat": 52.3731, "lng": 4.8926},
				"annotations": {"OSM": {"url": "https://www.openstreetmap.org/?mlat=52.3731&mlon=4.8926"}}
			}]
		}`))
	}))
	defer srv.Close()

	client := NewOpenCageClient(OpenCageConfig{BaseURL: srv.URL, Token: "secret", CountryCode: "nl"})
	entry, err := client.Geocode(context.Background(), "Dam 1 Amsterdam")
	require.NoError(t, err)

	assert.Equal(t, "Dam 1 Amsterdam", entry.Address)
	assert.Equal(t, 52.3731, entry.Latitude)
	assert.Equal(t, 4.8926, entry.Longitude)
	assert.Equal(t, "https://www.openstreetmap.org/?mlat=52.3731&mlon=4.8926", entry.MapURL)
}

func TestOpenCageClient_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{"quota", http.StatusPaymentRequired, `{"status":{"code":402,"message":"quota exceeded"},"results":[]}`, ErrRateLimited},
		{"too many", http.StatusTooManyRequests, `{"status":{"code":429,"message":"too many requests"},"results":[]}`, ErrRateLimited},
		{"invalid", http.StatusBadRequest, `{"status":{"code":400,"message":"invalid request"},"results":[]}`, ErrInvalidInput},
		{"empty", http.StatusOK, `{"status":{"code":200,"message":"OK"},"results":[]}`, ErrNoResult},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			client := NewOpenCageClient(OpenCageConfig{BaseURL: srv.URL, Token: "secret"})
			_, err := client.Geocode(context.Background(), "Dam 1 Amsterdam")
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestOpenCageClient_EmptyAddress(t *testing.T) {
	client := NewOpenCageClient(OpenCageConfig{BaseURL: "http://127.0.0.1:1"})
	_, err := client.Geocode(context.Background(), "  ")
	assert.ErrorIs(t, err, ErrInvalidInput)
}
