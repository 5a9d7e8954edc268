package geo

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"p2000-receiver/internal/models"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"
)

// DefaultOpenCageURL is the public OpenCage endpoint.
const DefaultOpenCageURL = "https://api.opencagedata.com"

var (
	// ErrRateLimited means the daily quota or request rate was exceeded.
	ErrRateLimited = errors.New("geocoder rate limit exceeded")
	// ErrInvalidInput means the geocoder rejected the query.
	ErrInvalidInput = errors.New("geocoder rejected input")
	// ErrNoResult means the query was valid but matched nothing.
	ErrNoResult = errors.New("geocoder returned no result")
)

// Geocoder resolves one address remotely.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (models.GeoCacheEntry, error)
}

// OpenCageConfig configures OpenCageClient.
type OpenCageConfig struct {
	BaseURL     string
	Token       string
	CountryCode string
	// RequestsPerSecond spaces consecutive calls; <= 0 disables spacing.
	RequestsPerSecond float64
	Timeout           time.Duration
}

type openCageResponse struct {
	Status struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"status"`
	Results []struct {
		Geometry struct {
			Lat float64 `json:"lat"`
			Lng float64 `json:"lng"`
		} `json:"geometry"`
		Annotations struct {
			OSM struct {
				URL string `json:"url"`
			} `json:"OSM"`
		} `json:"annotations"`
	} `json:"results"`
}

// OpenCageClient is a Geocoder backed by the OpenCage forward geocoding API.
type OpenCageClient struct {
	httpClient *resty.Client
	token      string
	country    string
	limiter    *rate.Limiter
}

// NewOpenCageClient creates a client. No retries are configured; a failed
// lookup is reported once.
func NewOpenCageClient(cfg OpenCageConfig) *OpenCageClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultOpenCageURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetHeader("Accept", "application/json")

	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}

	return &OpenCageClient{
		httpClient: client,
		token:      cfg.Token,
		country:    cfg.CountryCode,
		limiter:    limiter,
	}
}

// Geocode looks up address and returns the first result.
func (c *OpenCageClient) Geocode(ctx context.Context, address string) (models.GeoCacheEntry, error) {
	if strings.TrimSpace(address) == "" {
		return models.GeoCacheEntry{}, ErrInvalidInput
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return models.GeoCacheEntry{}, fmt.Errorf("geocoder rate wait: %w", err)
	}

	req := c.httpClient.R().
		SetContext(ctx).
		SetQueryParam("q", address).
		SetQueryParam("key", c.token).
		SetQueryParam("limit", "1")
	if c.country != "" {
		req.SetQueryParam("countrycode", c.country)
	}

	var result openCageResponse
	resp, err := req.
		SetResult(&result).
		SetError(&result).
		Get("/geocode/v1/json")
	if err != nil {
		return models.GeoCacheEntry{}, fmt.Errorf("failed to call geocoder: %w", err)
	}

	switch resp.StatusCode() {
	case http.StatusOK:
	case http.StatusPaymentRequired, http.StatusTooManyRequests:
		return models.GeoCacheEntry{}, fmt.Errorf("%w: %s", ErrRateLimited, result.Status.Message)
	case http.StatusBadRequest:
		return models.GeoCacheEntry{}, fmt.Errorf("%w: %s", ErrInvalidInput, result.Status.Message)
	default:
		return models.GeoCacheEntry{}, fmt.Errorf("geocoder returned status %d: %s", resp.StatusCode(), result.Status.Message)
	}

	if len(result.Results) == 0 {
		return models.GeoCacheEntry{}, ErrNoResult
	}

	first := result.Results[0]
	return models.GeoCacheEntry{
		Address:   address,
		Latitude:  first.Geometry.Lat,
		Longitude: first.Geometry.Lng,
		MapURL:    first.Annotations.OSM.URL,
	}, nil
}
