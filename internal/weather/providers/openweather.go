package providers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/today-widgets/internal/weather"
)

// OpenWeatherProvider fetches the OpenWeatherMap 5-day / 3-hour forecast,
// the document the weather widget is built from.
type OpenWeatherProvider struct {
	name     string
	apiKey   string
	units    string
	location weather.Location
	baseURL  string
	httpCfg  HTTPClientConfig
	circuit  *gobreaker.CircuitBreaker
}

func NewOpenWeatherProvider(client *http.Client, apiKey, units string, loc weather.Location) *OpenWeatherProvider {
	return &OpenWeatherProvider{
		name:     "openweathermap",
		apiKey:   apiKey,
		units:    units,
		location: loc,
		baseURL:  "https://api.openweathermap.org/data/2.5/forecast",
		httpCfg: HTTPClientConfig{
			Client: client,
			Backoff: BackoffConfig{
				MaxRetries:      3,
				InitialInterval: 500 * time.Millisecond,
				MaxInterval:     5 * time.Second,
			},
		},
		circuit: newBreaker("openweather-forecast"),
	}
}

func (p *OpenWeatherProvider) Name() string {
	return p.name
}

// FetchForecast returns the raw forecast JSON for the configured location.
func (p *OpenWeatherProvider) FetchForecast(ctx context.Context) ([]byte, error) {
	if p.apiKey == "" {
		return nil, fmt.Errorf("openweather api key is not configured")
	}

	buildRequest := func(ctx context.Context) (*http.Request, error) {
		values := url.Values{}
		values.Set("appid", p.apiKey)
		values.Set("q", p.location.Key())
		if p.units != "" {
			values.Set("units", p.units)
		}
		return http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"?"+values.Encode(), nil)
	}

	body, err := fetchWithResilience(ctx, p.httpCfg, p.circuit, buildRequest)
	if err != nil {
		return nil, fmt.Errorf("%s forecast for %s: %w", p.name, p.location.Key(), err)
	}
	return body, nil
}
