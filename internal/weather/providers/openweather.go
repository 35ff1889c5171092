package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sony/gobreaker"

	"weatherdesk/internal/weather"
)

// DefaultBaseURL is the OpenWeatherMap API root.
const DefaultBaseURL = "https://api.openweathermap.org/data/2.5"

// ErrMissingAPIKey means no provider credential is configured. Every lookup
// fails with it until the key is set; the process itself keeps running.
var ErrMissingAPIKey = errors.New("openweather api key is not configured")

// OpenWeatherProvider implements the weather.Provider interface against the
// OpenWeatherMap current-weather and 5-day forecast endpoints.
type OpenWeatherProvider struct {
	name    string
	apiKey  string
	baseURL string
	client  *http.Client
	circuit *gobreaker.CircuitBreaker
}

// NewOpenWeatherProvider creates a provider client. An empty baseURL selects
// the production API root.
func NewOpenWeatherProvider(client *http.Client, apiKey, baseURL string) *OpenWeatherProvider {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "openweather",
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
	})

	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	return &OpenWeatherProvider{
		name:    "openweathermap",
		apiKey:  apiKey,
		baseURL: baseURL,
		client:  client,
		circuit: cb,
	}
}

func (p *OpenWeatherProvider) Name() string {
	return p.name
}

// Current fetches current conditions for the selected location.
func (p *OpenWeatherProvider) Current(ctx context.Context, sel weather.Selector) (weather.RawSample, error) {
	resp, err := p.get(ctx, "/weather", sel)
	if err != nil {
		return weather.RawSample{}, err
	}
	defer resp.Body.Close()

	var payload currentPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return weather.RawSample{}, fmt.Errorf("decode current weather: %w", err)
	}
	return payload.sample(), nil
}

// Forecast fetches the 3-hour-step forecast list for the selected location.
func (p *OpenWeatherProvider) Forecast(ctx context.Context, sel weather.Selector) ([]weather.RawSample, error) {
	resp, err := p.get(ctx, "/forecast", sel)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var payload struct {
		List []forecastItem `json:"list"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode forecast: %w", err)
	}

	samples := make([]weather.RawSample, 0, len(payload.List))
	for _, item := range payload.List {
		samples = append(samples, item.sample())
	}
	return samples, nil
}

func (p *OpenWeatherProvider) get(ctx context.Context, path string, sel weather.Selector) (*http.Response, error) {
	if p.apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	values := url.Values{}
	values.Set("appid", p.apiKey)
	values.Set("units", "metric")
	values.Set("lang", "en")
	if sel.Geo() {
		values.Set("lat", strconv.FormatFloat(*sel.Lat, 'f', -1, 64))
		values.Set("lon", strconv.FormatFloat(*sel.Lon, 'f', -1, 64))
	} else {
		values.Set("q", sel.Query)
	}

	u := fmt.Sprintf("%s%s?%s", p.baseURL, path, values.Encode())
	req, err := http.NewRequest(http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	return doRequest(ctx, p.client, p.circuit, req)
}

type weatherCondition struct {
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

// currentPayload mirrors the /weather response shape. Numeric fields decode
// into pointers so a missing field is never confused with a zero measurement.
type currentPayload struct {
	Name string `json:"name"`
	Sys  struct {
		Country string `json:"country"`
	} `json:"sys"`
	Coord *struct {
		Lat float64 `json:"lat"`
		Lon float64 `json:"lon"`
	} `json:"coord"`
	Main struct {
		Temp      *float64 `json:"temp"`
		FeelsLike *float64 `json:"feels_like"`
		Humidity  *float64 `json:"humidity"`
	} `json:"main"`
	Wind struct {
		Speed *float64 `json:"speed"`
	} `json:"wind"`
	Weather []weatherCondition `json:"weather"`
	Dt      *int64             `json:"dt"`
}

func (p currentPayload) sample() weather.RawSample {
	s := weather.RawSample{
		Epoch:     p.Dt,
		Temp:      p.Main.Temp,
		FeelsLike: p.Main.FeelsLike,
		Humidity:  p.Main.Humidity,
		WindSpeed: p.Wind.Speed,
		Name:      p.Name,
		Country:   p.Sys.Country,
	}
	if len(p.Weather) > 0 {
		s.Description = p.Weather[0].Description
		s.Icon = p.Weather[0].Icon
	}
	if p.Coord != nil {
		lat, lon := p.Coord.Lat, p.Coord.Lon
		s.Lat, s.Lon = &lat, &lon
	}
	return s
}

type forecastItem struct {
	Dt   *int64 `json:"dt"`
	Main struct {
		Temp *float64 `json:"temp"`
	} `json:"main"`
	Weather []weatherCondition `json:"weather"`
}

func (i forecastItem) sample() weather.RawSample {
	s := weather.RawSample{
		Epoch: i.Dt,
		Temp:  i.Main.Temp,
	}
	if len(i.Weather) > 0 {
		s.Description = i.Weather[0].Description
		s.Icon = i.Weather[0].Icon
	}
	return s
}
