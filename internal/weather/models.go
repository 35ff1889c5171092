package weather

import (
	"context"
	"errors"
	"fmt"
)

// ErrValidation marks request input the caller can fix and resubmit.
var ErrValidation = errors.New("invalid request")

// ErrStorage marks a persistence failure after the upstream fetch already
// succeeded, so callers can report it as a save problem rather than a fetch
// problem.
var ErrStorage = errors.New("storage failure")

// Selector identifies the location a request is about: either a free-text
// query or a coordinate pair. Exactly one form is used per request.
type Selector struct {
	Query string
	Lat   *float64
	Lon   *float64
}

// Geo reports whether the selector carries coordinates.
func (s Selector) Geo() bool {
	return s.Lat != nil && s.Lon != nil
}

// Label returns the human-readable location input used for display and
// persistence.
func (s Selector) Label() string {
	if s.Geo() {
		return fmt.Sprintf("lat %v, lon %v", *s.Lat, *s.Lon)
	}
	return s.Query
}

// RawSample is one loosely structured provider payload. The provider omits
// fields freely and a zero value is a legitimate measurement, so absence is
// modeled with nil rather than a default.
type RawSample struct {
	Epoch       *int64
	Temp        *float64
	FeelsLike   *float64
	Humidity    *float64
	WindSpeed   *float64
	Description string
	Icon        string
	Name        string
	Country     string
	Lat         *float64
	Lon         *float64
}

// CurrentConditions is the normalized current-weather view for one request.
type CurrentConditions struct {
	Location    string   `json:"location"`
	Lat         *float64 `json:"lat,omitempty"`
	Lon         *float64 `json:"lon,omitempty"`
	Temp        *float64 `json:"temp,omitempty"`
	FeelsLike   *float64 `json:"feels_like,omitempty"`
	Humidity    *float64 `json:"humidity,omitempty"`
	WindSpeed   *float64 `json:"wind,omitempty"`
	Description string   `json:"description"`
	IconURL     string   `json:"icon"`
	Time        string   `json:"time"`
}

// DailyForecastEntry is one compacted forecast day.
type DailyForecastEntry struct {
	Day         Date     `json:"-"`
	Date        string   `json:"date"`
	Time        string   `json:"time"`
	Temp        *float64 `json:"temp,omitempty"`
	Description string   `json:"description"`
	IconURL     string   `json:"icon"`
}

// TemperatureSummary aggregates per-day forecast temperatures over a
// requested window. Count is zero when the window misses the forecast
// entirely; Avg/Min/Max are only meaningful when Count > 0.
type TemperatureSummary struct {
	Count int     `json:"count"`
	Avg   float64 `json:"avg"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Note  string  `json:"note"`
}

// QueryRecord is the persisted audit row of one successful lookup. Only
// LocationInput and Notes are ever updated after creation.
type QueryRecord struct {
	ID            int64    `json:"id"`
	CreatedAt     string   `json:"created_at"`
	LocationInput string   `json:"location_input"`
	Lat           *float64 `json:"lat,omitempty"`
	Lon           *float64 `json:"lon,omitempty"`
	StartDate     *string  `json:"start_date,omitempty"`
	EndDate       *string  `json:"end_date,omitempty"`
	TempSummary   *string  `json:"temp_summary,omitempty"`
	Notes         *string  `json:"notes,omitempty"`
}

// Provider abstracts the upstream weather API.
type Provider interface {
	Current(ctx context.Context, sel Selector) (RawSample, error)
	Forecast(ctx context.Context, sel Selector) ([]RawSample, error)
}

// Store is the contract the SQLite store (and any future persistent store)
// must satisfy.
type Store interface {
	InsertQuery(ctx context.Context, rec *QueryRecord) error
	ListQueries(ctx context.Context) ([]QueryRecord, error)
	GetQuery(ctx context.Context, id int64) (*QueryRecord, error)
	UpdateQuery(ctx context.Context, id int64, locationInput string, notes *string) error
	DeleteQuery(ctx context.Context, id int64) error
}
