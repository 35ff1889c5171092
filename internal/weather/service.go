package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"
)

// QueryRequest is one parsed weather lookup request.
type QueryRequest struct {
	Selector     Selector
	WantForecast bool
	StartDate    string
	EndDate      string
}

// QueryResult is the assembled response of one successful lookup.
type QueryResult struct {
	Current  CurrentConditions    `json:"current"`
	Forecast []DailyForecastEntry `json:"forecast,omitempty"`
	Summary  *TemperatureSummary  `json:"summary,omitempty"`
	Record   *QueryRecord         `json:"record,omitempty"`
}

// Service orchestrates provider fetches, compaction, summarization, and
// persistence for incoming requests.
type Service struct {
	provider Provider
	store    Store
}

// NewService creates a new Service.
func NewService(provider Provider, store Store) *Service {
	return &Service{provider: provider, store: store}
}

// Lookup runs one full weather request: validate the input, fetch and
// normalize current conditions, fetch and compact the forecast, summarize the
// requested window, and persist an audit record. A forecast failure is
// non-fatal; validation or current-weather failures return before anything is
// persisted.
func (s *Service) Lookup(ctx context.Context, req QueryRequest) (*QueryResult, error) {
	sel := req.Selector
	if !sel.Geo() && strings.TrimSpace(sel.Query) == "" {
		return nil, fmt.Errorf("%w: enter a location or use current coordinates", ErrValidation)
	}

	start, end, err := parseWindow(req.StartDate, req.EndDate)
	if err != nil {
		return nil, err
	}

	raw, err := s.provider.Current(ctx, sel)
	if err != nil {
		return nil, fmt.Errorf("fetch current weather: %w", err)
	}
	current := NormalizeCurrent(raw)

	var forecast []DailyForecastEntry
	samples, err := s.provider.Forecast(ctx, sel)
	if err != nil {
		// Current conditions still render without a forecast.
		log.Printf("forecast fetch failed for %s: %v", sel.Label(), err)
	} else {
		forecast = CompactDaily(withTimestamps(samples))
	}

	summary := SummarizeRange(forecast, start, end)

	rec := &QueryRecord{
		CreatedAt:     time.Now().Format(displayTime),
		LocationInput: sel.Label(),
		Lat:           current.Lat,
		Lon:           current.Lon,
		StartDate:     optString(req.StartDate),
		EndDate:       optString(req.EndDate),
		TempSummary:   encodeSummary(summary),
	}
	if err := s.store.InsertQuery(ctx, rec); err != nil {
		return nil, fmt.Errorf("%w: persist query record: %v", ErrStorage, err)
	}

	res := &QueryResult{Current: current, Summary: summary, Record: rec}
	if req.WantForecast {
		res.Forecast = forecast
	}
	return res, nil
}

// History returns all persisted query records, newest first.
func (s *Service) History(ctx context.Context) ([]QueryRecord, error) {
	return s.store.ListQueries(ctx)
}

// Record returns one persisted record by id.
func (s *Service) Record(ctx context.Context, id int64) (*QueryRecord, error) {
	return s.store.GetQuery(ctx, id)
}

// UpdateRecord changes the editable fields of a record.
func (s *Service) UpdateRecord(ctx context.Context, id int64, locationInput string, notes *string) error {
	locationInput = strings.TrimSpace(locationInput)
	if locationInput == "" {
		return fmt.Errorf("%w: location cannot be empty", ErrValidation)
	}
	return s.store.UpdateQuery(ctx, id, locationInput, notes)
}

// DeleteRecord removes a record by id.
func (s *Service) DeleteRecord(ctx context.Context, id int64) error {
	return s.store.DeleteQuery(ctx, id)
}

// parseWindow validates the optional summary window. Both bounds are optional
// individually, but when both are given start must not be after end.
func parseWindow(startStr, endStr string) (*Date, *Date, error) {
	var start, end *Date
	if startStr != "" {
		d, err := ParseDate(startStr)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", ErrValidation, err)
		}
		start = &d
	}
	if endStr != "" {
		d, err := ParseDate(endStr)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", ErrValidation, err)
		}
		end = &d
	}
	if start != nil && end != nil && start.After(*end) {
		return nil, nil, fmt.Errorf("%w: start date must be before or equal to end date", ErrValidation)
	}
	return start, end, nil
}

// withTimestamps drops samples that carry no timestamp, so the epoch-0 day
// never mixes into real forecast data.
func withTimestamps(samples []RawSample) []RawSample {
	kept := make([]RawSample, 0, len(samples))
	for _, s := range samples {
		if s.Epoch != nil {
			kept = append(kept, s)
		}
	}
	return kept
}

func optString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func encodeSummary(sum *TemperatureSummary) *string {
	if sum == nil {
		return nil
	}
	b, err := json.Marshal(sum)
	if err != nil {
		return nil
	}
	enc := string(b)
	return &enc
}
