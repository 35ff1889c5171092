package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"weatherdesk/internal/store"
	"weatherdesk/internal/weather"
)

type fakeProvider struct {
	current     weather.RawSample
	currentErr  error
	forecast    []weather.RawSample
	forecastErr error
}

func (p *fakeProvider) Current(ctx context.Context, sel weather.Selector) (weather.RawSample, error) {
	return p.current, p.currentErr
}

func (p *fakeProvider) Forecast(ctx context.Context, sel weather.Selector) ([]weather.RawSample, error) {
	return p.forecast, p.forecastErr
}

type fakeStore struct {
	nextID    int64
	records   []weather.QueryRecord
	insertErr error
}

func (s *fakeStore) InsertQuery(ctx context.Context, rec *weather.QueryRecord) error {
	if s.insertErr != nil {
		return s.insertErr
	}
	s.nextID++
	rec.ID = s.nextID
	s.records = append(s.records, *rec)
	return nil
}

func (s *fakeStore) ListQueries(ctx context.Context) ([]weather.QueryRecord, error) {
	return s.records, nil
}

func (s *fakeStore) GetQuery(ctx context.Context, id int64) (*weather.QueryRecord, error) {
	for i := range s.records {
		if s.records[i].ID == id {
			return &s.records[i], nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *fakeStore) UpdateQuery(ctx context.Context, id int64, locationInput string, notes *string) error {
	for i := range s.records {
		if s.records[i].ID == id {
			s.records[i].LocationInput = locationInput
			s.records[i].Notes = notes
			return nil
		}
	}
	return store.ErrNotFound
}

func (s *fakeStore) DeleteQuery(ctx context.Context, id int64) error {
	for i := range s.records {
		if s.records[i].ID == id {
			s.records = append(s.records[:i], s.records[i+1:]...)
			return nil
		}
	}
	return store.ErrNotFound
}

func newTestApp(provider weather.Provider, st weather.Store, apiKeySet bool) *fiber.App {
	app := fiber.New()
	RegisterRoutes(app, weather.NewService(provider, st), apiKeySet)
	return app
}

func postForm(t *testing.T, app *fiber.App, path string, form url.Values) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request %s: %v", path, err)
	}
	return resp
}

func flashOf(t *testing.T, resp *http.Response) string {
	t.Helper()
	for _, c := range resp.Cookies() {
		if c.Name == flashCookie {
			msg, err := url.QueryUnescape(c.Value)
			if err != nil {
				t.Fatalf("unescape flash: %v", err)
			}
			return msg
		}
	}
	return ""
}

func okSample() weather.RawSample {
	epoch := time.Now().Unix()
	temp := 17.5
	return weather.RawSample{Name: "London", Country: "GB", Temp: &temp, Epoch: &epoch}
}

func TestWeatherLookupSuccess(t *testing.T) {
	st := &fakeStore{}
	app := newTestApp(&fakeProvider{current: okSample()}, st, true)

	resp := postForm(t, app, "/weather", url.Values{"query": {"London"}})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	body, _ := io.ReadAll(resp.Body)
	var result weather.QueryResult
	if err := json.Unmarshal(body, &result); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if result.Current.Location != "London, GB" {
		t.Errorf("unexpected location: %s", result.Current.Location)
	}
	if result.Record == nil || result.Record.ID != 1 {
		t.Error("response must carry the persisted record")
	}
	if len(st.records) != 1 {
		t.Fatalf("expected one persisted record, got %d", len(st.records))
	}
}

func TestWeatherRejectsInvalidDateFormat(t *testing.T) {
	st := &fakeStore{}
	app := newTestApp(&fakeProvider{current: okSample()}, st, true)

	resp := postForm(t, app, "/weather", url.Values{
		"query":      {"London"},
		"start_date": {"01/06/2024"},
	})
	if resp.StatusCode != http.StatusFound {
		t.Fatalf("expected 302, got %d", resp.StatusCode)
	}
	if got := flashOf(t, resp); got != "Invalid date format. Please use YYYY-MM-DD." {
		t.Errorf("unexpected flash: %q", got)
	}
	if len(st.records) != 0 {
		t.Error("invalid input must not persist a record")
	}
}

func TestWeatherRejectsMissingLocation(t *testing.T) {
	st := &fakeStore{}
	app := newTestApp(&fakeProvider{current: okSample()}, st, true)

	resp := postForm(t, app, "/weather", url.Values{"query": {"   "}})
	if resp.StatusCode != http.StatusFound {
		t.Fatalf("expected 302, got %d", resp.StatusCode)
	}
	if got := flashOf(t, resp); !strings.Contains(got, "enter a location") {
		t.Errorf("unexpected flash: %q", got)
	}
	if len(st.records) != 0 {
		t.Error("validation failure must not persist a record")
	}
}

func TestWeatherRejectsReversedRange(t *testing.T) {
	st := &fakeStore{}
	app := newTestApp(&fakeProvider{current: okSample()}, st, true)

	resp := postForm(t, app, "/weather", url.Values{
		"query":      {"London"},
		"start_date": {"2024-06-05"},
		"end_date":   {"2024-06-01"},
	})
	if resp.StatusCode != http.StatusFound {
		t.Fatalf("expected 302, got %d", resp.StatusCode)
	}
	if got := flashOf(t, resp); !strings.Contains(got, "start date") {
		t.Errorf("unexpected flash: %q", got)
	}
	if len(st.records) != 0 {
		t.Error("validation failure must not persist a record")
	}
}

func TestWeatherPersistFailureFlash(t *testing.T) {
	st := &fakeStore{insertErr: errors.New("disk full")}
	app := newTestApp(&fakeProvider{current: okSample()}, st, true)

	resp := postForm(t, app, "/weather", url.Values{"query": {"London"}})
	if resp.StatusCode != http.StatusFound {
		t.Fatalf("expected 302, got %d", resp.StatusCode)
	}
	// The fetch succeeded; the flash must blame the save, not the fetch.
	if got := flashOf(t, resp); got != "Failed to save query record." {
		t.Errorf("unexpected flash: %q", got)
	}
}

func TestWeatherGuardsMissingAPIKey(t *testing.T) {
	app := newTestApp(&fakeProvider{}, &fakeStore{}, false)

	resp := postForm(t, app, "/weather", url.Values{"query": {"London"}})
	if resp.StatusCode != http.StatusFound {
		t.Fatalf("expected 302, got %d", resp.StatusCode)
	}
	if got := flashOf(t, resp); !strings.Contains(got, "OWM_API_KEY") {
		t.Errorf("unexpected flash: %q", got)
	}
}

func TestIndexReportsFlashOnce(t *testing.T) {
	app := newTestApp(&fakeProvider{}, &fakeStore{}, true)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: flashCookie, Value: url.QueryEscape("Record deleted.")})
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)

	var payload struct {
		Flash string `json:"flash"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload.Flash != "Record deleted." {
		t.Errorf("unexpected flash: %q", payload.Flash)
	}

	// The cookie must be cleared along with the response.
	for _, c := range resp.Cookies() {
		if c.Name == flashCookie && c.MaxAge >= 0 && c.Value != "" {
			t.Error("flash cookie was not cleared")
		}
	}
}

func TestHistoryListsRecords(t *testing.T) {
	st := &fakeStore{}
	rec := weather.QueryRecord{CreatedAt: "2024-06-01 10:30", LocationInput: "London"}
	st.InsertQuery(context.Background(), &rec)

	app := newTestApp(&fakeProvider{}, st, true)
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/history", nil))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	body, _ := io.ReadAll(resp.Body)
	var payload struct {
		Rows []weather.QueryRecord `json:"rows"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(payload.Rows) != 1 || payload.Rows[0].LocationInput != "London" {
		t.Errorf("unexpected rows: %+v", payload.Rows)
	}
}

func TestHistoryDetailMissingRedirects(t *testing.T) {
	app := newTestApp(&fakeProvider{}, &fakeStore{}, true)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/history/99", nil))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != http.StatusFound {
		t.Fatalf("expected 302, got %d", resp.StatusCode)
	}
	if loc := resp.Header.Get("Location"); loc != "/history" {
		t.Errorf("unexpected redirect target: %s", loc)
	}
	if got := flashOf(t, resp); got != "Record not found." {
		t.Errorf("unexpected flash: %q", got)
	}
}

func TestHistoryUpdate(t *testing.T) {
	st := &fakeStore{}
	rec := weather.QueryRecord{CreatedAt: "x", LocationInput: "London"}
	st.InsertQuery(context.Background(), &rec)

	app := newTestApp(&fakeProvider{}, st, true)
	resp := postForm(t, app, "/history/1", url.Values{
		"location_input": {"London, GB"},
		"notes":          {"verified"},
	})
	if resp.StatusCode != http.StatusFound {
		t.Fatalf("expected 302, got %d", resp.StatusCode)
	}
	if got := flashOf(t, resp); got != "Record updated." {
		t.Errorf("unexpected flash: %q", got)
	}
	if st.records[0].LocationInput != "London, GB" {
		t.Errorf("location not updated: %s", st.records[0].LocationInput)
	}
	if st.records[0].Notes == nil || *st.records[0].Notes != "verified" {
		t.Errorf("notes not updated: %v", st.records[0].Notes)
	}
}

func TestHistoryUpdateRejectsEmptyLocation(t *testing.T) {
	st := &fakeStore{}
	rec := weather.QueryRecord{CreatedAt: "x", LocationInput: "London"}
	st.InsertQuery(context.Background(), &rec)

	app := newTestApp(&fakeProvider{}, st, true)
	resp := postForm(t, app, "/history/1", url.Values{"location_input": {"  "}})
	if resp.StatusCode != http.StatusFound {
		t.Fatalf("expected 302, got %d", resp.StatusCode)
	}
	if loc := resp.Header.Get("Location"); loc != "/history/1" {
		t.Errorf("unexpected redirect target: %s", loc)
	}
	if st.records[0].LocationInput != "London" {
		t.Error("record must be unchanged after a rejected update")
	}
}

func TestHistoryDelete(t *testing.T) {
	st := &fakeStore{}
	rec := weather.QueryRecord{CreatedAt: "x", LocationInput: "London"}
	st.InsertQuery(context.Background(), &rec)

	app := newTestApp(&fakeProvider{}, st, true)
	resp := postForm(t, app, "/history/1/delete", nil)
	if resp.StatusCode != http.StatusFound {
		t.Fatalf("expected 302, got %d", resp.StatusCode)
	}
	if got := flashOf(t, resp); got != "Record deleted." {
		t.Errorf("unexpected flash: %q", got)
	}
	if len(st.records) != 0 {
		t.Error("record was not deleted")
	}
}
