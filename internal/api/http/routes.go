package httpapi

import (
	"errors"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"weatherdesk/internal/store"
	"weatherdesk/internal/weather"
)

var validate = validator.New()

const flashCookie = "flash"

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, service *weather.Service, apiKeySet bool) {
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"service":         "weatherdesk",
			"api_key_missing": !apiKeySet,
			"flash":           takeFlash(c),
		})
	})

	app.Post("/weather", func(c *fiber.Ctx) error {
		if !apiKeySet {
			return flashRedirect(c, "/", "Missing OWM_API_KEY. Set it and restart.")
		}

		var form weatherForm
		form.bind(c)
		if err := validate.Struct(form); err != nil {
			return flashRedirect(c, "/", "Invalid date format. Please use YYYY-MM-DD.")
		}

		req, err := form.toRequest()
		if err != nil {
			return flashRedirect(c, "/", err.Error())
		}

		result, err := service.Lookup(c.Context(), req)
		if err != nil {
			switch {
			case errors.Is(err, weather.ErrValidation):
				return flashRedirect(c, "/", userMessage(err))
			case errors.Is(err, weather.ErrStorage):
				return flashRedirect(c, "/", "Failed to save query record.")
			}
			return flashRedirect(c, "/", "Failed to fetch current weather: "+err.Error())
		}
		return c.JSON(result)
	})

	app.Get("/history", func(c *fiber.Ctx) error {
		rows, err := service.History(c.Context())
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to load history")
		}
		return c.JSON(fiber.Map{
			"flash": takeFlash(c),
			"rows":  rows,
		})
	})

	app.Get("/history/:id", func(c *fiber.Ctx) error {
		id, err := parseID(c)
		if err != nil {
			return flashRedirect(c, "/history", "Record not found.")
		}

		rec, err := service.Record(c.Context(), id)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return flashRedirect(c, "/history", "Record not found.")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to load record")
		}
		return c.JSON(rec)
	})

	app.Post("/history/:id", func(c *fiber.Ctx) error {
		id, err := parseID(c)
		if err != nil {
			return flashRedirect(c, "/history", "Record not found.")
		}

		locationInput := strings.TrimSpace(c.FormValue("location_input"))
		var notes *string
		if n := strings.TrimSpace(c.FormValue("notes")); n != "" {
			notes = &n
		}

		if err := service.UpdateRecord(c.Context(), id, locationInput, notes); err != nil {
			switch {
			case errors.Is(err, weather.ErrValidation):
				return flashRedirect(c, "/history/"+c.Params("id"), userMessage(err))
			case errors.Is(err, store.ErrNotFound):
				return flashRedirect(c, "/history", "Record not found.")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to update record")
		}
		return flashRedirect(c, "/history", "Record updated.")
	})

	app.Post("/history/:id/delete", func(c *fiber.Ctx) error {
		id, err := parseID(c)
		if err != nil {
			return flashRedirect(c, "/history", "Record not found.")
		}

		if err := service.DeleteRecord(c.Context(), id); err != nil && !errors.Is(err, store.ErrNotFound) {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to delete record")
		}
		return flashRedirect(c, "/history", "Record deleted.")
	})
}

// weatherForm holds the submitted lookup form fields. Date fields are
// validated at this boundary; range ordering is the service's concern.
type weatherForm struct {
	Query        string
	UseGeo       bool
	Lat          string `validate:"omitempty,latitude"`
	Lon          string `validate:"omitempty,longitude"`
	WantForecast bool
	StartDate    string `validate:"omitempty,datetime=2006-01-02"`
	EndDate      string `validate:"omitempty,datetime=2006-01-02"`
}

func (f *weatherForm) bind(c *fiber.Ctx) {
	f.Query = strings.TrimSpace(c.FormValue("query"))
	f.UseGeo = c.FormValue("use_geo") == "1"
	f.Lat = strings.TrimSpace(c.FormValue("lat"))
	f.Lon = strings.TrimSpace(c.FormValue("lon"))
	f.WantForecast = c.FormValue("want_forecast") == "1"
	f.StartDate = strings.TrimSpace(c.FormValue("start_date"))
	f.EndDate = strings.TrimSpace(c.FormValue("end_date"))
}

func (f weatherForm) toRequest() (weather.QueryRequest, error) {
	req := weather.QueryRequest{
		WantForecast: f.WantForecast,
		StartDate:    f.StartDate,
		EndDate:      f.EndDate,
	}
	req.Selector.Query = f.Query

	if f.UseGeo && f.Lat != "" && f.Lon != "" {
		lat, err := strconv.ParseFloat(f.Lat, 64)
		if err != nil {
			return req, errors.New("Invalid latitude value.")
		}
		lon, err := strconv.ParseFloat(f.Lon, 64)
		if err != nil {
			return req, errors.New("Invalid longitude value.")
		}
		req.Selector.Lat = &lat
		req.Selector.Lon = &lon
	}
	return req, nil
}

func parseID(c *fiber.Ctx) (int64, error) {
	return strconv.ParseInt(c.Params("id"), 10, 64)
}

// userMessage strips the validation sentinel prefix so the flash shows only
// the actionable part.
func userMessage(err error) string {
	msg := err.Error()
	if rest, found := strings.CutPrefix(msg, weather.ErrValidation.Error()+": "); found {
		return rest
	}
	return msg
}

func flashRedirect(c *fiber.Ctx, to, msg string) error {
	c.Cookie(&fiber.Cookie{
		Name:     flashCookie,
		Value:    url.QueryEscape(msg),
		Path:     "/",
		HTTPOnly: true,
	})
	return c.Redirect(to, fiber.StatusFound)
}

// takeFlash reads and clears the pending flash message, if any.
func takeFlash(c *fiber.Ctx) string {
	v := c.Cookies(flashCookie)
	if v == "" {
		return ""
	}
	c.Cookie(&fiber.Cookie{
		Name:     flashCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HTTPOnly: true,
	})
	if msg, err := url.QueryUnescape(v); err == nil {
		return msg
	}
	return v
}
