package weather

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	iconURLTemplate = "https://openweathermap.org/img/wn/%s@2x.png"
	defaultIcon     = "01d"

	// displayTime is the local display format for observation and record
	// timestamps.
	displayTime = "2006-01-02 15:04"
)

// IconURL builds the provider CDN URL for an icon code, falling back to the
// clear-sky icon when the code is absent.
func IconURL(code string) string {
	if code == "" {
		code = defaultIcon
	}
	return fmt.Sprintf(iconURLTemplate, code)
}

func titleCase(s string) string {
	return cases.Title(language.English).String(s)
}

// NormalizeCurrent maps one raw current-weather payload into the canonical
// current-conditions record. Missing numeric fields stay nil; a missing
// timestamp falls back to epoch 0.
func NormalizeCurrent(raw RawSample) CurrentConditions {
	var epoch int64
	if raw.Epoch != nil {
		epoch = *raw.Epoch
	}

	return CurrentConditions{
		Location:    strings.Trim(raw.Name+", "+raw.Country, ", "),
		Lat:         raw.Lat,
		Lon:         raw.Lon,
		Temp:        raw.Temp,
		FeelsLike:   raw.FeelsLike,
		Humidity:    raw.Humidity,
		WindSpeed:   raw.WindSpeed,
		Description: titleCase(raw.Description),
		IconURL:     IconURL(raw.Icon),
		Time:        time.Unix(epoch, 0).In(time.Local).Format(displayTime),
	}
}
