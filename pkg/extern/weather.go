package extern

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

const openMeteoBaseURL = "https://api.open-meteo.com/v1"
const openMeteoGeoURL = "https://geocoding-api.open-meteo.com/v1"

// OpenMeteoWeather implements Weather against the Open-Meteo API. The API
// needs no credentials, so it never returns ErrAuthorizationExpired.
type OpenMeteoWeather struct {
	// DefaultLocation is used when a request carries no location.
	DefaultLocation string

	// HTTPClient overrides the default client, for tests.
	HTTPClient *http.Client

	// BaseURL and GeoURL override the API endpoints, for tests.
	BaseURL string
	GeoURL  string
}

func (w *OpenMeteoWeather) client() *http.Client {
	if w.HTTPClient != nil {
		return w.HTTPClient
	}
	return &http.Client{Timeout: 10 * time.Second}
}

// Current geocodes the location, then fetches current conditions.
func (w *OpenMeteoWeather) Current(ctx context.Context, location string) (*WeatherReport, error) {
	if location == "" {
		location = w.DefaultLocation
	}
	if location == "" {
		return nil, fmt.Errorf("weather: no location given and no default configured")
	}

	lat, lon, name, err := w.geocode(ctx, location)
	if err != nil {
		return nil, err
	}

	base := w.BaseURL
	if base == "" {
		base = openMeteoBaseURL
	}
	q := url.Values{}
	q.Set("latitude", fmt.Sprintf("%.4f", lat))
	q.Set("longitude", fmt.Sprintf("%.4f", lon))
	q.Set("current", "temperature_2m,wind_speed_10m,weather_code")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"/forecast?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := w.client().Do(req)
	if err != nil {
		return nil, fmt.Errorf("weather: forecast request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("weather: forecast status %d", resp.StatusCode)
	}

	var body struct {
		Current struct {
			Temperature float64 `json:"temperature_2m"`
			WindSpeed   float64 `json:"wind_speed_10m"`
			WeatherCode int     `json:"weather_code"`
		} `json:"current"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("weather: decode forecast: %w", err)
	}

	return &WeatherReport{
		Location:    name,
		Description: describeWeatherCode(body.Current.WeatherCode),
		TempC:       body.Current.Temperature,
		WindKMH:     body.Current.WindSpeed,
	}, nil
}

func (w *OpenMeteoWeather) geocode(ctx context.Context, location string) (lat, lon float64, name string, err error) {
	base := w.GeoURL
	if base == "" {
		base = openMeteoGeoURL
	}
	q := url.Values{}
	q.Set("name", location)
	q.Set("count", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"/search?"+q.Encode(), nil)
	if err != nil {
		return 0, 0, "", err
	}
	resp, err := w.client().Do(req)
	if err != nil {
		return 0, 0, "", fmt.Errorf("weather: geocode request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return 0, 0, "", fmt.Errorf("weather: geocode status %d", resp.StatusCode)
	}

	var body struct {
		Results []struct {
			Name      string  `json:"name"`
			Latitude  float64 `json:"latitude"`
			Longitude float64 `json:"longitude"`
		} `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0, 0, "", fmt.Errorf("weather: decode geocode: %w", err)
	}
	if len(body.Results) == 0 {
		return 0, 0, "", fmt.Errorf("weather: unknown location %q", location)
	}
	r := body.Results[0]
	return r.Latitude, r.Longitude, r.Name, nil
}

// describeWeatherCode maps WMO weather codes to short spoken phrases.
func describeWeatherCode(code int) string {
	switch {
	case code == 0:
		return "clear skies"
	case code <= 3:
		return "partly cloudy"
	case code == 45 || code == 48:
		return "foggy"
	case code >= 51 && code <= 57:
		return "drizzle"
	case code >= 61 && code <= 67:
		return "rain"
	case code >= 71 && code <= 77:
		return "snow"
	case code >= 80 && code <= 82:
		return "rain showers"
	case code >= 95:
		return "thunderstorms"
	default:
		return "mixed conditions"
	}
}
