package content

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
)

// ---- Open-Meteo ----

// WeatherClient fetches an hourly one-day forecast from Open-Meteo
// (no key required) and reduces it to day and night summaries.
type WeatherClient struct {
	baseURL string
	client  *http.Client
	circuit *gobreaker.CircuitBreaker
}

const openMeteoDefaultURL = "https://api.open-meteo.com/v1/forecast"

const openMeteoHourlyVars = "temperature_2m,apparent_temperature,relative_humidity_2m,precipitation_probability,weather_code"

// Retry schedule for the forecast endpoint: up to 5 attempts with
// exponential backoff starting at 200ms and capped at 3s.
const (
	weatherMaxRetries      = 4
	weatherInitialInterval = 200 * time.Millisecond
	weatherMaxInterval     = 3 * time.Second
)

func newWeatherBreaker() *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "open-meteo",
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
	})
}

// NewWeatherClient constructs a WeatherClient using the production Open-Meteo URL.
func NewWeatherClient() *WeatherClient {
	return &WeatherClient{baseURL: openMeteoDefaultURL, client: newHTTPClient(), circuit: newWeatherBreaker()}
}

// NewWeatherClientWithURL constructs a WeatherClient pointing at a custom base URL (for tests).
func NewWeatherClientWithURL(baseURL string) *WeatherClient {
	return &WeatherClient{baseURL: baseURL, client: newHTTPClient(), circuit: newWeatherBreaker()}
}

// openMeteoResponse mirrors the parallel time-indexed hourly arrays of the
// forecast payload. Metric entries are pointers because the API reports
// missing samples as JSON nulls.
type openMeteoResponse struct {
	Hourly struct {
		Time          []string   `json:"time"`
		Temperature   []*float64 `json:"temperature_2m"`
		FeelsLike     []*float64 `json:"apparent_temperature"`
		Humidity      []*float64 `json:"relative_humidity_2m"`
		Precipitation []*float64 `json:"precipitation_probability"`
		WeatherCode   []*int     `json:"weather_code"`
	} `json:"hourly"`
}

// Fetch retrieves today's hourly forecast for the coordinate and reduces it
// to day and night window statistics.
func (c *WeatherClient) Fetch(ctx context.Context, coord Coordinate) (*DaySummary, error) {
	values := url.Values{}
	values.Set("latitude", strconv.FormatFloat(coord.Latitude, 'f', 4, 64))
	values.Set("longitude", strconv.FormatFloat(coord.Longitude, 'f', 4, 64))
	values.Set("hourly", openMeteoHourlyVars)
	values.Set("timezone", coord.Timezone)
	values.Set("forecast_days", "1")
	endpoint := c.baseURL + "?" + values.Encode()

	var raw openMeteoResponse
	if err := c.getWithResilience(ctx, endpoint, &raw); err != nil {
		return nil, fmt.Errorf("open-meteo fetch for %s: %w", coord.Name, err)
	}

	summary, err := summarize(coord.Name, raw)
	if err != nil {
		return nil, fmt.Errorf("open-meteo payload for %s: %w", coord.Name, err)
	}

	return summary, nil
}

// getWithResilience performs the GET with retries, exponential backoff, and
// a circuit breaker. The body is decoded only after a successful attempt,
// so a malformed payload is never retried.
func (c *WeatherClient) getWithResilience(ctx context.Context, rawURL string, dst any) error {
	var attempt int
	var lastErr error

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return fmt.Errorf("creating request for %s: %w", rawURL, err)
		}

		result, err := c.circuit.Execute(func() (any, error) {
			resp, execErr := c.client.Do(req)
			if execErr != nil {
				return nil, execErr
			}
			if resp.StatusCode != http.StatusOK {
				resp.Body.Close()
				return nil, fmt.Errorf("GET %s returned status %d", rawURL, resp.StatusCode)
			}
			return resp, nil
		})
		if err == nil {
			resp, ok := result.(*http.Response)
			if !ok {
				return fmt.Errorf("unexpected result type from circuit breaker")
			}
			decErr := json.NewDecoder(resp.Body).Decode(dst)
			resp.Body.Close()
			if decErr != nil {
				return fmt.Errorf("decoding response from %s: %w", rawURL, decErr)
			}
			return nil
		}

		// An open circuit means recent attempts already failed; retrying
		// inside this run cannot help.
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return fmt.Errorf("circuit breaker open: %w", err)
		}

		lastErr = err
		if attempt >= weatherMaxRetries {
			return lastErr
		}

		delay := weatherInitialInterval << attempt
		if delay > weatherMaxInterval {
			delay = weatherMaxInterval
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		attempt++
	}
}
