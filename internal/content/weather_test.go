package content_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rares1928/morning-email/internal/content"
)

// forecastHandler serves a 14-hour series: 12 day samples (08:00-19:00)
// and 2 night samples (20:00, 21:00).
func forecastHandler(t *testing.T) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"hourly": map[string]any{
				"time": []string{
					"2026-03-01T08:00", "2026-03-01T09:00", "2026-03-01T10:00", "2026-03-01T11:00",
					"2026-03-01T12:00", "2026-03-01T13:00", "2026-03-01T14:00", "2026-03-01T15:00",
					"2026-03-01T16:00", "2026-03-01T17:00", "2026-03-01T18:00", "2026-03-01T19:00",
					"2026-03-01T20:00", "2026-03-01T21:00",
				},
				"temperature_2m": []float64{
					10.0, 11.0, 12.5, 13.0, 14.0, 15.5, 16.0, 17.0, 18.0, 17.5, 12.0, 11.0,
					9.0, 5.0,
				},
				"apparent_temperature": []float64{
					8.0, 9.0, 10.5, 11.0, 12.0, 13.5, 14.0, 15.0, 16.0, 15.5, 10.0, 9.0,
					7.0, 3.0,
				},
				"relative_humidity_2m": []float64{
					80, 78, 75, 70, 65, 60, 58, 55, 56, 60, 70, 75,
					85, 90,
				},
				"precipitation_probability": []float64{
					10, 10, 20, 30, 40, 35, 30, 20, 10, 5, 5, 5,
					50, 60,
				},
				"weather_code": []int{
					2, 2, 2, 2, 3, 3, 3, 3, 2, 2, 2, 2,
					3, 3,
				},
			},
		})
	}
}

func testCoordinate() content.Coordinate {
	return content.Coordinate{
		Name:      "Goettingen",
		Latitude:  51.5412,
		Longitude: 9.9158,
		Timezone:  "Europe/Berlin",
	}
}

func TestWeatherClient_Fetch(t *testing.T) {
	srv := httptest.NewServer(forecastHandler(t))
	defer srv.Close()

	c := content.NewWeatherClientWithURL(srv.URL)
	summary, err := c.Fetch(context.Background(), testCoordinate())
	require.NoError(t, err)
	require.NotNil(t, summary)

	assert.Equal(t, "Goettingen", summary.Location)
	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), summary.Date)

	require.NotNil(t, summary.Day)
	assert.Equal(t, 12, summary.Day.Samples)
	assert.Equal(t, content.MetricRange{Min: 10.0, Max: 18.0}, summary.Day.Temperature)
	assert.Equal(t, content.MetricRange{Min: 8.0, Max: 16.0}, summary.Day.FeelsLike)
	assert.Equal(t, content.MetricRange{Min: 55, Max: 80}, summary.Day.Humidity)
	assert.Equal(t, content.MetricRange{Min: 5, Max: 40}, summary.Day.Precipitation)
	assert.Equal(t, "Partly cloudy ⛅", summary.Day.Condition)

	require.NotNil(t, summary.Night)
	assert.Equal(t, 2, summary.Night.Samples)
	assert.Equal(t, content.MetricRange{Min: 5.0, Max: 9.0}, summary.Night.Temperature)
	assert.Equal(t, content.MetricRange{Min: 3.0, Max: 7.0}, summary.Night.FeelsLike)
	assert.Equal(t, content.MetricRange{Min: 85, Max: 90}, summary.Night.Humidity)
	assert.Equal(t, content.MetricRange{Min: 50, Max: 60}, summary.Night.Precipitation)
	assert.Equal(t, "Overcast ☁️", summary.Night.Condition)
}

func TestWeatherClient_MinNeverExceedsMax(t *testing.T) {
	srv := httptest.NewServer(forecastHandler(t))
	defer srv.Close()

	c := content.NewWeatherClientWithURL(srv.URL)
	summary, err := c.Fetch(context.Background(), testCoordinate())
	require.NoError(t, err)

	for name, ws := range map[string]*content.WindowStats{"day": summary.Day, "night": summary.Night} {
		require.NotNil(t, ws, name)
		assert.LessOrEqual(t, ws.Temperature.Min, ws.Temperature.Max, name)
		assert.LessOrEqual(t, ws.FeelsLike.Min, ws.FeelsLike.Max, name)
		assert.LessOrEqual(t, ws.Humidity.Min, ws.Humidity.Max, name)
		assert.LessOrEqual(t, ws.Precipitation.Min, ws.Precipitation.Max, name)
	}
}

func TestWeatherClient_EmptyNightWindow(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"hourly": map[string]any{
				"time":                      []string{"2026-03-01T08:00", "2026-03-01T09:00", "2026-03-01T10:00"},
				"temperature_2m":            []float64{10.0, 12.0, 14.0},
				"apparent_temperature":      []float64{9.0, 11.0, 13.0},
				"relative_humidity_2m":      []float64{70, 65, 60},
				"precipitation_probability": []float64{10, 20, 30},
				"weather_code":              []int{1, 1, 2},
			},
		})
	}))
	defer srv.Close()

	c := content.NewWeatherClientWithURL(srv.URL)
	summary, err := c.Fetch(context.Background(), testCoordinate())
	require.NoError(t, err)

	require.NotNil(t, summary.Day)
	assert.Equal(t, 3, summary.Day.Samples)
	assert.Nil(t, summary.Night, "window without samples should be absent, not zero-filled")
}

func TestWeatherClient_NullSamplesSkipped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"hourly": map[string]any{
				"time":                      []string{"2026-03-01T08:00", "2026-03-01T09:00", "2026-03-01T10:00"},
				"temperature_2m":            []any{10.0, nil, 20.0},
				"apparent_temperature":      []any{9.0, 10.0, 19.0},
				"relative_humidity_2m":      []any{70, 65, 60},
				"precipitation_probability": []any{10, 20, 30},
				"weather_code":              []any{1, 1, nil},
			},
		})
	}))
	defer srv.Close()

	c := content.NewWeatherClientWithURL(srv.URL)
	summary, err := c.Fetch(context.Background(), testCoordinate())
	require.NoError(t, err)

	require.NotNil(t, summary.Day)
	assert.Equal(t, 2, summary.Day.Samples, "hour with a null metric should be skipped")
	assert.Equal(t, content.MetricRange{Min: 10.0, Max: 20.0}, summary.Day.Temperature)
	assert.Equal(t, "Mainly clear 🌤️", summary.Day.Condition)
}

func TestWeatherClient_EmptySeries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"hourly": map[string]any{"time": []string{}}})
	}))
	defer srv.Close()

	c := content.NewWeatherClientWithURL(srv.URL)
	_, err := c.Fetch(context.Background(), testCoordinate())
	require.Error(t, err)
	assert.ErrorContains(t, err, "empty")
}

func TestWeatherClient_MismatchedSeries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"hourly": map[string]any{
				"time":                      []string{"2026-03-01T08:00", "2026-03-01T09:00"},
				"temperature_2m":            []float64{10.0},
				"apparent_temperature":      []float64{9.0, 10.0},
				"relative_humidity_2m":      []float64{70, 65},
				"precipitation_probability": []float64{10, 20},
				"weather_code":              []int{1, 1},
			},
		})
	}))
	defer srv.Close()

	c := content.NewWeatherClientWithURL(srv.URL)
	_, err := c.Fetch(context.Background(), testCoordinate())
	require.Error(t, err)
	assert.ErrorContains(t, err, "temperature_2m")
}

func TestWeatherClient_RetriesServerErrors(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) < 3 {
			http.Error(w, "flaky", http.StatusInternalServerError)
			return
		}
		forecastHandler(t)(w, r)
	}))
	defer srv.Close()

	c := content.NewWeatherClientWithURL(srv.URL)
	summary, err := c.Fetch(context.Background(), testCoordinate())
	require.NoError(t, err)
	require.NotNil(t, summary)
	assert.EqualValues(t, 3, atomic.LoadInt32(&hits))
}

func TestWeatherClient_ServerError(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		http.Error(w, "err", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := content.NewWeatherClientWithURL(srv.URL)
	_, err := c.Fetch(context.Background(), testCoordinate())
	require.Error(t, err)
	assert.EqualValues(t, 5, atomic.LoadInt32(&hits), "should give up after the retry budget")
}

func TestWeatherClient_CircuitOpensAfterRepeatedFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := content.NewWeatherClientWithURL(srv.URL)

	_, err := c.Fetch(context.Background(), testCoordinate())
	require.Error(t, err)

	_, err = c.Fetch(context.Background(), testCoordinate())
	require.Error(t, err)
	assert.ErrorContains(t, err, "circuit breaker open")
}

func TestWeatherClient_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(2 * time.Second)
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	c := content.NewWeatherClientWithURL(srv.URL)
	_, err := c.Fetch(ctx, testCoordinate())
	require.Error(t, err)
}
