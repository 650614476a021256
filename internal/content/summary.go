package content

import (
	"fmt"
	"time"
)

// Hour-of-day boundaries for the two reported windows: day covers
// 08:00-19:59 local time, night covers 20:00-21:59.
const (
	dayStartHour   = 8
	nightStartHour = 20
	nightEndHour   = 22
)

const openMeteoTimeLayout = "2006-01-02T15:04"

type hourlySample struct {
	hour          int
	temperature   float64
	feelsLike     float64
	humidity      float64
	precipitation float64
	code          int
	hasCode       bool
}

// summarize validates the hourly payload and reduces it to day and night
// window statistics. Hours missing a metric are skipped; an array whose
// length disagrees with the time axis rejects the whole payload.
func summarize(location string, raw openMeteoResponse) (*DaySummary, error) {
	h := raw.Hourly

	n := len(h.Time)
	if n == 0 {
		return nil, fmt.Errorf("hourly series is empty")
	}
	if len(h.Temperature) != n {
		return nil, fmt.Errorf("temperature_2m has %d values for %d timestamps", len(h.Temperature), n)
	}
	if len(h.FeelsLike) != n {
		return nil, fmt.Errorf("apparent_temperature has %d values for %d timestamps", len(h.FeelsLike), n)
	}
	if len(h.Humidity) != n {
		return nil, fmt.Errorf("relative_humidity_2m has %d values for %d timestamps", len(h.Humidity), n)
	}
	if len(h.Precipitation) != n {
		return nil, fmt.Errorf("precipitation_probability has %d values for %d timestamps", len(h.Precipitation), n)
	}
	if len(h.WeatherCode) != n {
		return nil, fmt.Errorf("weather_code has %d values for %d timestamps", len(h.WeatherCode), n)
	}

	var date time.Time
	samples := make([]hourlySample, 0, n)
	for i, ts := range h.Time {
		t, err := time.Parse(openMeteoTimeLayout, ts)
		if err != nil {
			return nil, fmt.Errorf("hourly timestamp %q: %w", ts, err)
		}
		if date.IsZero() {
			date = time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
		}

		if h.Temperature[i] == nil || h.FeelsLike[i] == nil || h.Humidity[i] == nil || h.Precipitation[i] == nil {
			continue
		}

		s := hourlySample{
			hour:          t.Hour(),
			temperature:   *h.Temperature[i],
			feelsLike:     *h.FeelsLike[i],
			humidity:      *h.Humidity[i],
			precipitation: *h.Precipitation[i],
		}
		if h.WeatherCode[i] != nil {
			s.code = *h.WeatherCode[i]
			s.hasCode = true
		}
		samples = append(samples, s)
	}

	var day, night []hourlySample
	for _, s := range samples {
		switch {
		case s.hour >= dayStartHour && s.hour < nightStartHour:
			day = append(day, s)
		case s.hour >= nightStartHour && s.hour < nightEndHour:
			night = append(night, s)
		}
	}

	return &DaySummary{
		Location: location,
		Date:     date,
		Day:      newWindowStats(day),
		Night:    newWindowStats(night),
	}, nil
}

// newWindowStats computes per-metric min/max over the window samples.
// A window with no samples yields nil rather than zero-filled stats.
func newWindowStats(samples []hourlySample) *WindowStats {
	if len(samples) == 0 {
		return nil
	}

	first := samples[0]
	ws := &WindowStats{
		Temperature:   MetricRange{Min: first.temperature, Max: first.temperature},
		FeelsLike:     MetricRange{Min: first.feelsLike, Max: first.feelsLike},
		Humidity:      MetricRange{Min: first.humidity, Max: first.humidity},
		Precipitation: MetricRange{Min: first.precipitation, Max: first.precipitation},
		Samples:       len(samples),
	}
	for _, s := range samples[1:] {
		ws.Temperature = ws.Temperature.extend(s.temperature)
		ws.FeelsLike = ws.FeelsLike.extend(s.feelsLike)
		ws.Humidity = ws.Humidity.extend(s.humidity)
		ws.Precipitation = ws.Precipitation.extend(s.precipitation)
	}
	ws.Condition = dominantCondition(samples)

	return ws
}

func (r MetricRange) extend(v float64) MetricRange {
	if v < r.Min {
		r.Min = v
	}
	if v > r.Max {
		r.Max = v
	}
	return r
}

// dominantCondition picks the most frequent weather code in the window.
// Ties go to the code seen first, so the result is deterministic.
func dominantCondition(samples []hourlySample) string {
	counts := make(map[int]int)
	var order []int
	for _, s := range samples {
		if !s.hasCode {
			continue
		}
		if counts[s.code] == 0 {
			order = append(order, s.code)
		}
		counts[s.code]++
	}

	best, bestCount := 0, 0
	for _, code := range order {
		if counts[code] > bestCount {
			best, bestCount = code, counts[code]
		}
	}
	if bestCount == 0 {
		return ""
	}

	return describeWeatherCode(best)
}

// describeWeatherCode maps WMO weather codes to human-readable descriptions.
func describeWeatherCode(code int) string {
	descriptions := map[int]string{
		0:  "Clear sky ☀️",
		1:  "Mainly clear 🌤️",
		2:  "Partly cloudy ⛅",
		3:  "Overcast ☁️",
		45: "Foggy 🌫️",
		48: "Depositing rime fog 🌫️",
		51: "Light drizzle 🌦️",
		53: "Moderate drizzle 🌦️",
		55: "Dense drizzle 🌧️",
		61: "Slight rain 🌧️",
		63: "Moderate rain 🌧️",
		65: "Heavy rain 🌧️",
		71: "Slight snow 🌨️",
		73: "Moderate snow 🌨️",
		75: "Heavy snow ❄️",
		77: "Snow grains ❄️",
		80: "Slight rain showers 🌦️",
		81: "Moderate rain showers 🌧️",
		82: "Violent rain showers ⛈️",
		85: "Slight snow showers 🌨️",
		86: "Heavy snow showers 🌨️",
		95: "Thunderstorm ⛈️",
		96: "Thunderstorm with slight hail ⛈️",
		99: "Thunderstorm with heavy hail ⛈️",
	}

	if d, ok := descriptions[code]; ok {
		return d
	}
	return "Unknown weather condition"
}
