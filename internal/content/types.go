package content

import "time"

// Coordinate is a fixed geographic point forecasts are fetched for.
type Coordinate struct {
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Timezone  string  `json:"timezone"`
}

// Quote holds a single quotation and its attribution.
type Quote struct {
	Text   string `json:"text"`
	Author string `json:"author"`
}

// MetricRange holds the lowest and highest value a metric takes within a window.
type MetricRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// WindowStats aggregates forecast metrics over one hour-of-day window.
type WindowStats struct {
	Temperature   MetricRange `json:"temperature_c"`
	FeelsLike     MetricRange `json:"feels_like_c"`
	Humidity      MetricRange `json:"humidity_percent"`
	Precipitation MetricRange `json:"precipitation_percent"`
	Condition     string      `json:"condition"`
	Samples       int         `json:"samples"`
}

// DaySummary is the reduced forecast for one location and date. Day covers
// the 08:00-19:59 hours, Night covers 20:00-21:59. A window with no samples
// is nil, never zero-filled.
type DaySummary struct {
	Location string       `json:"location"`
	Date     time.Time    `json:"date"`
	Day      *WindowStats `json:"day,omitempty"`
	Night    *WindowStats `json:"night,omitempty"`
}

// Bundle is the shared content fetched once per run and reused for every
// recipient. Weather is nil when the forecast could not be fetched; Quote
// and Fact are always populated, falling back to fixed values on failure.
type Bundle struct {
	Quote   Quote       `json:"quote"`
	Fact    string      `json:"fact"`
	Weather *DaySummary `json:"weather,omitempty"`
}

// FallbackQuote is substituted when the quote source is unreachable or
// returns an unusable payload.
var FallbackQuote = Quote{
	Text:   "The important thing is not to stop questioning. Curiosity has its own reason for existing.",
	Author: "Albert Einstein",
}

// FallbackFact is substituted when the fact source is unreachable or
// returns an unusable payload.
const FallbackFact = "The heart of a shrimp is located in its head."

// unknownAuthor is used when a quote arrives without an attribution.
const unknownAuthor = "Unknown"
