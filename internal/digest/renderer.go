package digest

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"time"

	"github.com/rares1928/morning-email/internal/content"
)

//go:embed templates/digest.tmpl
var templateFS embed.FS

// Digest is the rendered artifact for a single recipient.
type Digest struct {
	Subject string
	HTML    string
}

// Renderer turns the shared content bundle into personalized digests.
type Renderer struct {
	tmpl *template.Template
}

// NewRenderer parses the embedded digest template.
func NewRenderer() (*Renderer, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/digest.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parsing digest template: %w", err)
	}
	return &Renderer{tmpl: tmpl}, nil
}

type templateData struct {
	Name    string
	Date    string
	Quote   content.Quote
	Fact    string
	Weather *weatherView
}

type weatherView struct {
	Location string
	Day      windowView
	Night    windowView
	Clothing string
}

type windowView struct {
	Condition   string
	Temperature string
	FeelsLike   string
	Humidity    string
	RainChance  string
}

// newWeatherView pre-formats the summary for the template. It returns nil
// unless both windows are present, which selects the degraded weather
// branch in the template.
func newWeatherView(s *content.DaySummary) *weatherView {
	if s == nil || s.Day == nil || s.Night == nil {
		return nil
	}
	return &weatherView{
		Location: s.Location,
		Day:      newWindowView(*s.Day),
		Night:    newWindowView(*s.Night),
		Clothing: clothingAdvice(*s.Day),
	}
}

func newWindowView(ws content.WindowStats) windowView {
	return windowView{
		Condition:   ws.Condition,
		Temperature: formatRange(ws.Temperature, 1, "°C"),
		FeelsLike:   formatRange(ws.FeelsLike, 1, "°C"),
		Humidity:    formatRange(ws.Humidity, 0, "%"),
		RainChance:  formatRange(ws.Precipitation, 0, "%"),
	}
}

func formatRange(r content.MetricRange, decimals int, unit string) string {
	return fmt.Sprintf("%.*f%s - %.*f%s", decimals, r.Min, unit, decimals, r.Max, unit)
}

// Render produces the digest for one recipient. Rendering is pure:
// identical inputs produce byte-identical output.
func (r *Renderer) Render(recipientName string, bundle content.Bundle, runDate time.Time) (Digest, error) {
	data := templateData{
		Name:    recipientName,
		Date:    runDate.Format("Monday, January 02, 2006"),
		Quote:   bundle.Quote,
		Fact:    bundle.Fact,
		Weather: newWeatherView(bundle.Weather),
	}

	var buf bytes.Buffer
	if err := r.tmpl.Execute(&buf, data); err != nil {
		return Digest{}, fmt.Errorf("rendering digest for %s: %w", recipientName, err)
	}

	return Digest{
		Subject: fmt.Sprintf("Good Morning %s! ☀️ %s", recipientName, runDate.Format("Jan 02")),
		HTML:    buf.String(),
	}, nil
}
