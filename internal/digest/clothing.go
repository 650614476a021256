package digest

import (
	"strings"

	"github.com/rares1928/morning-email/internal/content"
)

// clothingAdvice picks an outfit suggestion from the day window's mean
// temperature, plus an umbrella note when the peak rain chance warrants it.
func clothingAdvice(day content.WindowStats) string {
	avg := (day.Temperature.Min + day.Temperature.Max) / 2

	var advice []string
	switch {
	case avg < 0:
		advice = append(advice, "Heavy winter coat and warm layers 🧥")
	case avg < 5:
		advice = append(advice, "Thick jacket and sweater 🧥")
	case avg < 10:
		advice = append(advice, "Jacket and light sweater 🧥")
	case avg < 15:
		advice = append(advice, "Light jacket or hoodie 👕")
	case avg < 20:
		advice = append(advice, "Hoodie or light cardigan 👕")
	default:
		advice = append(advice, "Light clothing, t-shirt is fine 👕")
	}

	switch {
	case day.Precipitation.Max > 50:
		advice = append(advice, "Don't forget your umbrella! ☔")
	case day.Precipitation.Max > 30:
		advice = append(advice, "Bring an umbrella just in case ☂️")
	}

	return strings.Join(advice, " | ")
}
