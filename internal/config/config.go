package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/rares1928/morning-email/internal/content"
	"github.com/rares1928/morning-email/internal/dispatch"
)

// Placeholder credential values shipped in the example configuration.
// A run started with either of them still in place is a misconfiguration.
const (
	placeholderEmail    = "your_email@gmail.com"
	placeholderPassword = "your_app_password_here"
)

const (
	ProviderSMTP   = "smtp"
	ProviderResend = "resend"
)

// Config is the full startup configuration, read from the environment
// (plus .env when present) and validated before anything runs.
type Config struct {
	SenderEmail    string `validate:"required,email"`
	SenderPassword string
	SMTPHost       string `validate:"required,hostname"`
	SMTPPort       int    `validate:"min=1,max=65535"`
	MailProvider   string `validate:"oneof=smtp resend"`
	ResendAPIKey   string
	DryRun         bool

	Recipients []dispatch.Recipient `validate:"min=1"`

	Location content.Coordinate `validate:"required"`

	QuoteTags      string
	QuoteMaxLength int `validate:"min=1"`

	RedisURL string

	// Schedule holds a cron expression; empty means one-shot mode.
	Schedule   string
	Port       string
	AdminToken string
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Load reads the configuration from the environment, loading .env first if
// one exists, and validates it. Any error it returns means the run must not
// proceed: no fetch or send may happen on a broken configuration.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("could not load .env file", "err", err)
	}

	cfg := &Config{
		SenderEmail:    os.Getenv("SENDER_EMAIL"),
		SenderPassword: os.Getenv("SENDER_PASSWORD"),
		SMTPHost:       getEnv("SMTP_HOST", "smtp.gmail.com"),
		MailProvider:   getEnv("MAIL_PROVIDER", ProviderSMTP),
		ResendAPIKey:   os.Getenv("RESEND_API_KEY"),
		QuoteTags:      getEnv("QUOTE_TAGS", "science|technology|philosophy"),
		RedisURL:       os.Getenv("REDIS_URL"),
		Schedule:       os.Getenv("SCHEDULE"),
		Port:           getEnv("PORT", "8080"),
		AdminToken:     os.Getenv("ADMIN_TOKEN"),
	}

	var err error
	if cfg.SMTPPort, err = getInt("SMTP_PORT", 587); err != nil {
		return nil, err
	}
	if cfg.QuoteMaxLength, err = getInt("QUOTE_MAX_LENGTH", 200); err != nil {
		return nil, err
	}
	if cfg.DryRun, err = getBool("DRY_RUN", false); err != nil {
		return nil, err
	}

	if cfg.Location, err = loadLocation(); err != nil {
		return nil, err
	}
	if cfg.Recipients, err = loadRecipients(); err != nil {
		return nil, err
	}

	if err := cfg.check(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// check rejects placeholder credentials and inconsistent settings. It runs
// the struct-tag validation first so field-level problems surface with the
// offending key named.
func (c *Config) check() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if c.SenderEmail == placeholderEmail {
		return fmt.Errorf("SENDER_EMAIL still holds the placeholder value, set your real sender address")
	}
	if c.SenderPassword == placeholderPassword {
		return fmt.Errorf("SENDER_PASSWORD still holds the placeholder value, set your real app password")
	}
	if c.MailProvider == ProviderSMTP && !c.DryRun && c.SenderPassword == "" {
		return fmt.Errorf("SENDER_PASSWORD is required for the smtp provider")
	}
	if c.MailProvider == ProviderResend && !c.DryRun && c.ResendAPIKey == "" {
		return fmt.Errorf("RESEND_API_KEY is required for the resend provider")
	}
	if c.Schedule != "" && c.AdminToken == "" {
		return fmt.Errorf("ADMIN_TOKEN is required when SCHEDULE is set")
	}

	seen := make(map[string]struct{}, len(c.Recipients))
	for _, r := range c.Recipients {
		if r.Name == "" || r.Email == "" {
			return fmt.Errorf("recipient %q <%s> is missing a name or address", r.Name, r.Email)
		}
		if err := validate.Var(r.Email, "email"); err != nil {
			return fmt.Errorf("recipient %q has an invalid email address %q", r.Name, r.Email)
		}
		if _, ok := seen[r.Name]; ok {
			return fmt.Errorf("recipient name %q appears more than once", r.Name)
		}
		seen[r.Name] = struct{}{}
	}

	if c.Location.Latitude < -90 || c.Location.Latitude > 90 {
		return fmt.Errorf("LOCATION_LAT %v is out of range", c.Location.Latitude)
	}
	if c.Location.Longitude < -180 || c.Location.Longitude > 180 {
		return fmt.Errorf("LOCATION_LON %v is out of range", c.Location.Longitude)
	}
	if _, err := time.LoadLocation(c.Location.Timezone); err != nil {
		return fmt.Errorf("LOCATION_TZ %q is not a valid timezone: %w", c.Location.Timezone, err)
	}

	return nil
}

// loadLocation reads the forecast coordinate, defaulting to Goettingen.
func loadLocation() (content.Coordinate, error) {
	coord := content.Coordinate{
		Name:     getEnv("LOCATION_NAME", "Goettingen"),
		Timezone: getEnv("LOCATION_TZ", "Europe/Berlin"),
	}

	var err error
	if coord.Latitude, err = getFloat("LOCATION_LAT", 51.5412); err != nil {
		return content.Coordinate{}, err
	}
	if coord.Longitude, err = getFloat("LOCATION_LON", 9.9158); err != nil {
		return content.Coordinate{}, err
	}

	return coord, nil
}

// loadRecipients reads the registry from RECIPIENTS ("Name:addr" pairs,
// comma separated) or, when that is unset, from the YAML file named by
// RECIPIENTS_FILE. Registry order follows the source order.
func loadRecipients() ([]dispatch.Recipient, error) {
	if raw := os.Getenv("RECIPIENTS"); raw != "" {
		return parseRecipientList(raw)
	}

	if path := os.Getenv("RECIPIENTS_FILE"); path != "" {
		return readRecipientsFile(path)
	}

	return nil, fmt.Errorf("no recipients configured, set RECIPIENTS or RECIPIENTS_FILE")
}

func parseRecipientList(raw string) ([]dispatch.Recipient, error) {
	var recipients []dispatch.Recipient
	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		name, email, ok := strings.Cut(entry, ":")
		if !ok {
			return nil, fmt.Errorf("RECIPIENTS entry %q is not in Name:address form", entry)
		}

		recipients = append(recipients, dispatch.Recipient{
			Name:  strings.TrimSpace(name),
			Email: strings.TrimSpace(email),
		})
	}

	if len(recipients) == 0 {
		return nil, fmt.Errorf("RECIPIENTS is set but holds no entries")
	}

	return recipients, nil
}

func readRecipientsFile(path string) ([]dispatch.Recipient, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading recipients file %s: %w", path, err)
	}

	var recipients []dispatch.Recipient
	if err := yaml.Unmarshal(b, &recipients); err != nil {
		return nil, fmt.Errorf("parsing recipients file %s: %w", path, err)
	}
	if len(recipients) == 0 {
		return nil, fmt.Errorf("recipients file %s holds no entries", path)
	}

	return recipients, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s %q is not an integer", key, v)
	}
	return n, nil
}

func getFloat(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s %q is not a number", key, v)
	}
	return f, nil
}

func getBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s %q is not a boolean", key, v)
	}
	return b, nil
}
