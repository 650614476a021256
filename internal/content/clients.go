package content

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const httpTimeout = 10 * time.Second

// newHTTPClient returns an http.Client with a 10-second timeout.
func newHTTPClient() *http.Client {
	return &http.Client{Timeout: httpTimeout}
}

// doGet performs a GET request and decodes the JSON response into dst.
func doGet(ctx context.Context, client *http.Client, rawURL string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("creating request for %s: %w", rawURL, err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("GET %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %s returned status %d", rawURL, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("decoding response from %s: %w", rawURL, err)
	}

	return nil
}

// ---- Quotable ----

// QuoteClient fetches one quotation from the Quotable API (no key required).
type QuoteClient struct {
	baseURL   string
	tags      string
	maxLength int
	client    *http.Client
}

const quotableDefaultURL = "https://api.quotable.io/quotes/random"

// NewQuoteClient constructs a QuoteClient filtering by the given tag
// expression and maximum quote length.
func NewQuoteClient(tags string, maxLength int) *QuoteClient {
	return &QuoteClient{baseURL: quotableDefaultURL, tags: tags, maxLength: maxLength, client: newHTTPClient()}
}

// NewQuoteClientWithURL constructs a QuoteClient pointing at a custom base URL (for tests).
func NewQuoteClientWithURL(baseURL, tags string, maxLength int) *QuoteClient {
	return &QuoteClient{baseURL: baseURL, tags: tags, maxLength: maxLength, client: newHTTPClient()}
}

type quotableEntry struct {
	Content string `json:"content"`
	Author  string `json:"author"`
}

// Fetch retrieves one random quote. A quote with no attribution is
// returned with the author set to a fixed placeholder.
func (c *QuoteClient) Fetch(ctx context.Context) (Quote, error) {
	endpoint := c.baseURL + "?tags=" + url.QueryEscape(c.tags) + "&maxLength=" + strconv.Itoa(c.maxLength)

	var raw []quotableEntry
	if err := doGet(ctx, c.client, endpoint, &raw); err != nil {
		return Quote{}, fmt.Errorf("quotable fetch: %w", err)
	}

	if len(raw) == 0 || raw[0].Content == "" {
		return Quote{}, fmt.Errorf("quotable: response carried no quote")
	}

	q := Quote{Text: raw[0].Content, Author: raw[0].Author}
	if q.Author == "" {
		q.Author = unknownAuthor
	}

	return q, nil
}

// ---- Useless Facts ----

// FactClient fetches one trivia fact from the Useless Facts API (no key required).
type FactClient struct {
	baseURL string
	client  *http.Client
}

const factsDefaultURL = "https://uselessfacts.jsph.pl/api/v2/facts/random"

// NewFactClient constructs a FactClient.
func NewFactClient() *FactClient {
	return &FactClient{baseURL: factsDefaultURL, client: newHTTPClient()}
}

// NewFactClientWithURL constructs a FactClient pointing at a custom base URL (for tests).
func NewFactClientWithURL(baseURL string) *FactClient {
	return &FactClient{baseURL: baseURL, client: newHTTPClient()}
}

type factEntry struct {
	Text string `json:"text"`
}

// Fetch retrieves one random fact.
func (c *FactClient) Fetch(ctx context.Context) (string, error) {
	var raw factEntry
	if err := doGet(ctx, c.client, c.baseURL, &raw); err != nil {
		return "", fmt.Errorf("uselessfacts fetch: %w", err)
	}

	if raw.Text == "" {
		return "", fmt.Errorf("uselessfacts: response carried no text")
	}

	return raw.Text, nil
}
