package content_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rares1928/morning-email/internal/content"
)

type mockCache struct {
	getFunc func(ctx context.Context, coord content.Coordinate) (*content.DaySummary, error)
	setFunc func(ctx context.Context, coord content.Coordinate, summary *content.DaySummary) error
}

func (m *mockCache) Get(ctx context.Context, coord content.Coordinate) (*content.DaySummary, error) {
	if m.getFunc != nil {
		return m.getFunc(ctx, coord)
	}
	return nil, nil
}

func (m *mockCache) Set(ctx context.Context, coord content.Coordinate, summary *content.DaySummary) error {
	if m.setFunc != nil {
		return m.setFunc(ctx, coord, summary)
	}
	return nil
}

// buildTestFetcher creates a Fetcher that points all clients at the given test servers.
func buildTestFetcher(weatherURL, quoteURL, factURL string, cache content.SummaryCache) *content.Fetcher {
	return content.NewFetcherWithClients(
		content.NewWeatherClientWithURL(weatherURL),
		content.NewQuoteClientWithURL(quoteURL, "science", 200),
		content.NewFactClientWithURL(factURL),
		cache,
	)
}

func TestFetchBundle_Success(t *testing.T) {
	wSrv := httptest.NewServer(forecastHandler(t))
	defer wSrv.Close()

	qSrv := httptest.NewServer(quoteHandler(t))
	defer qSrv.Close()

	fSrv := httptest.NewServer(factHandler(t))
	defer fSrv.Close()

	f := buildTestFetcher(wSrv.URL, qSrv.URL, fSrv.URL, nil)

	bundle := f.FetchBundle(context.Background(), testCoordinate())

	assert.Equal(t, "Science is organized knowledge.", bundle.Quote.Text)
	assert.Equal(t, "Herbert Spencer", bundle.Quote.Author)
	assert.Equal(t, "Honey never spoils.", bundle.Fact)

	require.NotNil(t, bundle.Weather)
	require.NotNil(t, bundle.Weather.Day)
	assert.Equal(t, content.MetricRange{Min: 10.0, Max: 18.0}, bundle.Weather.Day.Temperature)
}

func TestFetchBundle_WeatherFails_PartialBundle(t *testing.T) {
	badSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "internal error", http.StatusInternalServerError)
	}))
	defer badSrv.Close()

	qSrv := httptest.NewServer(quoteHandler(t))
	defer qSrv.Close()

	fSrv := httptest.NewServer(factHandler(t))
	defer fSrv.Close()

	f := buildTestFetcher(badSrv.URL, qSrv.URL, fSrv.URL, nil)

	bundle := f.FetchBundle(context.Background(), testCoordinate())

	assert.Nil(t, bundle.Weather, "weather should be absent on failure")
	assert.Equal(t, "Science is organized knowledge.", bundle.Quote.Text)
	assert.Equal(t, "Honey never spoils.", bundle.Fact)
}

func TestFetchBundle_AllSourcesFail_Fallbacks(t *testing.T) {
	badSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad", http.StatusInternalServerError)
	}))
	defer badSrv.Close()

	f := buildTestFetcher(badSrv.URL, badSrv.URL, badSrv.URL, nil)

	bundle := f.FetchBundle(context.Background(), testCoordinate())

	assert.Equal(t, content.FallbackQuote, bundle.Quote)
	assert.Equal(t, content.FallbackFact, bundle.Fact)
	assert.Nil(t, bundle.Weather)
}

func TestFetchBundle_Timeout_Fallbacks(t *testing.T) {
	slowSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(2 * time.Second)
	}))
	defer slowSrv.Close()

	f := buildTestFetcher(slowSrv.URL, slowSrv.URL, slowSrv.URL, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	bundle := f.FetchBundle(ctx, testCoordinate())

	assert.Equal(t, content.FallbackQuote, bundle.Quote)
	assert.Equal(t, content.FallbackFact, bundle.Fact)
	assert.Nil(t, bundle.Weather)
}

func TestFetchBundle_CacheHitSkipsUpstream(t *testing.T) {
	var hits int32
	wSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		forecastHandler(t)(w, r)
	}))
	defer wSrv.Close()

	qSrv := httptest.NewServer(quoteHandler(t))
	defer qSrv.Close()

	fSrv := httptest.NewServer(factHandler(t))
	defer fSrv.Close()

	cached := &content.DaySummary{
		Location: "Goettingen",
		Date:     time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		Day: &content.WindowStats{
			Temperature: content.MetricRange{Min: 1.0, Max: 2.0},
			Samples:     12,
		},
	}
	cache := &mockCache{
		getFunc: func(ctx context.Context, coord content.Coordinate) (*content.DaySummary, error) {
			return cached, nil
		},
	}

	f := buildTestFetcher(wSrv.URL, qSrv.URL, fSrv.URL, cache)

	bundle := f.FetchBundle(context.Background(), testCoordinate())

	assert.Equal(t, cached, bundle.Weather)
	assert.EqualValues(t, 0, atomic.LoadInt32(&hits), "cache hit should skip the upstream call")
}

func TestFetchBundle_CacheMissStoresSummary(t *testing.T) {
	wSrv := httptest.NewServer(forecastHandler(t))
	defer wSrv.Close()

	qSrv := httptest.NewServer(quoteHandler(t))
	defer qSrv.Close()

	fSrv := httptest.NewServer(factHandler(t))
	defer fSrv.Close()

	var stored *content.DaySummary
	cache := &mockCache{
		setFunc: func(ctx context.Context, coord content.Coordinate, summary *content.DaySummary) error {
			stored = summary
			return nil
		},
	}

	f := buildTestFetcher(wSrv.URL, qSrv.URL, fSrv.URL, cache)

	bundle := f.FetchBundle(context.Background(), testCoordinate())

	require.NotNil(t, bundle.Weather)
	require.NotNil(t, stored, "fresh summary should be stored in the cache")
	assert.Equal(t, bundle.Weather, stored)
}

func TestFetchBundle_CacheErrorFallsThrough(t *testing.T) {
	wSrv := httptest.NewServer(forecastHandler(t))
	defer wSrv.Close()

	qSrv := httptest.NewServer(quoteHandler(t))
	defer qSrv.Close()

	fSrv := httptest.NewServer(factHandler(t))
	defer fSrv.Close()

	cache := &mockCache{
		getFunc: func(ctx context.Context, coord content.Coordinate) (*content.DaySummary, error) {
			return nil, context.DeadlineExceeded
		},
	}

	f := buildTestFetcher(wSrv.URL, qSrv.URL, fSrv.URL, cache)

	bundle := f.FetchBundle(context.Background(), testCoordinate())

	require.NotNil(t, bundle.Weather, "a cache error should not block the upstream fetch")
	assert.Equal(t, content.MetricRange{Min: 10.0, Max: 18.0}, bundle.Weather.Day.Temperature)
}
