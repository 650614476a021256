package content

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"
)

// weatherFetcher is the interface satisfied by WeatherClient.
type weatherFetcher interface {
	Fetch(ctx context.Context, coord Coordinate) (*DaySummary, error)
}

// quoteFetcher is the interface satisfied by QuoteClient.
type quoteFetcher interface {
	Fetch(ctx context.Context) (Quote, error)
}

// factFetcher is the interface satisfied by FactClient.
type factFetcher interface {
	Fetch(ctx context.Context) (string, error)
}

// SummaryCache is the interface satisfied by cache.ForecastCache. Get
// returns (nil, nil) on a miss.
type SummaryCache interface {
	Get(ctx context.Context, coord Coordinate) (*DaySummary, error)
	Set(ctx context.Context, coord Coordinate, summary *DaySummary) error
}

// Fetcher gathers the daily content bundle from the three upstream sources.
type Fetcher struct {
	weather weatherFetcher
	quote   quoteFetcher
	fact    factFetcher
	cache   SummaryCache
}

// NewFetcher constructs a Fetcher with production clients. cache may be nil
// to disable forecast caching.
func NewFetcher(quoteTags string, quoteMaxLength int, cache SummaryCache) *Fetcher {
	return &Fetcher{
		weather: NewWeatherClient(),
		quote:   NewQuoteClient(quoteTags, quoteMaxLength),
		fact:    NewFactClient(),
		cache:   cache,
	}
}

// NewFetcherWithClients constructs a Fetcher with injectable clients (used in tests).
func NewFetcherWithClients(w weatherFetcher, q quoteFetcher, f factFetcher, cache SummaryCache) *Fetcher {
	return &Fetcher{weather: w, quote: q, fact: f, cache: cache}
}

// FetchBundle fetches the three sources in parallel. Failures never
// propagate: a failed quote or fact is replaced by its fixed fallback,
// and a failed weather fetch leaves Bundle.Weather nil so the renderer
// can fall back to its unavailable notice.
func (f *Fetcher) FetchBundle(ctx context.Context, coord Coordinate) Bundle {
	g, gCtx := errgroup.WithContext(ctx)

	quote := FallbackQuote
	fact := FallbackFact
	var weather *DaySummary

	g.Go(func() error {
		defer func() {
			if r := recover(); r != nil {
				slog.Error("quote fetch panicked", "recover", r)
			}
		}()
		q, err := f.quote.Fetch(gCtx)
		if err != nil {
			slog.Warn("quote fetch failed, using fallback", "err", err)
			return nil
		}
		quote = q
		return nil
	})

	g.Go(func() error {
		defer func() {
			if r := recover(); r != nil {
				slog.Error("fact fetch panicked", "recover", r)
			}
		}()
		ft, err := f.fact.Fetch(gCtx)
		if err != nil {
			slog.Warn("fact fetch failed, using fallback", "err", err)
			return nil
		}
		fact = ft
		return nil
	})

	g.Go(func() error {
		defer func() {
			if r := recover(); r != nil {
				slog.Error("weather fetch panicked", "recover", r)
			}
		}()
		weather = f.fetchWeather(gCtx, coord)
		return nil
	})

	_ = g.Wait()

	return Bundle{Quote: quote, Fact: fact, Weather: weather}
}

// fetchWeather consults the cache before the upstream call and stores a
// fresh summary after it. A failed fetch yields nil, to be rendered as
// the degraded weather state.
func (f *Fetcher) fetchWeather(ctx context.Context, coord Coordinate) *DaySummary {
	if f.cache != nil {
		cached, err := f.cache.Get(ctx, coord)
		if err != nil {
			slog.Warn("forecast cache lookup failed", "location", coord.Name, "err", err)
		}
		if cached != nil {
			return cached
		}
	}

	summary, err := f.weather.Fetch(ctx, coord)
	if err != nil {
		slog.Warn("weather fetch failed, digest will omit forecast data", "location", coord.Name, "err", err)
		return nil
	}

	if f.cache != nil {
		if err := f.cache.Set(ctx, coord, summary); err != nil {
			slog.Warn("forecast cache store failed", "location", coord.Name, "err", err)
		}
	}

	return summary
}
