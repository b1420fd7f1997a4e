package holiday

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/moyuu-az/attendance-system/internal/pkg/metrics"
	"golang.org/x/sync/singleflight"
)

// Result is the outcome of a holiday lookup. Degraded means the provider
// failed and no earlier answer was available, so no day is a holiday. Stale
// means the provider failed and the last good answer was used.
type Result struct {
	Holidays map[string]string
	Degraded bool
	Stale    bool
}

type Options struct {
	Timeout time.Duration
	TTL     time.Duration
}

// Lookup puts a timeout, a cache and a fallback in front of a Provider. It
// never returns an error: failures degrade to "no holidays".
type Lookup struct {
	provider Provider
	cache    Cache
	opts     Options
	logger   *slog.Logger
	metrics  metrics.Recorder

	group    singleflight.Group
	mu       sync.RWMutex
	lastGood map[int]map[string]string
}

func NewLookup(provider Provider, cache Cache, opts Options, logger *slog.Logger, rec metrics.Recorder) *Lookup {
	if opts.Timeout <= 0 {
		opts.Timeout = 2 * time.Second
	}
	if opts.TTL <= 0 {
		opts.TTL = 24 * time.Hour
	}
	if cache == nil {
		cache = NewMemoryCache()
	}
	if rec == nil {
		rec = metrics.Nop{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Lookup{
		provider: provider,
		cache:    cache,
		opts:     opts,
		logger:   logger,
		metrics:  rec,
		lastGood: make(map[int]map[string]string),
	}
}

// Year returns the holidays of year.
func (l *Lookup) Year(ctx context.Context, year int) Result {
	cached, ok, err := l.cache.Get(ctx, year)
	if err != nil {
		l.logger.Warn("holiday cache read failed", slog.Int("year", year), slog.String("error", err.Error()))
	}
	if ok {
		return Result{Holidays: cached}
	}

	holidays, err := l.fetch(ctx, year)
	if err == nil {
		return Result{Holidays: holidays}
	}

	reason := "error"
	if errors.Is(err, context.DeadlineExceeded) {
		reason = "timeout"
	}
	l.metrics.RecordHolidayFallback(reason)

	l.mu.RLock()
	stale, haveStale := l.lastGood[year]
	l.mu.RUnlock()

	l.logger.Warn("holiday lookup unavailable, falling back",
		slog.Int("year", year),
		slog.String("reason", reason),
		slog.Bool("stale", haveStale),
		slog.String("error", err.Error()),
	)

	if haveStale {
		return Result{Holidays: stale, Stale: true}
	}
	return Result{Holidays: map[string]string{}, Degraded: true}
}

// Month returns the holidays of one month.
func (l *Lookup) Month(ctx context.Context, year int, month time.Month) Result {
	res := l.Year(ctx, year)
	prefix := fmt.Sprintf("%04d-%02d-", year, int(month))

	filtered := make(map[string]string)
	for date, name := range res.Holidays {
		if len(date) >= len(prefix) && date[:len(prefix)] == prefix {
			filtered[date] = name
		}
	}
	res.Holidays = filtered
	return res
}

// Refresh fetches a year from the provider regardless of the cache.
func (l *Lookup) Refresh(ctx context.Context, year int) error {
	_, err := l.fetch(ctx, year)
	return err
}

func (l *Lookup) fetch(ctx context.Context, year int) (map[string]string, error) {
	v, err, _ := l.group.Do(strconv.Itoa(year), func() (interface{}, error) {
		// Shared by concurrent callers, so one caller's cancellation must not
		// fail the others.
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), l.opts.Timeout)
		defer cancel()

		holidays, err := l.provider.Holidays(fetchCtx, year)
		if err != nil {
			return nil, err
		}

		if err := l.cache.Set(fetchCtx, year, holidays, l.opts.TTL); err != nil {
			l.logger.Warn("holiday cache write failed", slog.Int("year", year), slog.String("error", err.Error()))
		}

		l.mu.Lock()
		l.lastGood[year] = holidays
		l.mu.Unlock()

		return holidays, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(map[string]string), nil
}
