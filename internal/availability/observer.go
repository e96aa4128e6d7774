package availability

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/roach88/snapledger/internal/ir"
	"github.com/roach88/snapledger/internal/logger"
)

// DefaultConcurrency bounds Preflight fan-out when none is configured.
const DefaultConcurrency = 4

// ObserverOptions configures an Observer. Zero values select defaults;
// a nil Cache disables caching.
type ObserverOptions struct {
	Cache       *Cache
	Concurrency int
	Logger      *logger.Logger
}

// Observer reads availability through a Source, optionally cached.
type Observer struct {
	source      Source
	cache       *Cache
	concurrency int
	log         *logger.Logger
}

// NewObserver creates an Observer over source.
func NewObserver(source Source, opts ObserverOptions) *Observer {
	conc := opts.Concurrency
	if conc <= 0 {
		conc = DefaultConcurrency
	}
	return &Observer{
		source:      source,
		cache:       opts.Cache,
		concurrency: conc,
		log:         opts.Logger.With("component", "availability"),
	}
}

// Invalidate drops every cached entry for subject so the next Observe
// reads through to the source.
func (o *Observer) Invalidate(subject Subject) {
	if o.cache == nil {
		return
	}
	o.cache.Invalidate(subject)
	o.log.Debug("availability cache invalidated", "subject", subject.String())
}

// Request names one subject and day range to observe.
type Request struct {
	Subject Subject     `json:"subject" yaml:"subject"`
	Days    ir.DayRange `json:"days" yaml:"days"`
}

// Observe returns availability for subject over days, using the cache when
// a live entry exists. Days outside the range are dropped from the result.
func (o *Observer) Observe(ctx context.Context, subject Subject, days ir.DayRange) (Availability, error) {
	if strings.TrimSpace(subject.OwnerID) == "" {
		return nil, ir.NewValidationError("owner_id", "owner id is required")
	}
	if strings.TrimSpace(string(subject.Address)) == "" {
		return nil, ir.NewValidationError("content_address", "content address is required")
	}
	if err := days.Validate(); err != nil {
		return nil, err
	}

	if o.cache != nil {
		if a, ok := o.cache.Get(subject, days); ok {
			o.log.Debug("availability cache hit", "subject", subject.String(), "days", days.String())
			return a, nil
		}
	}

	fetched, err := o.source.Fetch(ctx, subject, days)
	if err != nil {
		return nil, fmt.Errorf("fetch availability %s %s: %w", subject, days, err)
	}

	a := make(Availability, len(fetched))
	for day, groups := range fetched {
		if days.Contains(day) {
			a[day] = groups
		}
	}

	if o.cache != nil {
		if n := o.cache.Purge(); n > 0 {
			o.log.Debug("availability cache purged", "expired", n)
		}
		o.cache.Put(subject, days, a)
	}
	o.log.Debug("availability fetched",
		"subject", subject.String(),
		"days", days.String(),
		"stored_days", len(a),
	)
	return a, nil
}

// Preflight observes every request concurrently, bounded by the configured
// concurrency, and returns results in request order. It returns only after
// all fetches have finished; the first error cancels the rest.
func (o *Observer) Preflight(ctx context.Context, reqs []Request) ([]Availability, error) {
	out := make([]Availability, len(reqs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.concurrency)

	for i, req := range reqs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			a, err := o.Observe(gctx, req.Subject, req.Days)
			if err != nil {
				return err
			}
			out[i] = a
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		o.log.Warn("availability preflight failed", "requests", len(reqs), "error", err)
		return nil, err
	}
	return out, nil
}
