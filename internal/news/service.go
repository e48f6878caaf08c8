package news

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/abhay-codes07/dream-trade-bot/internal/metrics"
	"github.com/abhay-codes07/dream-trade-bot/internal/model"
	"github.com/abhay-codes07/dream-trade-bot/internal/risk"
)

// ErrUpstream wraps every failure to obtain headlines.
var ErrUpstream = errors.New("news upstream unavailable")

var _ risk.MoodProvider = (*Service)(nil)

// RemoteCache is a shared report cache, e.g. Redis.
type RemoteCache interface {
	Get(ctx context.Context, symbol string) (model.NewsReport, bool, error)
	Set(ctx context.Context, report model.NewsReport) error
}

type cached struct {
	report  model.NewsReport
	expires time.Time
}

// Service serves scored reports with a per-symbol TTL cache.
type Service struct {
	fetcher Fetcher
	remote  RemoteCache
	breaker *Breaker
	metrics *metrics.Metrics
	ttl     time.Duration
	now     func() time.Time

	mu    sync.Mutex
	cache map[string]cached
}

// Options configures a Service.
type Options struct {
	TTL     time.Duration // default 30s
	Remote  RemoteCache   // optional
	Breaker *Breaker      // optional; default 3 failures, 30s cooldown
	Metrics *metrics.Metrics
}

func NewService(fetcher Fetcher, opts Options) *Service {
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	br := opts.Breaker
	if br == nil {
		br = NewBreaker(3, 30*time.Second)
	}
	m := opts.Metrics
	prev := br.OnStateChange
	br.OnStateChange = func(from, to BreakerState) {
		log.Printf("[news] upstream breaker %s -> %s", from, to)
		m.SetNewsBreakerState(int(to))
		if prev != nil {
			prev(from, to)
		}
	}
	return &Service{
		fetcher: fetcher,
		remote:  opts.Remote,
		breaker: br,
		metrics: m,
		ttl:     ttl,
		now:     time.Now,
		cache:   make(map[string]cached),
	}
}

// Report returns the labelled headlines and mood for symbol, from cache
// when fresh. Upstream failures are returned wrapped in ErrUpstream.
func (s *Service) Report(ctx context.Context, symbol string) (model.NewsReport, error) {
	symbol = strings.TrimSpace(symbol)
	if symbol == "" {
		return model.NewsReport{}, fmt.Errorf("%w: empty symbol", ErrUpstream)
	}

	s.mu.Lock()
	c, ok := s.cache[symbol]
	s.mu.Unlock()
	if ok && s.now().Before(c.expires) {
		s.metrics.ObserveNewsCacheHit("memory")
		return c.report, nil
	}

	if s.remote != nil {
		report, hit, err := s.remote.Get(ctx, symbol)
		if err != nil {
			log.Printf("[news] remote cache get %s: %v", symbol, err)
		} else if hit {
			s.metrics.ObserveNewsCacheHit("remote")
			s.store(report)
			return report, nil
		}
	}

	var items []model.NewsItem
	err := s.breaker.Do(func() error {
		var ferr error
		items, ferr = s.fetcher.Fetch(ctx, symbol)
		return ferr
	})
	if err != nil {
		s.metrics.ObserveNewsError()
		return model.NewsReport{}, fmt.Errorf("%w: %s: %v", ErrUpstream, symbol, err)
	}

	Label(items)
	if items == nil {
		items = []model.NewsItem{}
	}
	report := model.NewsReport{
		Symbol:    symbol,
		Items:     items,
		Mood:      Aggregate(items),
		FetchedAt: s.now().UTC(),
	}
	s.store(report)
	if s.remote != nil {
		if err := s.remote.Set(ctx, report); err != nil {
			log.Printf("[news] remote cache set %s: %v", symbol, err)
		}
	}
	return report, nil
}

// Mood returns only the aggregate summary.
func (s *Service) Mood(ctx context.Context, symbol string) (model.MoodSummary, error) {
	r, err := s.Report(ctx, symbol)
	return r.Mood, err
}

func (s *Service) store(report model.NewsReport) {
	s.mu.Lock()
	s.cache[report.Symbol] = cached{report: report, expires: s.now().Add(s.ttl)}
	s.mu.Unlock()
}
