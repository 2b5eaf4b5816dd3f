package analytics

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/fintrackit/portfolio-analytics/internal/models"
)

// fakePriceStore is an in-memory PriceStore keyed by symbol and UTC day.
type fakePriceStore struct {
	mu   sync.Mutex
	bars map[string]map[time.Time]models.PriceBar
}

func newFakePriceStore() *fakePriceStore {
	return &fakePriceStore{bars: make(map[string]map[time.Time]models.PriceBar)}
}

func (s *fakePriceStore) seed(bars ...models.PriceBar) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range bars {
		if s.bars[b.Symbol] == nil {
			s.bars[b.Symbol] = make(map[time.Time]models.PriceBar)
		}
		s.bars[b.Symbol][Day(b.TradingDate)] = b
	}
}

func (s *fakePriceStore) GetBarsInRange(_ context.Context, symbol string, from, to time.Time) ([]models.PriceBar, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.PriceBar
	for d, b := range s.bars[symbol] {
		if !d.Before(Day(from)) && !d.After(Day(to)) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (s *fakePriceStore) GetExistingDates(_ context.Context, symbol string) (map[time.Time]bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	dates := make(map[time.Time]bool, len(s.bars[symbol]))
	for d := range s.bars[symbol] {
		dates[d] = true
	}
	return dates, nil
}

func (s *fakePriceStore) PutBarsIfAbsent(_ context.Context, bars []models.PriceBar) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range bars {
		if s.bars[b.Symbol] == nil {
			s.bars[b.Symbol] = make(map[time.Time]models.PriceBar)
		}
		d := Day(b.TradingDate)
		if _, exists := s.bars[b.Symbol][d]; !exists {
			s.bars[b.Symbol][d] = b
		}
	}
	return nil
}

// fakePriceSource replays canned bars and counts fetches.
type fakePriceSource struct {
	mu      sync.Mutex
	bars    map[string][]models.SourceBar
	err     error
	fetches int
}

func newFakePriceSource() *fakePriceSource {
	return &fakePriceSource{bars: make(map[string][]models.SourceBar)}
}

func (s *fakePriceSource) FetchHistory(_ context.Context, symbol string, from, to time.Time) ([]models.SourceBar, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fetches++
	if s.err != nil {
		return nil, s.err
	}
	var out []models.SourceBar
	for _, b := range s.bars[symbol] {
		d := Day(b.Date)
		if !d.Before(Day(from)) && d.Before(Day(to)) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (s *fakePriceSource) fetchCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fetches
}

// throttledError mimics a provider error that signals throttling.
type throttledError struct {
	throttled bool
}

func (e *throttledError) Error() string     { return "provider says no" }
func (e *throttledError) RateLimited() bool { return e.throttled }

// fakeSharpeStore is an in-memory SharpeStore.
type fakeSharpeStore struct {
	mu      sync.Mutex
	entries map[string]models.SharpeCacheEntry
	upserts int
}

func newFakeSharpeStore() *fakeSharpeStore {
	return &fakeSharpeStore{entries: make(map[string]models.SharpeCacheEntry)}
}

func (s *fakeSharpeStore) Get(_ context.Context, symbol string) (*models.SharpeCacheEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[symbol]
	if !ok {
		return nil, nil
	}
	return &entry, nil
}

func (s *fakeSharpeStore) Upsert(_ context.Context, entry models.SharpeCacheEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[entry.Symbol] = entry
	s.upserts++
	return nil
}

// fakePublisher records published events.
type fakePublisher struct {
	mu          sync.Mutex
	seriesCalls int
	sharpeCalls int
}

func (p *fakePublisher) PublishSeriesCached(_ context.Context, _ string, _ int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.seriesCalls++
	return nil
}

func (p *fakePublisher) PublishSharpeRefreshed(_ context.Context, _ models.SharpeCacheEntry) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sharpeCalls++
	return nil
}

// weekdayBars generates one bar per weekday over [start, end] with prices
// following p(k+1) = p(k) * (1 + drift + amp*sin(k+phase)), rounded to
// integer currency units. Different phases give decorrelated return series.
func weekdayBars(symbol string, start, end time.Time, initial, drift, amp, phase float64) []models.PriceBar {
	var bars []models.PriceBar
	price := initial
	k := 0
	for d := Day(start); !d.After(Day(end)); d = d.AddDate(0, 0, 1) {
		if wd := d.Weekday(); wd == time.Saturday || wd == time.Sunday {
			continue
		}
		bars = append(bars, models.PriceBar{
			Symbol:          symbol,
			TradingDate:     d,
			ClosingPrice:    int64(math.Round(price)),
			VolumeThousands: 1000,
		})
		price *= 1 + drift + amp*math.Sin(float64(k)+phase)
		k++
	}
	return bars
}
