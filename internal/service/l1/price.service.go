package l1_service

import (
	"agentbacktest/internal/db/models/postgres/public/model"
	"agentbacktest/internal/domain"
	"agentbacktest/internal/logger"
	"agentbacktest/internal/metrics"
	"agentbacktest/internal/repository"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

var ErrPriceNotFound = errors.New("price not found")

type PriceService interface {
	LoadPriceCache(ctx context.Context, symbols []string, start, end time.Time) (*PriceCache, error)
}

type priceServiceHandler struct {
	PriceRepository repository.PriceRepository
	NumWorkers      int
}

func NewPriceService(priceRepository repository.PriceRepository) PriceService {
	return priceServiceHandler{
		PriceRepository: priceRepository,
		NumWorkers:      10,
	}
}

// PriceCache holds daily closes per symbol sorted by date. It is read only
// once built.
type PriceCache struct {
	prices map[string][]domain.AssetPrice
}

func NewPriceCache(prices []domain.AssetPrice) *PriceCache {
	c := &PriceCache{
		prices: map[string][]domain.AssetPrice{},
	}
	for _, p := range prices {
		c.prices[p.Symbol] = append(c.prices[p.Symbol], p)
	}
	for symbol := range c.prices {
		sortPrices(c.prices[symbol])
	}
	return c
}

func sortPrices(prices []domain.AssetPrice) {
	sort.SliceStable(prices, func(i, j int) bool {
		return prices[i].Date.Before(prices[j].Date)
	})
}

// indexOnOrBefore returns the index of the last price dated on or before
// date, or -1
func (c *PriceCache) indexOnOrBefore(symbol string, date time.Time) int {
	prices := c.prices[symbol]
	i := sort.Search(len(prices), func(i int) bool {
		return prices[i].Date.After(date)
	})
	return i - 1
}

// Get returns the latest close within [date-1, date]. Anything older is
// treated as missing so a stale close never stands in for a real one.
func (c *PriceCache) Get(symbol string, date time.Time) (decimal.Decimal, error) {
	i := c.indexOnOrBefore(symbol, date)
	if i < 0 {
		return decimal.Zero, fmt.Errorf("%w: %s on %s", ErrPriceNotFound, symbol, date.Format(time.DateOnly))
	}
	p := c.prices[symbol][i]
	if p.Date.Before(date.AddDate(0, 0, -1)) {
		return decimal.Zero, fmt.Errorf("%w: %s on %s", ErrPriceNotFound, symbol, date.Format(time.DateOnly))
	}
	return p.Price, nil
}

// GetMany fails if any symbol is missing
func (c *PriceCache) GetMany(symbols []string, date time.Time) (map[string]decimal.Decimal, error) {
	out := map[string]decimal.Decimal{}
	missing := []string{}
	for _, s := range symbols {
		p, err := c.Get(s, date)
		if err != nil {
			missing = append(missing, s)
			continue
		}
		out[s] = p
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s on %s", ErrPriceNotFound, strings.Join(missing, ","), date.Format(time.DateOnly))
	}
	return out, nil
}

// History returns up to n closes dated on or before date, oldest first
func (c *PriceCache) History(symbol string, date time.Time, n int) []decimal.Decimal {
	i := c.indexOnOrBefore(symbol, date)
	if i < 0 || n <= 0 {
		return []decimal.Decimal{}
	}
	start := i - n + 1
	if start < 0 {
		start = 0
	}
	out := []decimal.Decimal{}
	for _, p := range c.prices[symbol][start : i+1] {
		out = append(out, p.Price)
	}
	return out
}

func (c *PriceCache) Symbols() []string {
	out := []string{}
	for s := range c.prices {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// LoadPriceCache fetches every symbol concurrently. A symbol that fails to
// load is logged and left out, so the days that need it get skipped; if
// nothing loads the whole call fails.
func (h priceServiceHandler) LoadPriceCache(ctx context.Context, symbols []string, start, end time.Time) (*PriceCache, error) {
	profile, endProfile := domain.GetProfile(ctx)
	defer endProfile()
	_, endSpan := profile.StartNewSpan("load price cache")
	defer endSpan()

	log := logger.FromContext(ctx)

	numWorkers := h.NumWorkers
	if numWorkers <= 0 {
		numWorkers = 1
	}

	inputCh := make(chan string, len(symbols))
	for _, s := range symbols {
		inputCh <- s
	}
	close(inputCh)

	var (
		mu     sync.Mutex
		wg     sync.WaitGroup
		prices = []domain.AssetPrice{}
		errs   = map[string]error{}
	)

	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for symbol := range inputCh {
				if ctx.Err() != nil {
					return
				}
				result, err := h.PriceRepository.List(ctx, symbol, start, end)
				mu.Lock()
				if err != nil {
					errs[symbol] = err
				} else {
					prices = append(prices, result...)
				}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	for symbol, err := range errs {
		metrics.PriceLoadFailures.Inc()
		log.Warnf("failed to load prices for %s: %s", symbol, err.Error())
	}
	if len(symbols) > 0 && len(errs) == len(symbols) {
		joined := []error{}
		for _, err := range errs {
			joined = append(joined, err)
		}
		return nil, fmt.Errorf("failed to load prices for any symbol: %w", errors.Join(joined...))
	}

	return NewPriceCache(prices), nil
}

// IngestPrices copies closes from source into Postgres. With a nil start it
// resumes the day after the latest stored close.
func IngestPrices(
	ctx context.Context,
	tx *sql.Tx,
	symbol string,
	source repository.PriceRepository,
	sink repository.AdjustedPriceRepository,
	start *time.Time,
) (int, error) {
	s := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	if start != nil {
		s = *start
	} else {
		latest, err := sink.LatestDate(ctx, symbol)
		if err != nil {
			return 0, err
		}
		if latest != nil {
			s = latest.AddDate(0, 0, 1)
		}
	}
	now := time.Now().UTC()
	if s.After(now) {
		return 0, nil
	}

	prices, err := source.List(ctx, symbol, s, now)
	if err != nil {
		return 0, fmt.Errorf("failed to get prices for %s: %w", symbol, err)
	}

	models := []model.AdjustedPrice{}
	for _, p := range prices {
		models = append(models, model.AdjustedPrice{
			Symbol:    symbol,
			Date:      p.Date,
			Price:     p.Price.InexactFloat64(),
			CreatedAt: now,
		})
	}

	if err := sink.Add(tx, models); err != nil {
		return 0, err
	}

	return len(models), nil
}
