package holiday

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/username/legal-deadline-engine/pkg/dateutil"
)

const (
	DefaultBrasilAPIURL = "https://brasilapi.com.br"
	defaultHTTPTimeout  = 10 * time.Second
	defaultCacheTTL     = 24 * time.Hour
)

// BrasilAPISource fetches Brazilian national holidays from BrasilAPI
// (GET {base}/api/feriados/v1/{year}). Every entry becomes a one-off national holiday.
type BrasilAPISource struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
	cache      map[int]*cachedYear
	cacheMu    sync.RWMutex
	cacheTTL   time.Duration
	now        func() time.Time
}

type cachedYear struct {
	holidays  []Holiday
	fetchedAt time.Time
}

type brasilAPIHoliday struct {
	Date string `json:"date"`
	Name string `json:"name"`
	Type string `json:"type"`
}

// NewBrasilAPISource creates a new BrasilAPISource
func NewBrasilAPISource(baseURL string, cacheTTL time.Duration, logger *zap.Logger) *BrasilAPISource {
	if baseURL == "" {
		baseURL = DefaultBrasilAPIURL
	}
	if cacheTTL == 0 {
		cacheTTL = defaultCacheTTL
	}

	return &BrasilAPISource{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: defaultHTTPTimeout,
		},
		logger:   logger,
		cache:    make(map[int]*cachedYear),
		cacheTTL: cacheTTL,
		now:      time.Now,
	}
}

func (c *BrasilAPISource) Name() string { return "brasilapi" }

// Holidays fetches every year touched by the range
func (c *BrasilAPISource) Holidays(ctx context.Context, from, to time.Time) ([]Holiday, error) {
	if dateutil.After(from, to) {
		return nil, nil
	}

	var out []Holiday
	for year := from.Year(); year <= to.Year(); year++ {
		hs, err := c.year(ctx, year)
		if err != nil {
			return nil, err
		}
		out = append(out, hs...)
	}
	return InRange(out, from, to), nil
}

func (c *BrasilAPISource) year(ctx context.Context, year int) ([]Holiday, error) {
	c.cacheMu.RLock()
	if cached, ok := c.cache[year]; ok {
		if c.now().Sub(cached.fetchedAt) < c.cacheTTL {
			c.cacheMu.RUnlock()
			c.logger.Debug("Using cached holidays", zap.Int("year", year))
			return cached.holidays, nil
		}
	}
	c.cacheMu.RUnlock()

	holidays, err := c.fetchYear(ctx, year)
	if err != nil {
		return nil, err
	}

	c.cacheMu.Lock()
	c.cache[year] = &cachedYear{
		holidays:  holidays,
		fetchedAt: c.now(),
	}
	c.cacheMu.Unlock()

	return holidays, nil
}

func (c *BrasilAPISource) fetchYear(ctx context.Context, year int) ([]Holiday, error) {
	url := fmt.Sprintf("%s/api/feriados/v1/%d", c.baseURL, year)

	c.logger.Debug("Fetching holidays from BrasilAPI",
		zap.String("url", url),
		zap.Int("year", year))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch holidays: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("BrasilAPI returned status %d", resp.StatusCode)
	}

	var entries []brasilAPIHoliday
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return nil, fmt.Errorf("failed to parse holidays JSON: %w", err)
	}

	holidays := make([]Holiday, 0, len(entries))
	for _, e := range entries {
		date, err := time.Parse(dateutil.ISODate, e.Date)
		if err != nil {
			c.logger.Warn("Skipping holiday with bad date",
				zap.String("date", e.Date),
				zap.String("name", e.Name))
			continue
		}
		holidays = append(holidays, Holiday{
			Name:  e.Name,
			Date:  date,
			Scope: ScopeNational,
		})
	}

	c.logger.Info("Holidays fetched from BrasilAPI",
		zap.Int("year", year),
		zap.Int("holidays", len(holidays)))

	return holidays, nil
}
