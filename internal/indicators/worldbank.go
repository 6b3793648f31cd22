package indicators

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"golang.org/x/sync/errgroup"

	"github.com/mr1hm/emdat-stats/internal/models"
	"github.com/mr1hm/emdat-stats/internal/table"
)

const (
	DefaultBaseURL = "https://api.worldbank.org/v2"
	DefaultPerPage = 1000

	// maxConcurrentPages bounds the fan-out after the first page.
	maxConcurrentPages = 4
)

type wbPage struct {
	Page  int `json:"page"`
	Pages int `json:"pages"`
}

type wbObservation struct {
	Indicator struct {
		ID string `json:"id"`
	} `json:"indicator"`
	Country struct {
		ID    string `json:"id"`
		Value string `json:"value"`
	} `json:"country"`
	CountryISO3 string   `json:"countryiso3code"`
	Date        string   `json:"date"`
	Value       *float64 `json:"value"`
}

type wbMessage struct {
	Message []struct {
		ID    string `json:"id"`
		Key   string `json:"key"`
		Value string `json:"value"`
	} `json:"message"`
}

// WorldBankClient talks to the World Bank v2 indicator API. It does not
// retry; wrap it in a RetryFetcher for that.
type WorldBankClient struct {
	baseURL string
	perPage int
	client  *http.Client
}

func NewWorldBankClient(baseURL string, timeout time.Duration, perPage int) *WorldBankClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if perPage <= 0 {
		perPage = DefaultPerPage
	}
	return &WorldBankClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		perPage: perPage,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

func (c *WorldBankClient) Fetch(ctx context.Context, ind Indicator, isoCodes []string, fromYear, toYear int) (*table.Matrix, error) {
	isos := normalize(isoCodes)
	if len(isos) == 0 {
		return table.NewMatrix(nil, nil), nil
	}
	if fromYear > toYear {
		return nil, fmt.Errorf("%w: year range %d:%d", models.ErrInvalidField, fromYear, toYear)
	}

	first, obs, err := c.page(ctx, ind, isos, fromYear, toYear, 1)
	if err != nil {
		return nil, err
	}

	var mu sync.Mutex
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(maxConcurrentPages)
	for p := 2; p <= first.Pages; p++ {
		p := p
		eg.Go(func() error {
			_, more, err := c.page(egCtx, ind, isos, fromYear, toYear, p)
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			obs = append(obs, more...)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	slog.Debug("fetched indicator", "indicator", ind.Code, "countries", len(isos), "pages", first.Pages, "observations", len(obs))
	return toMatrix(ind, isos, fromYear, toYear, obs)
}

func (c *WorldBankClient) page(ctx context.Context, ind Indicator, isos []string, fromYear, toYear, page int) (wbPage, []wbObservation, error) {
	q := url.Values{}
	q.Set("format", "json")
	q.Set("date", fmt.Sprintf("%d:%d", fromYear, toYear))
	q.Set("per_page", strconv.Itoa(c.perPage))
	q.Set("page", strconv.Itoa(page))
	u := fmt.Sprintf("%s/country/%s/indicator/%s?%s", c.baseURL, strings.Join(isos, ";"), url.PathEscape(ind.Code), q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return wbPage{}, nil, fmt.Errorf("error creating request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return wbPage{}, nil, fmt.Errorf("%w: %s page %d: %w", models.ErrExternalFetch, ind.Code, page, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return wbPage{}, nil, fmt.Errorf("%w: unexpected status code: %d - status: %s", models.ErrExternalFetch, resp.StatusCode, resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return wbPage{}, nil, fmt.Errorf("%w: error reading body: %w", models.ErrExternalFetch, err)
	}

	// The API answers with [meta, observations], or [message] on error.
	var parts []json.RawMessage
	if err := sonic.Unmarshal(body, &parts); err != nil {
		return wbPage{}, nil, fmt.Errorf("%w: error decoding body: %w", models.ErrExternalFetch, err)
	}
	if len(parts) < 2 {
		var msg wbMessage
		if len(parts) == 1 && sonic.Unmarshal(parts[0], &msg) == nil && len(msg.Message) > 0 {
			return wbPage{}, nil, fmt.Errorf("%w: %s: %s", models.ErrExternalFetch, msg.Message[0].Key, msg.Message[0].Value)
		}
		return wbPage{}, nil, fmt.Errorf("%w: unexpected response shape", models.ErrExternalFetch)
	}

	var meta wbPage
	if err := sonic.Unmarshal(parts[0], &meta); err != nil {
		return wbPage{}, nil, fmt.Errorf("%w: error decoding page meta: %w", models.ErrExternalFetch, err)
	}
	var obs []wbObservation
	if err := sonic.Unmarshal(parts[1], &obs); err != nil {
		return wbPage{}, nil, fmt.Errorf("%w: error decoding observations: %w", models.ErrExternalFetch, err)
	}
	return meta, obs, nil
}

func toMatrix(ind Indicator, isos []string, fromYear, toYear int, obs []wbObservation) (*table.Matrix, error) {
	cols := append([]string(nil), isos...)
	sort.Strings(cols)
	m := table.NewMatrix(table.YearSpan(fromYear, toYear), cols)

	want := make(map[string]bool, len(isos))
	for _, iso := range isos {
		want[iso] = true
	}
	seen := make(map[string]bool, len(isos))

	for _, o := range obs {
		if o.Value == nil {
			continue
		}
		year, err := strconv.Atoi(o.Date)
		if err != nil {
			continue
		}
		iso := strings.ToUpper(o.CountryISO3)
		if !want[iso] {
			iso = strings.ToUpper(o.Country.ID)
		}
		if !want[iso] {
			continue
		}
		if m.Add(year, iso, *o.Value) {
			seen[iso] = true
		}
	}

	var missing []string
	for _, iso := range cols {
		if !seen[iso] {
			missing = append(missing, iso)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: no %s data for %s", models.ErrExternalFetch, ind.Code, strings.Join(missing, ", "))
	}
	return m, nil
}
