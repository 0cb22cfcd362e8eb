package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/finboard/fundsync/internal/config"
)

const dateLayout = "2006-01-02"

// envelope is the provider's uniform response wrapper.
type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// HTTPProvider implements Provider against the provider's JSON API.
type HTTPProvider struct {
	baseURL string
	client  *http.Client
	logger  *slog.Logger
}

// NewHTTPProvider creates a provider client from configuration.
func NewHTTPProvider(cfg config.ProviderConfig, logger *slog.Logger) *HTTPProvider {
	return &HTTPProvider{
		baseURL: cfg.BaseURL,
		client: &http.Client{
			Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
		},
		logger: logger.With("component", "marketdata"),
	}
}

// FetchDetail retrieves the descriptive detail of one fund.
func (p *HTTPProvider) FetchDetail(ctx context.Context, code string) (*FundDetail, error) {
	var detail FundDetail
	params := url.Values{"code": {code}}
	if err := p.get(ctx, "/api/fund/detail", params, &detail); err != nil {
		return nil, err
	}
	return &detail, nil
}

// FetchRange retrieves NAV history for [start, end].
func (p *HTTPProvider) FetchRange(ctx context.Context, code string, start, end time.Time) ([]NAVEntry, error) {
	var entries []NAVEntry
	params := url.Values{
		"code":       {code},
		"start_date": {start.Format(dateLayout)},
		"end_date":   {end.Format(dateLayout)},
	}
	if err := p.get(ctx, "/api/fund/nav_history", params, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// FetchNavList retrieves one page of the latest-NAV list for a fund type.
func (p *HTTPProvider) FetchNavList(ctx context.Context, fundType, page, pageSize int) (*NavListPage, error) {
	var list NavListPage
	params := url.Values{
		"type":      {strconv.Itoa(fundType)},
		"page":      {strconv.Itoa(page)},
		"page_size": {strconv.Itoa(pageSize)},
	}
	if err := p.get(ctx, "/api/fund/nav_list", params, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// RangeLimit reports the maximum range size of a single nav_history call.
func (p *HTTPProvider) RangeLimit(ctx context.Context) (int, error) {
	var limit int
	if err := p.get(ctx, "/api/fund/nav_history_size", nil, &limit); err != nil {
		return 0, err
	}
	return limit, nil
}

// get issues a GET request, unwraps the provider envelope and decodes the
// data payload into out.
func (p *HTTPProvider) get(ctx context.Context, path string, params url.Values, out any) error {
	u := p.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("failed to build provider request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		p.logger.Error("provider request failed", "path", path, "error", err)
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrRejected, resp.StatusCode)
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("failed to decode provider response: %w", err)
	}

	// The provider also signals application-level failure inside the envelope.
	if env.Code != http.StatusOK {
		p.logger.Warn("provider returned error envelope",
			"path", path,
			"code", env.Code,
			"message", env.Message)
		if env.Code >= http.StatusInternalServerError {
			return fmt.Errorf("%w: %s", ErrUnavailable, env.Message)
		}
		return fmt.Errorf("%w: %s", ErrRejected, env.Message)
	}

	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("failed to decode provider payload: %w", err)
		}
	}

	return nil
}
