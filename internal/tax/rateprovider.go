package tax

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/Bbachelard/Option/internal/domain"
	"github.com/Bbachelard/Option/pkg/httpclient"
)

// rateResponse is the tax service's rate payload.
type rateResponse struct {
	Rate float64 `json:"rate"`
}

// HTTPRateProvider fetches tax rates from the tax service over HTTP. Calls go
// through a circuit breaker; when the breaker is open or the service fails,
// the configured fallback rate is used so pricing keeps working.
type HTTPRateProvider struct {
	client       *httpclient.CircuitBreakerClient
	baseURL      string
	fallbackRate float64
	logger       *slog.Logger
}

// NewHTTPRateProvider creates a rate provider against the tax service at baseURL.
func NewHTTPRateProvider(client *httpclient.CircuitBreakerClient, baseURL string, fallbackRate float64, logger *slog.Logger) *HTTPRateProvider {
	return &HTTPRateProvider{
		client:       client,
		baseURL:      baseURL,
		fallbackRate: fallbackRate,
		logger:       logger,
	}
}

// Rate resolves the rate for a tax rule at the given location.
func (p *HTTPRateProvider) Rate(ctx context.Context, taxRuleID string, country domain.Country, state *domain.State) (float64, error) {
	q := url.Values{}
	q.Set("country", country.Code)
	if state != nil {
		q.Set("state", state.Code)
	}

	endpoint := fmt.Sprintf("%s/api/v1/tax-rules/%s/rate?%s", p.baseURL, url.PathEscape(taxRuleID), q.Encode())

	resp, err := p.client.Get(ctx, endpoint)
	if err != nil {
		p.logger.WarnContext(ctx, "tax service unavailable, using fallback rate",
			slog.String("tax_rule_id", taxRuleID),
			slog.Float64("fallback_rate", p.fallbackRate),
			slog.String("error", err.Error()),
		)
		return p.fallbackRate, nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		p.logger.WarnContext(ctx, "tax service returned unexpected status, using fallback rate",
			slog.String("tax_rule_id", taxRuleID),
			slog.Int("status", resp.StatusCode),
		)
		return p.fallbackRate, nil
	}

	var body rateResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0, fmt.Errorf("decode tax rate response: %w", err)
	}

	return body.Rate, nil
}
