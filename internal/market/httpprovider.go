package market

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/sawpanic/tradingengine/internal/model"
)

// HTTPProvider is the shared transport for the three outbound provider
// contracts: a plain JSON-over-HTTPS client keyed by an API key read once
// at process init. An empty apiKey disables the provider —
// every call returns a KindAPI ProviderError, which the Builder's circuit
// breaker turns into FALLBACK immediately rather than after a failed probe.
type HTTPProvider struct {
	name    string
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewHTTPProvider wires a provider client. Pass apiKey="" to permanently
// disable it — missing keys disable that provider rather than erroring.
func NewHTTPProvider(name, baseURL, apiKey string) *HTTPProvider {
	return &HTTPProvider{
		name:    name,
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: DefaultProviderBudget},
	}
}

func (p *HTTPProvider) get(ctx context.Context, path, ticker string, out interface{}) error {
	if p.apiKey == "" {
		return newProviderError(p.name, KindAPI, fmt.Errorf("%s: no API key configured", p.name))
	}

	url := fmt.Sprintf("%s%s?ticker=%s", p.baseURL, path, ticker)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return newProviderError(p.name, KindMalformed, err)
	}
	req.Header.Set("Authorization", "Bearer "+p.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return newProviderError(p.name, KindNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return newProviderError(p.name, KindRateLimited, fmt.Errorf("rate limited"))
	}
	if resp.StatusCode >= 500 {
		return newProviderError(p.name, KindNetwork, fmt.Errorf("server error %d", resp.StatusCode))
	}
	if resp.StatusCode != http.StatusOK {
		return newProviderError(p.name, KindAPI, fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return newProviderError(p.name, KindMalformed, err)
	}
	return nil
}

// optionsResponse matches the options provider's wire shape.
type optionsResponse struct {
	PutCallRatio float64 `json:"putCallRatio"`
	IVPercentile float64 `json:"ivPercentile"`
	GammaBias    string  `json:"gammaBias"`
}

// Options implements OptionsProvider over HTTP.
func (p *HTTPProvider) Options(ctx context.Context, ticker string) (Options, error) {
	var resp optionsResponse
	if err := p.get(ctx, "/options", ticker, &resp); err != nil {
		return Options{}, err
	}
	return Options{
		PutCallRatio: resp.PutCallRatio,
		IVPercentile: resp.IVPercentile,
		GammaBias:    model.GammaBias(resp.GammaBias),
	}, nil
}

// statsResponse matches statsProvider's {atr.value, realizedVolatility.value,
// trendSlope} wire shape.
type statsResponse struct {
	ATR                struct {
		Value float64 `json:"value"`
	} `json:"atr"`
	RealizedVolatility struct {
		Value float64 `json:"value"`
	} `json:"realizedVolatility"`
	TrendSlope float64 `json:"trendSlope"`
}

// Stats implements StatsProvider over HTTP.
func (p *HTTPProvider) Stats(ctx context.Context, ticker string) (Stats, error) {
	var resp statsResponse
	if err := p.get(ctx, "/stats", ticker, &resp); err != nil {
		return Stats{}, err
	}
	return Stats{
		ATR14:      resp.ATR.Value,
		RV20:       resp.RealizedVolatility.Value,
		TrendSlope: resp.TrendSlope,
	}, nil
}

// liquidityResponse accepts both the nested ({spread:{bps}, depth:{score}})
// and flat (spreadBps, depthScore, tradeVelocity) wire shapes.
type liquidityResponse struct {
	Spread struct {
		BPS float64 `json:"bps"`
	} `json:"spread"`
	SpreadBps float64 `json:"spreadBps"`
	Depth     struct {
		Score float64 `json:"score"`
	} `json:"depth"`
	DepthScore    float64 `json:"depthScore"`
	Velocity      string  `json:"velocity"`
	TradeVelocity string  `json:"tradeVelocity"`
}

// Liquidity implements LiquidityProvider over HTTP.
func (p *HTTPProvider) Liquidity(ctx context.Context, ticker string) (Liquidity, error) {
	var resp liquidityResponse
	if err := p.get(ctx, "/liquidity", ticker, &resp); err != nil {
		return Liquidity{}, err
	}

	spreadBps := resp.SpreadBps
	if spreadBps == 0 {
		spreadBps = resp.Spread.BPS
	}
	depthScore := resp.DepthScore
	if depthScore == 0 {
		depthScore = resp.Depth.Score
	}
	velocity := resp.TradeVelocity
	if velocity == "" {
		velocity = resp.Velocity
	}
	if velocity == "" {
		velocity = string(model.VelocityNormal)
	}

	return Liquidity{
		SpreadBps:     spreadBps,
		DepthScore:    depthScore,
		TradeVelocity: model.TradeVelocity(velocity),
	}, nil
}
