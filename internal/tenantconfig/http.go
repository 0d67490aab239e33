package tenantconfig

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

const lookupTimeout = 5 * time.Second

// httpProvider queries the control plane's tenant-config endpoint.
type httpProvider struct {
	baseURL string
	client  *http.Client
	log     *zap.SugaredLogger
}

// NewHTTPProvider builds a Provider over the control plane API. The base
// URL must be https; anything else is refused at construction.
func NewHTTPProvider(baseURL string, log *zap.SugaredLogger) (Provider, error) {
	if !strings.HasPrefix(strings.ToLower(baseURL), "https://") {
		return nil, fmt.Errorf("control plane URL must be https, got %q", baseURL)
	}
	return &httpProvider{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: lookupTimeout},
		log:     log,
	}, nil
}

func (p *httpProvider) Get(ctx context.Context, tenantID string) (TenantConfig, error) {
	u := p.baseURL + "/tenant-config?tenantId=" + url.QueryEscape(tenantID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return TenantConfig{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return TenantConfig{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		p.log.Warnw("tenant config lookup failed", "tenant", tenantID, "status", resp.StatusCode)
		return TenantConfig{}, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}
	var tc TenantConfig
	if err := json.NewDecoder(resp.Body).Decode(&tc); err != nil {
		return TenantConfig{}, fmt.Errorf("%w: malformed response", ErrUnavailable)
	}
	return tc, nil
}
