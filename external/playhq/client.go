package playhq

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/sidelinehq/clubpromo/internal/platform/logging"
	"github.com/sidelinehq/clubpromo/internal/platform/resilience"
	"golang.org/x/time/rate"
)

const (
	defaultBaseURL   = "https://api.playhq.com"
	defaultTenant    = "ca"
	maxResponseBytes = 6 << 20
	maxErrorBodyLen  = 512
)

// ErrUnavailable is returned when the circuit breaker is open; the upstream
// is assumed down and no request is attempted.
var ErrUnavailable = crerr.New("playhq temporarily unavailable")

// ErrUnreachable wraps network-level failures (DNS, dial, read) so callers
// can tell them apart from upstream-rejected requests.
var ErrUnreachable = crerr.New("playhq unreachable")

// RequestError is a non-2xx response from the upstream, with the response
// body captured as text so failures keep their upstream diagnostics.
type RequestError struct {
	Status int
	Body   string
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("playhq status=%d body=%s", e.Status, e.Body)
}

// Credentials identify one organization against the upstream. They travel
// per call because every stored organization carries its own API key.
type Credentials struct {
	APIKey string
	Tenant string
}

type ClientConfig struct {
	HTTPClient        *http.Client
	BaseURL           string
	DefaultTenant     string
	Timeout           time.Duration
	RequestsPerSecond float64
	Logger            *logging.Logger
	CircuitBreaker    resilience.CircuitBreakerConfig
}

type Client struct {
	httpClient     *http.Client
	baseURL        string
	defaultTenant  string
	logger         *logging.Logger
	breaker        *resilience.CircuitBreaker
	circuitEnabled bool
	limiter        *rate.Limiter
	flight         resilience.SingleFlight
}

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = 20 * time.Second
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	tenant := strings.TrimSpace(cfg.DefaultTenant)
	if tenant == "" {
		tenant = defaultTenant
	}

	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}

	breakerCfg := resilience.NormalizeCircuitBreakerConfig(cfg.CircuitBreaker)
	return &Client{
		httpClient:     httpClient,
		baseURL:        baseURL,
		defaultTenant:  tenant,
		logger:         logger,
		breaker:        resilience.NewCircuitBreaker(breakerCfg.FailureThreshold, breakerCfg.OpenTimeout, breakerCfg.HalfOpenMaxReq),
		circuitEnabled: breakerCfg.Enabled,
		limiter:        limiter,
	}
}

// FetchSeasons lists every season the organization participates in. The
// endpoint is not paginated upstream.
func (c *Client) FetchSeasons(ctx context.Context, orgID string, creds Credentials) ([]Season, error) {
	if strings.TrimSpace(orgID) == "" {
		return nil, fmt.Errorf("organisation id cannot be empty")
	}

	var envelope seasonsEnvelope
	path := fmt.Sprintf("/v1/organisations/%s/seasons", url.PathEscape(orgID))
	if err := c.doJSON(ctx, path, nil, creds, &envelope); err != nil {
		return nil, fmt.Errorf("fetch seasons org_id=%s: %w", orgID, err)
	}
	return envelope.Data, nil
}

// FetchAllTeams drains the paginated team roster for a season.
func (c *Client) FetchAllTeams(ctx context.Context, seasonID string, creds Credentials) ([]Team, error) {
	if strings.TrimSpace(seasonID) == "" {
		return nil, fmt.Errorf("season id cannot be empty")
	}

	path := fmt.Sprintf("/v1/seasons/%s/teams", url.PathEscape(seasonID))
	teams, err := collectPages(ctx, func(ctx context.Context, cursor string) (Page[Team], error) {
		var page Page[Team]
		if err := c.doJSON(ctx, path, cursorQuery(cursor), creds, &page); err != nil {
			return Page[Team]{}, err
		}
		return page, nil
	})
	if err != nil {
		return nil, fmt.Errorf("fetch teams season_id=%s: %w", seasonID, err)
	}
	return teams, nil
}

// FetchAllFixtures drains the paginated fixture list for a team.
func (c *Client) FetchAllFixtures(ctx context.Context, teamID string, creds Credentials) ([]Fixture, error) {
	if strings.TrimSpace(teamID) == "" {
		return nil, fmt.Errorf("team id cannot be empty")
	}

	path := fmt.Sprintf("/v1/teams/%s/fixture", url.PathEscape(teamID))
	fixtures, err := collectPages(ctx, func(ctx context.Context, cursor string) (Page[Fixture], error) {
		var page Page[Fixture]
		if err := c.doJSON(ctx, path, cursorQuery(cursor), creds, &page); err != nil {
			return Page[Fixture]{}, err
		}
		return page, nil
	})
	if err != nil {
		return nil, fmt.Errorf("fetch fixtures team_id=%s: %w", teamID, err)
	}
	return fixtures, nil
}

func (c *Client) FetchGrades(ctx context.Context, seasonID string, creds Credentials) ([]Grade, error) {
	if strings.TrimSpace(seasonID) == "" {
		return nil, fmt.Errorf("season id cannot be empty")
	}

	var envelope gradesEnvelope
	path := fmt.Sprintf("/v1/seasons/%s/grades", url.PathEscape(seasonID))
	if err := c.doJSON(ctx, path, nil, creds, &envelope); err != nil {
		return nil, fmt.Errorf("fetch grades season_id=%s: %w", seasonID, err)
	}
	return envelope.Data, nil
}

func (c *Client) FetchLadder(ctx context.Context, gradeID string, creds Credentials) ([]Ladder, error) {
	if strings.TrimSpace(gradeID) == "" {
		return nil, fmt.Errorf("grade id cannot be empty")
	}

	var envelope laddersEnvelope
	path := fmt.Sprintf("/v2/grades/%s/ladder", url.PathEscape(gradeID))
	if err := c.doJSON(ctx, path, nil, creds, &envelope); err != nil {
		return nil, fmt.Errorf("fetch ladder grade_id=%s: %w", gradeID, err)
	}
	return envelope.Ladders, nil
}

func (c *Client) FetchGameSummary(ctx context.Context, fixtureID string, creds Credentials) (*GameSummary, error) {
	if strings.TrimSpace(fixtureID) == "" {
		return nil, fmt.Errorf("fixture id cannot be empty")
	}

	var envelope gameSummaryEnvelope
	path := fmt.Sprintf("/v2/games/%s/summary", url.PathEscape(fixtureID))
	if err := c.doJSON(ctx, path, nil, creds, &envelope); err != nil {
		return nil, fmt.Errorf("fetch game summary fixture_id=%s: %w", fixtureID, err)
	}
	return envelope.Data, nil
}

func (c *Client) doJSON(ctx context.Context, path string, query map[string]string, creds Credentials, target any) error {
	if c.circuitEnabled {
		if err := c.breaker.Allow(); err != nil {
			c.logger.WarnContext(ctx, "playhq circuit breaker rejected request", "state", c.breaker.State())
			return ErrUnavailable
		}
	}

	values := url.Values{}
	for key, value := range query {
		values.Set(key, value)
	}

	fullURL := c.baseURL + path
	if encoded := values.Encode(); encoded != "" {
		fullURL += "?" + encoded
	}

	tenant := strings.TrimSpace(creds.Tenant)
	if tenant == "" {
		tenant = c.defaultTenant
	}

	// Key includes the API key so identical paths under different
	// organizations never share a response.
	key := creds.APIKey + "|" + tenant + "|" + path + "?" + values.Encode()
	out, err, _ := c.flight.Do(key, func() (any, error) {
		raw, reqErr := c.executeRequest(ctx, fullURL, creds.APIKey, tenant)
		if c.circuitEnabled {
			if reqErr != nil && isCircuitFailure(reqErr) {
				c.breaker.RecordFailure()
			} else {
				c.breaker.RecordSuccess()
			}
		}
		return raw, reqErr
	})
	if err != nil {
		return err
	}

	raw, ok := out.([]byte)
	if !ok {
		return fmt.Errorf("unexpected response payload type %T", out)
	}
	if err := sonic.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("decode playhq payload: %w", err)
	}
	return nil
}

// executeRequest performs exactly one round trip. Retry and skip decisions
// belong to callers, which know whether a resource is fatal or droppable.
func (c *Client) executeRequest(ctx context.Context, fullURL, apiKey, tenant string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("x-api-key", apiKey)
	req.Header.Set("x-phq-tenant", tenant)

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		wrapped := fmt.Errorf("%w: send request: %s", ErrUnreachable, sanitizeSensitiveText(err.Error(), apiKey))
		c.logger.WarnContext(ctx, "playhq request failed", "url", fullURL, "error", wrapped)
		return nil, wrapped
	}
	raw, readErr := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	_ = resp.Body.Close()
	if readErr != nil {
		return nil, fmt.Errorf("%w: read response body: %v", ErrUnreachable, readErr)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		reqErr := &RequestError{Status: resp.StatusCode, Body: abbreviateBody(raw)}
		c.logger.WarnContext(ctx, "playhq request rejected", "url", fullURL, "status", resp.StatusCode)
		return nil, reqErr
	}
	return raw, nil
}

// isCircuitFailure selects the failures that should trip the breaker:
// network errors and upstream outage/throttling statuses. Client-side
// mistakes (404, 400) say nothing about upstream health.
func isCircuitFailure(err error) bool {
	if crerr.Is(err, ErrUnreachable) {
		return true
	}
	var reqErr *RequestError
	if crerr.As(err, &reqErr) {
		return reqErr.Status == http.StatusTooManyRequests || reqErr.Status >= 500
	}
	return false
}

func cursorQuery(cursor string) map[string]string {
	if strings.TrimSpace(cursor) == "" {
		return nil
	}
	return map[string]string{"cursor": cursor}
}

func abbreviateBody(raw []byte) string {
	body := strings.TrimSpace(string(raw))
	if len(body) > maxErrorBodyLen {
		return body[:maxErrorBodyLen] + "..."
	}
	return body
}

func sanitizeSensitiveText(value, apiKey string) string {
	value = strings.TrimSpace(value)
	if value == "" || apiKey == "" {
		return value
	}
	return strings.ReplaceAll(value, apiKey, "REDACTED")
}
