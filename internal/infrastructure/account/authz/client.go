package authz

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/lael-77/NDL-sub001/internal/domain/user"
	"github.com/lael-77/NDL-sub001/internal/platform/logging"
	"github.com/lael-77/NDL-sub001/internal/platform/resilience"
	"github.com/lael-77/NDL-sub001/internal/usecase"
)

// Client introspects bearer tokens against the league identity service and
// caches verified principals for a short window.
type Client struct {
	httpClient    *http.Client
	introspectURL string
	adminKey      string
	logger        *logging.Logger
	cache         *inMemoryPrincipalCache
	breaker       *resilience.CircuitBreaker
}

func NewClient(httpClient *http.Client, baseURL, introspectPath, adminKey string, cacheTTL time.Duration, circuit resilience.CircuitBreakerConfig, logger *logging.Logger) *Client {
	if logger == nil {
		logger = logging.Default()
	}

	if httpClient == nil {
		httpClient = &http.Client{}
	}

	var breaker *resilience.CircuitBreaker
	circuit = resilience.NormalizeCircuitBreakerConfig(circuit)
	if circuit.Enabled {
		breaker = resilience.NewCircuitBreaker(circuit.FailureThreshold, circuit.OpenTimeout, circuit.HalfOpenMaxReq)
	}

	return &Client{
		httpClient:    httpClient,
		introspectURL: buildURL(baseURL, introspectPath),
		adminKey:      strings.TrimSpace(adminKey),
		logger:        logger,
		cache:         newInMemoryPrincipalCache(cacheTTL, 4096),
		breaker:       breaker,
	}
}

func (c *Client) VerifyAccessToken(ctx context.Context, token string) (user.Principal, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return user.Principal{}, fmt.Errorf("%w: token is required", usecase.ErrUnauthorized)
	}

	cacheKey := hashToken(token)
	if principal, ok := c.cache.Get(cacheKey); ok {
		return principal, nil
	}

	if c.breaker != nil && c.breaker.Allow() != nil {
		return user.Principal{}, fmt.Errorf("%w: authz circuit open", usecase.ErrDependencyUnavailable)
	}

	payload := introspectRequest{Token: token}
	encoded, err := sonic.Marshal(payload)
	if err != nil {
		return user.Principal{}, fmt.Errorf("marshal introspect request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.introspectURL, bytes.NewReader(encoded))
	if err != nil {
		return user.Principal{}, fmt.Errorf("create introspect request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.adminKey != "" {
		req.Header.Set("X-Admin-Key", c.adminKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.recordCircuitResult(false)
		return user.Principal{}, fmt.Errorf("request introspection: %w", err)
	}
	defer resp.Body.Close()
	c.recordCircuitResult(resp.StatusCode < http.StatusInternalServerError)

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return user.Principal{}, fmt.Errorf("%w: introspection denied", usecase.ErrUnauthorized)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return user.Principal{}, fmt.Errorf("read introspect response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		c.logger.WarnContext(ctx, "authz introspection non-200",
			"status_code", resp.StatusCode,
		)
		return user.Principal{}, fmt.Errorf("authz introspection failed with status %d", resp.StatusCode)
	}

	var decoded introspectResponse
	if err := sonic.Unmarshal(body, &decoded); err != nil {
		return user.Principal{}, fmt.Errorf("unmarshal introspect response: %w", err)
	}

	if !decoded.Active {
		return user.Principal{}, fmt.Errorf("%w: inactive token", usecase.ErrUnauthorized)
	}
	if strings.TrimSpace(decoded.UserID) == "" {
		return user.Principal{}, fmt.Errorf("invalid introspect response: user_id is empty")
	}

	role := user.RoleJudge
	if strings.EqualFold(strings.TrimSpace(decoded.Role), string(user.RoleAdmin)) {
		role = user.RoleAdmin
	}

	principal := user.Principal{
		UserID: decoded.UserID,
		Role:   role,
	}
	c.cache.Set(cacheKey, principal)
	return principal, nil
}

func (c *Client) recordCircuitResult(success bool) {
	if c.breaker == nil {
		return
	}
	if success {
		c.breaker.RecordSuccess()
		return
	}
	c.breaker.RecordFailure()
}

type introspectRequest struct {
	Token string `json:"token"`
}

type introspectResponse struct {
	Active bool   `json:"active"`
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}
