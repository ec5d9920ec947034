package evaluator

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/lael-77/NDL-sub001/internal/platform/logging"
	"github.com/lael-77/NDL-sub001/internal/platform/resilience"
	"github.com/lael-77/NDL-sub001/internal/usecase"
)

var errEvaluatorTransient = crerr.New("evaluator transient failure")

// ClientConfig configures the AI evaluator client. The evaluator runs the
// submitted projects and posts its verdict back over the internal webhook.
type ClientConfig struct {
	HTTPClient     *http.Client
	BaseURL        string
	Token          string
	Timeout        time.Duration
	MaxRetries     int
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig
}

type Client struct {
	httpClient     *http.Client
	baseURL        string
	token          string
	maxRetries     int
	logger         *logging.Logger
	breaker        *resilience.CircuitBreaker
	circuitEnabled bool
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
		httpClient.Timeout = 15 * time.Second
	}

	breakerCfg := resilience.NormalizeCircuitBreakerConfig(cfg.CircuitBreaker)

	return &Client{
		httpClient:     httpClient,
		baseURL:        strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		token:          strings.TrimSpace(cfg.Token),
		maxRetries:     cfg.MaxRetries,
		logger:         logger,
		breaker:        resilience.NewCircuitBreaker(breakerCfg.FailureThreshold, breakerCfg.OpenTimeout, breakerCfg.HalfOpenMaxReq),
		circuitEnabled: breakerCfg.Enabled,
	}
}

// EvaluationRequest asks the evaluator to run one team's submission for a
// match. The callback URL is where the verdict lands once the run finishes.
type EvaluationRequest struct {
	MatchID     string `json:"matchId"`
	TeamID      string `json:"teamId"`
	CallbackURL string `json:"callbackUrl"`
}

type evaluationAccepted struct {
	RunID string `json:"runId"`
}

// RequestEvaluation enqueues an evaluation run and returns the evaluator's
// run id.
func (c *Client) RequestEvaluation(ctx context.Context, req EvaluationRequest) (string, error) {
	if strings.TrimSpace(req.MatchID) == "" || strings.TrimSpace(req.TeamID) == "" {
		return "", crerr.New("match id and team id are required")
	}

	if c.circuitEnabled {
		if err := c.breaker.Allow(); err != nil {
			c.logger.WarnContext(ctx, "evaluator circuit breaker rejected request", "state", c.breaker.State())
			return "", fmt.Errorf("%w: evaluator is temporarily unavailable", usecase.ErrDependencyUnavailable)
		}
	}

	body, err := sonic.Marshal(req)
	if err != nil {
		return "", crerr.Wrap(err, "marshal evaluation request")
	}

	raw, reqErr := c.execute(ctx, "/v1/evaluations", body)
	if c.circuitEnabled {
		if reqErr != nil && isEvaluatorCircuitFailure(reqErr) {
			c.breaker.RecordFailure()
		} else {
			c.breaker.RecordSuccess()
		}
	}
	if reqErr != nil {
		return "", reqErr
	}

	var accepted evaluationAccepted
	if err := sonic.Unmarshal(raw, &accepted); err != nil {
		return "", fmt.Errorf("decode evaluator payload: %w", err)
	}
	if strings.TrimSpace(accepted.RunID) == "" {
		return "", crerr.New("evaluator accepted the run without a run id")
	}

	c.logger.InfoContext(ctx, "evaluation run enqueued",
		"match_id", req.MatchID,
		"team_id", req.TeamID,
		"run_id", accepted.RunID,
	)
	return accepted.RunID, nil
}

func (c *Client) execute(ctx context.Context, path string, body []byte) ([]byte, error) {
	fullURL := c.baseURL + path

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, fullURL, strings.NewReader(string(body)))
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")
		if c.token != "" {
			req.Header.Set("Authorization", "Bearer "+c.token)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("%w: send request: %v", errEvaluatorTransient, err)
		} else {
			raw, readErr := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
			_ = resp.Body.Close()
			switch {
			case readErr != nil:
				lastErr = fmt.Errorf("%w: read response body: %v", errEvaluatorTransient, readErr)
			case resp.StatusCode >= 200 && resp.StatusCode < 300:
				return raw, nil
			case isRetryableStatus(resp.StatusCode):
				lastErr = fmt.Errorf("%w: evaluator status=%d body=%s", errEvaluatorTransient, resp.StatusCode, abbreviateBody(raw))
			default:
				return nil, fmt.Errorf("evaluator status=%d body=%s", resp.StatusCode, abbreviateBody(raw))
			}
		}

		if attempt == c.maxRetries {
			break
		}
		backoff := time.Duration(attempt+1) * time.Second
		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("evaluator request failed")
	}
	c.logger.WarnContext(ctx, "evaluator request failed", "url", fullURL, "error", lastErr)
	return nil, lastErr
}

func isEvaluatorCircuitFailure(err error) bool {
	return stderrors.Is(err, errEvaluatorTransient)
}

func isRetryableStatus(statusCode int) bool {
	return statusCode == http.StatusRequestTimeout ||
		statusCode == http.StatusTooManyRequests ||
		statusCode >= http.StatusInternalServerError
}

func abbreviateBody(raw []byte) string {
	body := strings.TrimSpace(string(raw))
	if len(body) > 512 {
		return body[:512] + "...(truncated)"
	}
	return body
}
