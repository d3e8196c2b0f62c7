package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Amerigo2020/vestigas-co2-scribe/internal/config"
)

const maxAttempts = 5

// AzureProvider calls an Azure OpenAI embeddings deployment.
type AzureProvider struct {
	cfg        config.Config
	httpClient *http.Client
	limiter    *RateLimiter
	sleep      func(context.Context, time.Duration) error
}

type embeddingRequest struct {
	Input string `json:"input"`
}

type embeddingResponse struct {
	Data []struct {
		Embedding []float64 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func NewAzureProvider(cfg config.Config) *AzureProvider {
	return &AzureProvider{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: Timeout(cfg)},
		limiter:    NewRateLimiter(cfg.EmbeddingRateLimitRPS),
		sleep:      sleepContext,
	}
}

func (p *AzureProvider) Name() string { return "azure:" + p.cfg.AzureDeployment }

func (p *AzureProvider) Embed(ctx context.Context, text string) ([]float64, error) {
	input := strings.TrimSpace(text)
	if input == "" {
		return nil, ErrEmptyText
	}

	endpoint, err := p.endpoint()
	if err != nil {
		return nil, err
	}
	payload, err := json.Marshal(embeddingRequest{Input: input})
	if err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := p.limiter.WaitTurn(ctx); err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("api-key", p.cfg.AzureAPIKey)
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")

		resp, err := p.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = err
			if err := p.backoff(ctx, attempt); err != nil {
				return nil, err
			}
			continue
		}

		body, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if readErr != nil {
			lastErr = readErr
			if err := p.backoff(ctx, attempt); err != nil {
				return nil, err
			}
			continue
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			if isRetryableStatus(resp.StatusCode) && attempt < maxAttempts {
				lastErr = fmt.Errorf("azure openai status %d", resp.StatusCode)
				if err := p.backoff(ctx, attempt); err != nil {
					return nil, err
				}
				continue
			}
			return nil, fmt.Errorf("azure openai error: status=%d body=%s", resp.StatusCode, truncateBody(body))
		}

		var parsed embeddingResponse
		if err := json.Unmarshal(body, &parsed); err != nil {
			return nil, fmt.Errorf("decode embedding response: %w", err)
		}
		if parsed.Error != nil {
			return nil, fmt.Errorf("azure openai error: %s: %s", parsed.Error.Code, parsed.Error.Message)
		}
		if len(parsed.Data) == 0 || len(parsed.Data[0].Embedding) == 0 {
			return nil, ErrNoEmbedding
		}
		return parsed.Data[0].Embedding, nil
	}

	if lastErr == nil {
		lastErr = errors.New("azure openai request failed")
	}
	return nil, lastErr
}

// backoff waits before the next attempt. Nothing is waited after the last one.
func (p *AzureProvider) backoff(ctx context.Context, attempt int) error {
	if attempt >= maxAttempts {
		return nil
	}
	d := time.Duration(250*(1<<(attempt-1))+rand.IntN(100)) * time.Millisecond
	return p.sleep(ctx, d)
}

func (p *AzureProvider) endpoint() (string, error) {
	base := strings.TrimRight(p.cfg.AzureEndpoint, "/")
	u, err := url.Parse(base + "/openai/deployments/" + url.PathEscape(p.cfg.AzureDeployment) + "/embeddings")
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("api-version", p.cfg.AzureAPIVersion)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func isRetryableStatus(status int) bool {
	switch status {
	case 429, 500, 502, 503, 504:
		return true
	default:
		return false
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func truncateBody(body []byte) string {
	const max = 512
	if len(body) > max {
		return string(body[:max]) + "..."
	}
	return string(body)
}
