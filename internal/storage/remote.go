package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"vitrina/internal"
	"vitrina/internal/catalog"
	"vitrina/internal/config"
)

// RemoteStore talks to a vitrina server's REST API.
type RemoteStore struct {
	baseURL    string
	token      string
	httpClient *http.Client
	limiter    *RateLimiter
}

type apiResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Errors  json.RawMessage `json:"errors"`
	Data    json.RawMessage `json:"data"`
}

type catalogPayload struct {
	Catalog json.RawMessage `json:"catalog"`
	Version string          `json:"version"`
}

type savePayload struct {
	Catalog     *internal.Object `json:"catalog"`
	BaseVersion string           `json:"baseVersion"`
}

func NewRemoteStore(cfg config.Config) *RemoteStore {
	return &RemoteStore{
		baseURL:    strings.TrimRight(cfg.RemoteURL, "/"),
		token:      cfg.RemoteToken,
		httpClient: &http.Client{Timeout: time.Duration(cfg.RemoteTimeoutMs) * time.Millisecond},
		limiter:    NewRateLimiter(cfg.RemoteRateLimitRPS),
	}
}

func (s *RemoteStore) Load(ctx context.Context) (Snapshot, error) {
	body, err := s.call(ctx, http.MethodGet, "/api/catalog", nil)
	if err != nil {
		return Snapshot{}, err
	}
	var payload catalogPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return Snapshot{}, err
	}
	if len(payload.Catalog) == 0 {
		return Snapshot{Version: payload.Version}, nil
	}
	tree, err := catalog.DecodeTreeBytes(payload.Catalog)
	if err != nil {
		return Snapshot{}, fmt.Errorf("decode remote catalog: %w", err)
	}
	return Snapshot{Tree: tree, Version: payload.Version}, nil
}

func (s *RemoteStore) Save(ctx context.Context, c internal.Catalog, baseVersion string) (string, error) {
	blob, err := json.Marshal(savePayload{Catalog: catalog.Tree(catalog.Reconcile(c)), BaseVersion: baseVersion})
	if err != nil {
		return "", err
	}
	body, err := s.call(ctx, http.MethodPut, "/api/catalog", blob)
	if err != nil {
		return "", err
	}
	var payload catalogPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", err
	}
	return payload.Version, nil
}

func (s *RemoteStore) call(ctx context.Context, method, endpoint string, payload []byte) ([]byte, error) {
	u := s.baseURL + endpoint

	var lastErr error
	for attempt := 1; attempt <= 5; attempt++ {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		var reqBody io.Reader
		if payload != nil {
			reqBody = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, u, reqBody)
		if err != nil {
			return nil, err
		}
		if s.token != "" {
			req.Header.Set("Authorization", "Bearer "+s.token)
		}
		req.Header.Set("Accept", "application/json")
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := s.httpClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		body, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if readErr != nil {
			lastErr = readErr
			continue
		}

		if resp.StatusCode == http.StatusConflict {
			return nil, fmt.Errorf("%w: %s", ErrConflict, apiMessage(body))
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			if isRetryableStatus(resp.StatusCode) && attempt < 5 {
				backoff := time.Duration(250*(1<<(attempt-1))+rand.Intn(100)) * time.Millisecond
				select {
				case <-ctx.Done():
					return nil, ctx.Err()
				case <-time.After(backoff):
				}
				lastErr = fmt.Errorf("remote status %d", resp.StatusCode)
				continue
			}
			return nil, fmt.Errorf("remote api error: status=%d message=%s", resp.StatusCode, apiMessage(body))
		}

		var apiResp apiResponse
		if err := json.Unmarshal(body, &apiResp); err != nil {
			return nil, err
		}
		if !apiResp.Success {
			return nil, fmt.Errorf("remote api unsuccessful: %s", apiResp.Message)
		}
		return apiResp.Data, nil
	}

	if lastErr == nil {
		lastErr = errors.New("remote request failed")
	}
	return nil, lastErr
}

func apiMessage(body []byte) string {
	var apiResp apiResponse
	if err := json.Unmarshal(body, &apiResp); err != nil || apiResp.Message == "" {
		return strings.TrimSpace(string(body))
	}
	return apiResp.Message
}

func isRetryableStatus(status int) bool {
	switch status {
	case 429, 500, 502, 503, 504:
		return true
	default:
		return false
	}
}
