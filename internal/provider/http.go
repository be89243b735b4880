package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Njuelle/brief-to-plan/internal/version"
)

// jsonAPI is a minimal client for the hosted JSON-over-HTTP model APIs.
type jsonAPI struct {
	vendor  string
	baseURL string
	client  *http.Client
	auth    func(h http.Header)
	// errorMessage extracts the vendor's error text from a non-200 body.
	errorMessage func(body []byte) string
}

func newJSONAPI(vendor string, config *ProviderConfig, defaultURL string, auth func(http.Header)) jsonAPI {
	return jsonAPI{
		vendor:  vendor,
		baseURL: stringOption(config.Config, "base_url", defaultURL),
		client:  &http.Client{Timeout: durationOption(config.Config, "timeout", 120*time.Second)},
		auth:    auth,
	}
}

func (a jsonAPI) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("create %s request: %w", a.vendor, err)
	}
	a.auth(req.Header)
	req.Header.Set("User-Agent", version.UserAgent())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

// post sends in as JSON to path and decodes a 200 response into out.
func (a jsonAPI) post(ctx context.Context, path string, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	req, err := a.newRequest(ctx, http.MethodPost, path, bytes.NewReader(payload))
	if err != nil {
		return err
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		msg := string(body)
		if a.errorMessage != nil {
			if m := a.errorMessage(body); m != "" {
				msg = m
			}
		}
		return fmt.Errorf("%s error (status %d): %s", a.vendor, resp.StatusCode, msg)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	return nil
}

// ping issues an authenticated GET, which proves the key without spending
// tokens.
func (a jsonAPI) ping(ctx context.Context, path string) error {
	req, err := a.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}
	return nil
}
